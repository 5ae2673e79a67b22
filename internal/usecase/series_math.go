package usecase

import (
	"fmt"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
)

// JoinAndSpread inner-joins two series on calendar day and returns
// a.value - b.value at each shared date. Dates present in only one input are
// dropped, never forward-filled; output dates are the intersection, strictly
// increasing. Inputs are not mutated.
func JoinAndSpread(a, b *models.TimeSeries) *models.TimeSeries {
	id := fmt.Sprintf("%s-%s", a.ID, b.ID)
	if a.Empty() || b.Empty() {
		return models.NewTimeSeries(id, nil)
	}

	points := make([]models.Point, 0, min(len(a.Points), len(b.Points)))
	i, j := 0, 0
	for i < len(a.Points) && j < len(b.Points) {
		da, db := a.Points[i].Date, b.Points[j].Date
		switch {
		case da.Before(db):
			i++
		case db.Before(da):
			j++
		default:
			points = append(points, models.Point{Date: da, Value: a.Points[i].Value - b.Points[j].Value})
			i++
			j++
		}
	}
	return models.NewTimeSeries(id, points)
}

// PctChange returns the percent change between the latest point and the one
// lag steps earlier: (latest/previous - 1) * 100. A series with fewer than
// lag+1 points yields ErrInsufficientData instead of a misleading zero.
func PctChange(s *models.TimeSeries, lag int) (float64, error) {
	if lag < 1 {
		lag = 1
	}
	if s == nil || s.Len() < lag+1 {
		n := 0
		if s != nil {
			n = s.Len()
		}
		return 0, fmt.Errorf("pct change needs %d points, have %d: %w", lag+1, n, models.ErrInsufficientData)
	}
	latest := s.Points[len(s.Points)-1].Value
	previous := s.Points[len(s.Points)-1-lag].Value
	if previous == 0 {
		return 0, fmt.Errorf("pct change base is zero: %w", models.ErrZeroBase)
	}
	return (latest/previous - 1) * 100, nil
}

package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	"github.com/timur-ship-it/marketdata-dashboard/internal/service/ratelimit"
	"github.com/timur-ship-it/marketdata-dashboard/internal/usecase"
	xhttp "github.com/timur-ship-it/marketdata-dashboard/pkg/http"
	xlogger "github.com/timur-ship-it/marketdata-dashboard/pkg/logger"
)

// DashboardEchoHandler exposes the dashboard views over Echo.
type DashboardEchoHandler struct {
	logger   *xlogger.Logger
	dash     *usecase.Dashboard
	rl       *ratelimit.Limiter
	capacity float64
	refill   float64
}

func NewDashboardEchoHandler(logger *xlogger.Logger, dash *usecase.Dashboard, capacity, refill float64) *DashboardEchoHandler {
	if capacity <= 0 {
		capacity = 5
	}
	if refill <= 0 {
		refill = 2
	}
	return &DashboardEchoHandler{
		logger:   logger,
		dash:     dash,
		rl:       ratelimit.New(),
		capacity: capacity,
		refill:   refill,
	}
}

func (h *DashboardEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/spread", h.Spread)
	g.GET("/indices", h.Indices)
	g.GET("/bonds", h.Bonds)
	g.GET("/property/market", h.PropertyMarket)
	g.GET("/portfolio", h.Portfolio)
	g.POST("/portfolio", h.AddPortfolioEntry)
	g.DELETE("/portfolio/:location", h.RemovePortfolioEntry)
	g.GET("/health", h.Health)
}

func (h *DashboardEchoHandler) allow(c echo.Context, op string) bool {
	return h.rl.Allow(c.RealIP()+":"+op, h.capacity, h.refill)
}

func (h *DashboardEchoHandler) Spread(c echo.Context) error {
	req := &models.SpreadRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "spread") {
		return xhttp.AppErrorResponse(c, rateLimitedError())
	}

	res, err := h.dash.Spread(c.Request().Context(), req.Long, req.Short, req.Years)
	if err != nil {
		h.logger.Error("spread usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, translateError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) Indices(c echo.Context) error {
	if !h.allow(c, "indices") {
		return xhttp.AppErrorResponse(c, rateLimitedError())
	}

	res, err := h.dash.Indices(c.Request().Context())
	if err != nil {
		h.logger.Error("indices usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, translateError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) Bonds(c echo.Context) error {
	req := &models.BondsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "bonds") {
		return xhttp.AppErrorResponse(c, rateLimitedError())
	}

	res, err := h.dash.Bonds(c.Request().Context(), req.ISIN)
	if err != nil {
		h.logger.Error("bonds usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, translateError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) PropertyMarket(c echo.Context) error {
	if !h.allow(c, "property") {
		return xhttp.AppErrorResponse(c, rateLimitedError())
	}

	res, err := h.dash.PropertyMarket(c.Request().Context())
	if err != nil {
		h.logger.Error("property usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, translateError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) Portfolio(c echo.Context) error {
	if !h.allow(c, "portfolio") {
		return xhttp.AppErrorResponse(c, rateLimitedError())
	}

	res, err := h.dash.Portfolio(c.Request().Context())
	if err != nil {
		h.logger.Error("portfolio usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, translateError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) AddPortfolioEntry(c echo.Context) error {
	req := &models.AddPortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	entry := models.PortfolioEntry{
		Location: req.Location,
		Price:    req.Price,
		Area:     req.Area,
	}
	if err := h.dash.AddEntry(c.Request().Context(), entry); err != nil {
		h.logger.Error("portfolio add error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, translateError(err))
	}
	return xhttp.CreatedResponse(c, entry)
}

func (h *DashboardEchoHandler) RemovePortfolioEntry(c echo.Context) error {
	location := c.Param("location")
	if location == "" {
		return xhttp.BadRequestResponse(c, "location is required")
	}

	removed, err := h.dash.RemoveEntry(c.Request().Context(), location)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.logger.Error("portfolio remove error", xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, translateError(err))
	}
	return xhttp.SuccessResponse(c, map[string]int{"removed": removed})
}

func (h *DashboardEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func rateLimitedError() *xhttp.AppError {
	return xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", http.StatusTooManyRequests)
}

// translateError maps domain sentinels to HTTP-aware errors; anything
// unclassified stays a 500.
func translateError(err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrInsufficientData), errors.Is(err, models.ErrZeroBase):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrTransport):
		return xhttp.NewAppError("ERR_UPSTREAM", "", "upstream source unavailable", http.StatusBadGateway).WithError(err)
	case errors.Is(err, models.ErrDecode):
		return xhttp.NewAppError("ERR_UPSTREAM_DECODE", "", "upstream payload malformed", http.StatusBadGateway).WithError(err)
	default:
		return err
	}
}

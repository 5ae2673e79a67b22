package models

import "errors"

var (
	// ErrTransport covers network and HTTP failures, including timeouts.
	ErrTransport = errors.New("transport failure")
	// ErrDecode covers response bodies that fail to parse as structured data.
	ErrDecode = errors.New("decode failure")
	// ErrInsufficientData is returned when a computation needs more points than available.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrZeroBase is returned when a ratio computation has a zero denominator.
	ErrZeroBase = errors.New("zero base value")
	// ErrNotFound is returned when no matching file or record exists.
	ErrNotFound = errors.New("not found")
)

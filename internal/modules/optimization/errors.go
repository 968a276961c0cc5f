package optimization

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownTicker is returned when a requested ticker has no price column.
var ErrUnknownTicker = errors.New("unknown ticker")

// InsufficientDataError is returned when a price table or its cleaned return
// matrix has too few rows to estimate return statistics.
type InsufficientDataError struct {
	Stage    string // "prices" or "returns"
	Rows     int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s has %d rows, need at least %d", e.Stage, e.Rows, e.Required)
}

// OptimizationError is returned when a quadratic program cannot be solved for
// a frontier level, or when a portfolio's quadratic form is negative.
type OptimizationError struct {
	// Level is the frontier level index, or -1 for the minimum-variance problem.
	Level  int
	Target float64
	Reason string
	Err    error
}

func (e *OptimizationError) Error() string {
	msg := "optimization failed"
	if e.Level >= 0 {
		msg = fmt.Sprintf("optimization failed at level %d (target %.6g)", e.Level, e.Target)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OptimizationError) Unwrap() error {
	return e.Err
}

// DivisionError is returned when a backtest index cannot be normalized because
// the portfolio's value on the first sampled date is zero.
type DivisionError struct {
	Portfolio int
	Date      time.Time
}

func (e *DivisionError) Error() string {
	return fmt.Sprintf("portfolio %d has zero value on %s, cannot normalize index",
		e.Portfolio, e.Date.Format("2006-01-02"))
}

package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidRange          = errors.New("invalid range")
	ErrNoData                = errors.New("no data")
	ErrDataSourceUnavailable = errors.New("data source unavailable")
)

// RangeError reports a date range whose start lies after its end.
type RangeError struct {
	Start time.Time
	End   time.Time
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("start %s is after end %s", FormatDate(e.Start), FormatDate(e.End))
}

// Unwrap allows errors.Is(err, ErrInvalidRange).
func (e *RangeError) Unwrap() error {
	return ErrInvalidRange
}

func NewRangeError(start, end time.Time) error {
	return &RangeError{Start: start, End: end}
}

// DateError reports a date that is not in YYYY-MM-DD form.
type DateError struct {
	Value string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid date %q (expected YYYY-MM-DD)", e.Value)
}

func (e *DateError) Unwrap() error {
	return ErrInvalidRange
}

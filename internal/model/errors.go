package model

import "errors"

var (
	ErrInvalidEnum     = errors.New("invalid enum value")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
	ErrInvalidWeight   = errors.New("weight must be between 0 and 100")
	ErrInvalidRange    = errors.New("end date is before start date")
	ErrInvalidBudget   = errors.New("budget must not be negative")
	ErrMissingField    = errors.New("missing required field")
)

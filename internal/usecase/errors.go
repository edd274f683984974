package usecase

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrSeatCountRequired   = errors.New("number of seats required")
	ErrSeatsNotAvailable   = errors.New("seats not available")
	ErrSeatNumbersRequired = errors.New("seat numbers required")
	ErrInvalidSeatNumbers  = errors.New("invalid seat numbers or already unbooked")
	ErrUnknownSeatNumbers  = errors.New("unknown or duplicate seat numbers")
	ErrSeatConflict        = errors.New("seats were changed by another request")
)

package models

import "errors"

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("access denied")
	ErrInvalidAmount   = errors.New("donation amount must be positive")
	ErrPaymentFailed   = errors.New("payment failed")
	ErrPersistence     = errors.New("donation could not be saved")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
)

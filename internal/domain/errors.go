package domain

import "errors"

var (
	// ErrTokenNotFound is returned when a token referenced by an event is not found
	ErrTokenNotFound = errors.New("token not found")

	// ErrUnknownEventShape is returned when a log matches no known event shape
	ErrUnknownEventShape = errors.New("unknown event shape")

	// ErrInvalidAmount is returned when a quantity string cannot be parsed
	ErrInvalidAmount = errors.New("invalid amount")
)

package usecase

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrPhaseMismatch       = errors.New("operation not allowed in current phase")
	ErrNotEligible         = errors.New("participant not eligible for ranked selection")
	ErrUpstreamUnavailable = errors.New("judge platform unavailable")
)

package domain

import (
	"errors"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrUnknown        = errors.New("unknown error")

	ErrInvalidPayload        = errors.New("invalid payload")
	ErrAuthenticationFailure = errors.New("authentication failure")
	ErrUserNotFound          = errors.New("user not found")

	ErrNotEnoughCredits     = errors.New("not enough credits")
	ErrGenerationFailed     = errors.New("failed to generate output data")
	ErrUnsupportedChartType = errors.New("unsupported chart type")
)

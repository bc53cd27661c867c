package service

import "errors"

// ErrInvalidInput marks malformed parameters. It is the only error class
// scorers return: missing data and cold starts yield empty lists instead.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrUserIDMissing          = errors.New("user_id is required")
	ErrProductIDMissing       = errors.New("product_id is required")
	ErrInvalidInteractionType = errors.New("invalid interaction_type")
)

package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validateStruct runs struct-tag validation and folds failures into a single
// error wrapping ErrInvalidInput.
func validateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func requireUser(id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, ErrUserIDMissing)
	}
	return nil
}

func requireProduct(id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, ErrProductIDMissing)
	}
	return nil
}

type limitParams struct {
	Limit int `validate:"min=1,max=100"`
}

func validateLimit(limit int) error {
	return validateStruct(limitParams{Limit: limit})
}

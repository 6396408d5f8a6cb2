package pricing

import (
	"errors"
	"fmt"
)

// ValidationError reports a request that was rejected before any stage ran.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	// ErrNoFilter is returned when a request carries none of the narrowing filters.
	ErrNoFilter = &ValidationError{
		Field:   "filter",
		Message: "at least one filter is required: category, store, brand, search or sku",
	}

	// ErrProductNotFound is returned by the detail path for an unknown SKU.
	ErrProductNotFound = errors.New("PRODUCT_NOT_FOUND")
)

// StageError is returned when a pipeline stage fails. Stage names the stage
// that was running; Err is the underlying cause.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pricing stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

package types

import "fmt"

// ErrorCategory classifies request failures for logging and for the
// HTTP surface.
type ErrorCategory string

const (
	ErrCatValidation  ErrorCategory = "validation"
	ErrCatRetrieval   ErrorCategory = "retrieval"
	ErrCatModel       ErrorCategory = "model"
	ErrCatPersistence ErrorCategory = "persistence"
	ErrCatFormat      ErrorCategory = "format"
	ErrCatNotFound    ErrorCategory = "not_found"
	ErrCatUnknown     ErrorCategory = "unknown"
)

// AppError wraps an error with a category and HTTP status code.
type AppError struct {
	Category   ErrorCategory
	Message    string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(msg string) *AppError {
	return &AppError{Category: ErrCatValidation, Message: msg, StatusCode: 400}
}

// NewRetrievalError marks a vector-store failure. Fatal for the primary
// generation path; the jurisprudence-enrichment path degrades instead.
func NewRetrievalError(msg string, err error) *AppError {
	return &AppError{Category: ErrCatRetrieval, Message: msg, StatusCode: 502, Err: err}
}

func NewModelError(msg string, err error) *AppError {
	return &AppError{Category: ErrCatModel, Message: msg, StatusCode: 502, Err: err}
}

// NewPersistenceError marks a save failure. A document that could not
// be saved is never reported to the caller as successful.
func NewPersistenceError(msg string, err error) *AppError {
	return &AppError{Category: ErrCatPersistence, Message: msg, StatusCode: 500, Err: err}
}

// NewFormatError marks an unsupported upload format.
func NewFormatError(msg string) *AppError {
	return &AppError{Category: ErrCatFormat, Message: msg, StatusCode: 415}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{Category: ErrCatNotFound, Message: msg, StatusCode: 404}
}

func NewInternalError(msg string, err error) *AppError {
	return &AppError{Category: ErrCatUnknown, Message: msg, StatusCode: 500, Err: err}
}

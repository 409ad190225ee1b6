package larder

import (
	"errors"
	"fmt"

	"github.com/xraph/larder/production"
	"github.com/xraph/larder/snapshot"
	"github.com/xraph/larder/stock"
	"github.com/xraph/larder/types"
)

// Sentinel errors for common failure scenarios.
var (
	// Ledger errors, defined where they are detected.
	ErrInvalidQuantity   = types.ErrInvalidQuantity
	ErrUnitMismatch      = types.ErrUnitMismatch
	ErrInsufficientStock = stock.ErrInsufficientStock
	ErrLotNotFound       = stock.ErrLotNotFound
	ErrBatchInUse        = production.ErrBatchInUse

	// Catalog errors
	ErrIngredientNotFound = errors.New("larder: ingredient not found")
	ErrIngredientInUse    = errors.New("larder: ingredient is used by recorded batches")
	ErrBatchNotFound      = errors.New("larder: batch not found")
	ErrAlreadyExists      = errors.New("larder: already exists")
	ErrInvalidInput       = errors.New("larder: invalid input")

	// Store errors
	ErrProfileNotFound     = errors.New("larder: profile not found")
	ErrStoreClosed         = errors.New("larder: store is closed")
	ErrStoreNotReady       = errors.New("larder: store not ready")
	ErrProfileLocked       = errors.New("larder: profile is locked by another writer")
	ErrUnsupportedSnapshot = snapshot.ErrUnsupportedSnapshot
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
	// Err is the sentinel the failure maps to, ErrInvalidInput when unset.
	Err error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("larder: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap exposes the sentinel so errors.Is matches it.
func (e ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidInput
	}
	return e.Err
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "larder: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("larder: %d errors occurred", len(e.Errors))
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// ErrorOrNil returns the multi-error when it holds errors, nil otherwise.
func (e MultiError) ErrorOrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrIngredientNotFound) ||
		errors.Is(err, ErrBatchNotFound) ||
		errors.Is(err, ErrLotNotFound) ||
		errors.Is(err, ErrProfileNotFound)
}

// IsStockError returns true if the error came from a stock check.
func IsStockError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrBatchInUse) ||
		errors.Is(err, ErrIngredientInUse)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrProfileLocked)
}

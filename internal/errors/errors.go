// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrDataNotFound      = errors.New("data not found")
	ErrInsufficientData  = errors.New("insufficient data")
	ErrDatabaseError     = errors.New("database error")
	ErrInputValidation   = errors.New("input validation failed")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets errors.Is match ErrInputValidation.
func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType  string
	Symbol    string
	Timeframe string
	Message   string
	Err       error
}

func (e *DataError) Error() string {
	series := e.Symbol
	if e.Timeframe != "" {
		series = e.Symbol + "/" + e.Timeframe
	}
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, series, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, series, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, timeframe, message string, err error) *DataError {
	return &DataError{
		DataType:  dataType,
		Symbol:    symbol,
		Timeframe: timeframe,
		Message:   message,
		Err:       err,
	}
}

// ScanError collects the per-symbol failures of a scan.
type ScanError struct {
	Failures map[string]error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed for %d symbol(s)", len(e.Failures))
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

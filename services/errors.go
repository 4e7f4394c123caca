package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when an entity is absent or not owned by the caller
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller may not perform the operation
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is returned when credentials do not check out
	ErrUnauthorized = errors.New("invalid credentials")
)

// ValidationError is a business-rule or input error whose message is safe to show the caller
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConflictError is an integrity violation (duplicate key, dependents present)
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func invalid(code, message string) error {
	return &ValidationError{Code: code, Message: message}
}

func conflict(code, message string) error {
	return &ConflictError{Code: code, Message: message}
}

// notFoundOr maps gorm.ErrRecordNotFound to ErrNotFound and passes other errors through
func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation detects duplicate-key errors (works with both PostgreSQL and SQLite)
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique")
}

// isForeignKeyViolation detects foreign-key errors (works with both PostgreSQL and SQLite)
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key")
}

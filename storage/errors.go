package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a storage operation error with context about the
// operation that failed. It wraps the underlying AWS SDK error with
// additional context for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "upload", "delete", "list")
	Op string

	// Bucket is the bucket name (if applicable)
	Bucket string

	// Key is the object key (if applicable)
	Key string

	// Err is the underlying error from the AWS SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("storage.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("storage.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("storage.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{Op: op, Bucket: bucket, Key: key, Err: err}
}

var (
	// ErrObjectNotFound indicates that the requested object does not exist.
	ErrObjectNotFound = errors.New("storage: object not found")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("storage: invalid input")
)

// isNotFound reports whether err is a "key does not exist" response.
// The SDK surfaces this differently per operation (NotFound from HEAD,
// NoSuchKey from GET), so match on the error message.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "NotFound") || strings.Contains(msg, "NoSuchKey")
}

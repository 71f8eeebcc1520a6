// Package apperr defines the sentinel errors shared across paranote packages.
package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidPath    = errors.New("invalid path")
	ErrAlreadyExists  = errors.New("already exists")
	ErrEmptyDocument  = errors.New("empty document")
	ErrStructuredData = errors.New("invalid structured data")
	ErrParsing        = errors.New("parsing failed")
	ErrSafety         = errors.New("safety check failed")
)

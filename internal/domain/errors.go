package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by manager lookups and mutations when no trip or
// person with the requested ID exists.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails a business rule
// (e.g. missing destination, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrDuplicateID is returned when inserting a trip or person whose ID is
// already held by the manager.
// Handlers should map this to HTTP 409 Conflict.
var ErrDuplicateID = errors.New("duplicate id")

// ParseError describes a single malformed CSV row or field.
// Readers collect these per row and keep going; they are never fatal.
type ParseError struct {
	Line  int    // 1-based line number in the source, 0 when unknown
	Field string // column name, empty when the whole row is at fault
	Err   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Field != "":
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Field, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// FileError reports a cache or import/export file that could not be opened,
// read or written. The operation that hit it is abandoned; in-memory state is
// left as it was.
type FileError struct {
	Op   string // "open", "create", "read", "write", "rename"
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by UpdateDisplay when no identity resolves.
	ErrNotFound = errors.New("no identity matches signal")
	// ErrUnauthorized is returned by CreateLinked when no identity resolves.
	ErrUnauthorized = errors.New("signal does not resolve to an identity")
)

// ValidationError lists the request fields that were missing or empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing fields: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) ErrorKind() string { return "validation" }

// StoreError wraps a persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) ErrorKind() string { return "store" }

// ErrorKind classifies err for transport mapping. Unknown errors are "internal".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	}
	var kinded interface{ ErrorKind() string }
	if errors.As(err, &kinded) {
		return kinded.ErrorKind()
	}
	return "internal"
}

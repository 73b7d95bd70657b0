// Package rnperrors defines the sum-typed error kinds of spec.md §7, so
// that callers can distinguish e.g. an integrity failure from a network
// failure with errors.As instead of string matching.
package rnperrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParseError wraps a malformed-document or malformed-version-text failure.
type ParseError struct {
	Subject string // what failed to parse: "manifest", "lockfile", "metadata", "version range"
	Cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Subject, e.Cause)
}
func (e *ParseError) Unwrap() error { return e.Cause }

// NetworkError wraps a transport failure or non-2xx registry response.
type NetworkError struct {
	URL    string
	Status int // 0 if the failure never reached a response
	Cause  error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("network error fetching %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Cause)
}
func (e *NetworkError) Unwrap() error { return e.Cause }

// IntegrityError wraps a checksum/SRI mismatch.
type IntegrityError struct {
	Package string
	Version string
	Kind    string // "sha512" or "sha1"
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s integrity check failed for %s@%s", e.Kind, e.Package, e.Version)
}

// ConstraintError wraps an engine/os/cpu rejection.
type ConstraintError struct {
	Package string
	Version string
	Reason  string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s@%s rejected: %s", e.Package, e.Version, e.Reason)
}

// ConflictError is recorded in the resolver's conflict log; it is never
// returned from a function expected to fail the whole operation.
type ConflictError struct {
	Package string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// FSError wraps a failure creating directories, writing files, or linking.
type FSError struct {
	Path  string
	Cause error
}

func (e *FSError) Error() string {
	return fmt.Sprintf("filesystem error at %s: %v", e.Path, e.Cause)
}
func (e *FSError) Unwrap() error { return e.Cause }

// LifecycleError wraps a non-zero lifecycle script exit.
type LifecycleError struct {
	Package string
	Script  string
	Cause   error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s script failed for %s: %v", e.Script, e.Package, e.Cause)
}
func (e *LifecycleError) Unwrap() error { return e.Cause }

// OutOfSyncError is the fatal pre-flight failure of a `ci` install.
type OutOfSyncError struct {
	Detail string
}

func (e *OutOfSyncError) Error() string {
	return fmt.Sprintf("lockfile is out of sync with package.json: %s", e.Detail)
}

// Wrap attaches stack context to an arbitrary error without changing its kind.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package clustererr defines the typed failures the pipeline's components
// return. The run coordinator is the only place these get converted into
// operator-facing behavior (retry, rollback, exit code); no component here
// panics or wraps an ambient error type of its own.
package clustererr

import "fmt"

// Kind is one of the error taxonomy entries the run coordinator recognizes.
type Kind string

const (
	KindAlreadyRunning     Kind = "AlreadyRunning"
	KindInsufficientVoters Kind = "InsufficientVoters"
	KindNumerical          Kind = "Numerical"
	KindStoreUnavailable   Kind = "StoreUnavailable"
	KindWriteConflict      Kind = "WriteConflict"
)

// Error wraps a Kind with context. Components return *Error (or nil);
// callers use errors.As to recover the Kind.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error around an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// ExitCode maps a Kind to the process exit code the trigger command uses.
func ExitCode(kind Kind) int {
	switch kind {
	case KindInsufficientVoters:
		return 2
	case KindAlreadyRunning:
		return 3
	default:
		return 1
	}
}

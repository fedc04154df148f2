// Package apperr defines the typed failures surfaced by the refinement pipeline.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindLLM           Kind = "llm"
	KindRateLimit     Kind = "rate_limit"
	KindNetwork       Kind = "network"
	KindAuth          Kind = "auth"
	KindPipeline      Kind = "pipeline"
	KindFileOperation Kind = "file_operation"
)

// Error is the single error type used across the core. Kind-specific
// constructors below keep the message/hint wording consistent.
type Error struct {
	Kind    Kind
	Stage   string
	Message string
	Hint    string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Stage != "" {
		fmt.Fprintf(&b, "%s stage: ", e.Stage)
	}
	b.WriteString(e.Message)
	if e.Err != nil && e.Err.Error() != e.Message {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status: %d)", e.Status)
	}
	if e.Hint != "" {
		b.WriteString("\nhint: ")
		b.WriteString(e.Hint)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed caller input.
func Validation(msg, hint string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Hint: hint}
}

// Configuration reports an unknown provider, a malformed config file or a missing credential.
func Configuration(msg, hint string) *Error {
	return &Error{Kind: KindConfiguration, Message: msg, Hint: hint}
}

// Configurationf wraps cause as a configuration failure.
func Configurationf(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...), Err: cause}
}

// LLM wraps a backend failure, keeping the raw backend message.
func LLM(cause error) *Error {
	msg := "llm request failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: KindLLM, Message: msg, Err: cause}
}

// FileOperation reports a failed read or write of a user file.
func FileOperation(msg, hint string, cause error) *Error {
	return &Error{Kind: KindFileOperation, Message: msg, Hint: hint, Err: cause}
}

// Pipeline wraps err as the failure of the named stage.
func Pipeline(stage string, err error) *Error {
	return &Error{Kind: KindPipeline, Stage: stage, Message: "pipeline aborted", Err: err}
}

// KindOf returns the most specific kind in err's chain. A pipeline wrapper
// reports the kind of the failure it wraps.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	if e.Kind == KindPipeline {
		if inner := KindOf(e.Err); inner != "" {
			return inner
		}
	}
	return e.Kind
}

// StageOf returns the stage recorded on the outermost pipeline error, if any.
func StageOf(err error) string {
	var e *Error
	for errors.As(err, &e) {
		if e.Stage != "" {
			return e.Stage
		}
		err = e.Err
	}
	return ""
}

// HintOf returns the first non-empty hint along err's chain.
func HintOf(err error) string {
	var e *Error
	for errors.As(err, &e) {
		if e.Hint != "" {
			return e.Hint
		}
		err = e.Err
	}
	return ""
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

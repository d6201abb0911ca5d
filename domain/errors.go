package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyQuery  = errors.New("query must not be empty")
	ErrInvalidBody = errors.New("invalid request body")
)

type ErrorKind string

const (
	KindAuth           ErrorKind = "auth"
	KindThrottled      ErrorKind = "throttled"
	KindQuota          ErrorKind = "quota"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindUnavailable    ErrorKind = "unavailable"
	KindUnknown        ErrorKind = "unknown"
)

// ProviderError is a failure reported by a remote inference or retrieval
// service, already classified so callers never inspect SDK error types.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s error: %s", e.Provider, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// KindOf returns the provider error kind carried by err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindUnknown
}

func IsProviderError(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr)
}

// Describe renders err as the text shown to the person chatting. Failures the
// providers reported keep their message; anything else is flagged as
// unexpected.
func Describe(err error) string {
	if IsProviderError(err) || errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrInvalidBody) {
		return err.Error()
	}
	return "Unexpected: " + err.Error()
}

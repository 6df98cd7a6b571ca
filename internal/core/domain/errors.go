package domain

import (
	"errors"
	"strings"
)

var (
	// ErrTransport means the upstream could not be reached
	// or answered with a non-2xx status.
	ErrTransport = errors.New("upstream transport failure")

	// ErrUpstream is the target of every [*UpstreamError].
	ErrUpstream = errors.New("upstream application error")

	// ErrContractViolation means a successful upstream response
	// lacks a required identifying field.
	ErrContractViolation = errors.New("upstream contract violation")

	ErrNotFound        = errors.New("not found")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrEmptyLineKey    = errors.New("empty cart line key")
)

// An UpstreamError carries the messages of a GraphQL error payload.
type UpstreamError struct {
	Messages []string
}

func (e *UpstreamError) Error() string {
	if len(e.Messages) == 0 {
		return ErrUpstream.Error()
	}
	return ErrUpstream.Error() + ": " + strings.Join(e.Messages, "; ")
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}

// UserMessage is the first upstream message, suitable for display.
func (e *UpstreamError) UserMessage() string {
	if len(e.Messages) == 0 {
		return "unknown upstream error"
	}
	return e.Messages[0]
}

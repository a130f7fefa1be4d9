package domain

import "errors"

// ErrorKind is the closed set of error categories the analyzer distinguishes
// when mapping internal failures to HTTP responses.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "NotFound"
	KindRateLimited        ErrorKind = "RateLimited"
	KindUpstreamUnavailable ErrorKind = "UpstreamUnavailable"
	KindTimeout            ErrorKind = "Timeout"
	KindParse              ErrorKind = "Parse"
	KindInvariant          ErrorKind = "Invariant"
	KindStorage            ErrorKind = "Storage"
	KindConflict           ErrorKind = "Conflict"
	KindCancelled          ErrorKind = "Cancelled"
	KindConfig             ErrorKind = "Config"
)

// Sentinel errors for each closed error kind. Package code should wrap one of
// these with fmt.Errorf("<pkg>: <op>: %w", err) rather than returning bare
// strings, so callers can classify failures with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrRateLimited         = errors.New("rate limited")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrTimeout             = errors.New("timeout")
	ErrParse               = errors.New("parse error")
	ErrInvariant           = errors.New("invariant violation")
	ErrStorage             = errors.New("storage error")
	ErrConflict            = errors.New("conflict")
	ErrCancelled           = errors.New("cancelled")
	ErrConfig              = errors.New("config error")
)

// CodedError pairs one of the sentinel kinds above with a human-readable
// detail message. The HTTP layer maps Kind to a status code; everything else
// treats CodedError like any other error via Unwrap.
type CodedError struct {
	Kind   ErrorKind
	Detail string
	err    error
}

// NewCodedError builds a CodedError wrapping the sentinel matching kind.
func NewCodedError(kind ErrorKind, detail string) *CodedError {
	return &CodedError{Kind: kind, Detail: detail, err: sentinelFor(kind)}
}

func (e *CodedError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return e.Detail
}

// Unwrap allows errors.Is(err, domain.ErrNotFound) and friends to work
// through a CodedError.
func (e *CodedError) Unwrap() error {
	return e.err
}

func sentinelFor(kind ErrorKind) error {
	switch kind {
	case KindNotFound:
		return ErrNotFound
	case KindRateLimited:
		return ErrRateLimited
	case KindUpstreamUnavailable:
		return ErrUpstreamUnavailable
	case KindTimeout:
		return ErrTimeout
	case KindParse:
		return ErrParse
	case KindInvariant:
		return ErrInvariant
	case KindStorage:
		return ErrStorage
	case KindConflict:
		return ErrConflict
	case KindCancelled:
		return ErrCancelled
	case KindConfig:
		return ErrConfig
	default:
		return errors.New(string(kind))
	}
}

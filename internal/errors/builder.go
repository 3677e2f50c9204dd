package errors

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// safeDetailsPrefix tags structured detail payloads so the response
// layer can tell them apart from other safe-detail strings.
const safeDetailsPrefix = "__json__:"

// ErrorBuilder accumulates context onto an error before it is marked
// with a sentinel. It intentionally does not implement error itself;
// Mark terminates the chain and returns the built error.
type ErrorBuilder struct {
	err error
}

// NewError starts a builder from a fresh error message.
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// WithError starts a builder that wraps an existing error.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithMessage prepends internal context. Not shown to API callers.
func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithHint attaches the caller-facing message rendered in API responses.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

// WithHintf is WithHint with formatting.
func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// WithReportableDetails attaches structured details that are safe to
// return to the caller. Details that fail to marshal are dropped.
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	marshaled, err := json.Marshal(details)
	if err != nil {
		return b
	}
	b.err = errors.WithSafeDetails(b.err, safeDetailsPrefix+"%s", errors.Safe(string(marshaled)))
	return b
}

// Mark stamps the sentinel and finishes the chain.
func (b *ErrorBuilder) Mark(sentinel error) error {
	b.err = errors.Mark(b.err, sentinel)
	return b.err
}

// Err returns the error built so far without marking it.
func (b *ErrorBuilder) Err() error {
	return b.err
}

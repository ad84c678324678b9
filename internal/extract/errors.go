package extract

import (
	"errors"
	"fmt"

	"github.com/docchat-dev/docchat/internal/model/document"
)

// FailureKind classifies why extraction failed. Handlers branch on the
// kind; message text is only composed at the presentation boundary.
type FailureKind string

const (
	// FailureDependencyUnavailable means no extractor is registered for
	// the requested format.
	FailureDependencyUnavailable FailureKind = "dependency_unavailable"
	// FailureUnsupportedFormat means the file extension maps to no
	// known document kind.
	FailureUnsupportedFormat FailureKind = "unsupported_format"

	FailureEmptyDocument     FailureKind = "empty_document"
	FailureDecode            FailureKind = "decode_error"
	FailureNoExtractableText FailureKind = "no_extractable_text"
	FailureNoContent         FailureKind = "no_content"
	FailureNoData            FailureKind = "no_data"
)

// ContentFailure reports whether the kind describes a problem with the
// uploaded bytes rather than with the service's capabilities.
func (k FailureKind) ContentFailure() bool {
	switch k {
	case FailureDependencyUnavailable, FailureUnsupportedFormat:
		return false
	default:
		return true
	}
}

// Error carries the typed extraction failure taxonomy.
type Error struct {
	Kind    FailureKind
	Format  document.Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Format, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Format, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind FailureKind, format document.Kind, message string) *Error {
	return &Error{Kind: kind, Format: format, Message: message}
}

func wrapError(kind FailureKind, format document.Kind, message string, err error) *Error {
	return &Error{Kind: kind, Format: format, Message: message, Err: err}
}

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) (FailureKind, bool) {
	var extErr *Error
	if errors.As(err, &extErr) {
		return extErr.Kind, true
	}
	return "", false
}

// internal/phrase/errors.go
package phrase

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a phrase failed to parse.
type FailureKind int

const (
	// EmptyPhrase means the phrase was empty or all whitespace.
	EmptyPhrase FailureKind = iota
	// NoMatchingGrammar means no grammar answers to the phrase's first word,
	// or none of the candidates recognized its shape.
	NoMatchingGrammar
	// InvalidReference means the phrase names an item, thing, or channel
	// the registry does not know.
	InvalidReference
	// MalformedValue means the shape was recognized but a value inside it
	// is invalid or missing, such as a bad cron expression or time bound.
	MalformedValue
	// UnsupportedNegation means a negated day type has no defined antonym.
	UnsupportedNegation
)

// String returns the stable token used in logs, history rows, and API output.
func (k FailureKind) String() string {
	switch k {
	case EmptyPhrase:
		return "empty_phrase"
	case NoMatchingGrammar:
		return "no_matching_grammar"
	case InvalidReference:
		return "invalid_reference"
	case MalformedValue:
		return "malformed_value"
	case UnsupportedNegation:
		return "unsupported_negation"
	default:
		return "unknown"
	}
}

// ParseError is a classified phrase parse failure. Registry infrastructure
// errors are never wrapped in a ParseError; they propagate unchanged.
type ParseError struct {
	Kind          FailureKind
	Phrase        string
	Discriminator string
	Detail        string
	Err           error
}

func (e *ParseError) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Phrase != "" {
		msg += fmt.Sprintf(" (phrase %q)", e.Phrase)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a ParseError of the given kind.
func IsKind(err error, kind FailureKind) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == kind
}

// AsParseError returns the ParseError in err's chain, if any.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	ok := errors.As(err, &pe)
	return pe, ok
}

func failf(kind FailureKind, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

package filing

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a per-file parse failure.
type ErrorKind string

const (
	KindMalformedXML    ErrorKind = "malformed_xml"
	KindUndecodable     ErrorKind = "undecodable"
	KindMalformedMarkup ErrorKind = "malformed_markup"
	KindInternal        ErrorKind = "internal"
)

// ParseError fails a single parse call. Batch callers record it and move on.
type ParseError struct {
	FileID string
	Kind   ErrorKind
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %s: %s", e.FileID, e.Kind)
	}
	return fmt.Sprintf("parse %s: %s: %v", e.FileID, e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func newParseError(fileID string, kind ErrorKind, err error) *ParseError {
	return &ParseError{FileID: fileID, Kind: kind, Err: err}
}

// AsParseError reports whether err wraps a ParseError.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

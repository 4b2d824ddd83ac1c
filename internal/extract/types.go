package extract

import (
	"fmt"
	"time"
)

// Input is what the user supplied for one log entry. At least one of Text or
// Image must be non-empty; callers validate this before invoking Extract.
type Input struct {
	Text      string
	Image     []byte // receipt photo, optional
	ImageMIME string // e.g. "image/jpeg"; required when Image is set
}

// Context carries the ambient facts embedded in the parser prompt.
type Context struct {
	Today    time.Time
	TripMode bool
}

// RawFields is the untrusted field set returned by the model. Pointers
// distinguish an absent field from a zero value; the normalizer decides what
// each absence means.
type RawFields struct {
	Date           *string  `json:"date"`
	Amount         *float64 `json:"amount"`
	Description    *string  `json:"description"`
	Category       *string  `json:"category"`
	Type           *string  `json:"type"`
	IsSubscription *bool    `json:"is_subscription"`
}

// ErrorKind distinguishes transport failures from schema violations.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindSchema    ErrorKind = "schema"
)

// ExtractionError is returned for any failed extraction: the model call
// itself failed, or the response did not conform to the requested schema.
// A schema violation is a reportable error, never a best-effort guess.
type ExtractionError struct {
	Kind ErrorKind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (%s): %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func transportError(format string, args ...interface{}) *ExtractionError {
	return &ExtractionError{Kind: KindTransport, Err: fmt.Errorf(format, args...)}
}

func schemaError(format string, args ...interface{}) *ExtractionError {
	return &ExtractionError{Kind: KindSchema, Err: fmt.Errorf(format, args...)}
}

/*
errors.go - Error types for submission validation

PURPOSE:
  One place for the errors a submission can raise. A single malformed
  numeric field aborts the whole submission: no partial result rows are
  ever produced.

ERROR CATEGORIES:
  1. Field errors - a record field failed numeric conversion
  2. Everything else is either recovered (rate-fetch degradation, handled
     inside the projector) or a programming fault left to the HTTP
     recoverer

USAGE:
    if err := ...; valuation.IsValidation(err) {
        // 400 with field, index and offending value
    }

SEE ALSO:
  - api/handlers.go: maps these to HTTP status codes
*/
package valuation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - use with errors.Is()
// =============================================================================

var (
	// ErrInvalidNumber is returned when a submitted field cannot be parsed
	// as a number.
	ErrInvalidNumber = errors.New("invalid numeric field")

	// ErrEmptySubmission is returned when a submission carries no records.
	ErrEmptySubmission = errors.New("submission has no area records")

	// ErrFieldCountMismatch is returned when the parallel field arrays of a
	// submission differ in length.
	ErrFieldCountMismatch = errors.New("field arrays differ in length")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// FieldError identifies exactly which field of which record failed
// conversion, so the caller can surface it verbatim.
type FieldError struct {
	Field string
	Index int
	Value string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("record %d: field %q: cannot parse %q as a number", e.Index, e.Field, e.Value)
}

func (e *FieldError) Unwrap() error { return ErrInvalidNumber }

// IsValidation reports whether err should abort the submission with a
// client-facing message.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidNumber) ||
		errors.Is(err, ErrEmptySubmission) ||
		errors.Is(err, ErrFieldCountMismatch)
}

// ParseAmount converts one submitted field, wrapping failures with the
// field name and record index.
func ParseAmount(field string, index int, raw string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &FieldError{Field: field, Index: index, Value: raw}
	}
	return v, nil
}

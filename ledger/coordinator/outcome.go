package coordinator

import (
	"errors"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

// Outcome is a short language-agnostic code describing how an operation
// ended. The conversational front-end renders it into speech; the core never
// formats user-facing prose.
type Outcome string

const (
	OutcomeSuccess             Outcome = "success"
	OutcomeValidationError     Outcome = "validation-error"
	OutcomeNotFound            Outcome = "not-found"
	OutcomeConflict            Outcome = "conflict"
	OutcomeConcurrencyConflict Outcome = "concurrency-conflict"
	OutcomePersistenceError    Outcome = "persistence-error"
)

// OutcomeFor maps an error chain onto its outcome code.
func OutcomeFor(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ledger.ErrValidation):
		return OutcomeValidationError
	case errors.Is(err, ledger.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ledger.ErrConcurrencyConflict):
		return OutcomeConcurrencyConflict
	case errors.Is(err, ledger.ErrConflict):
		return OutcomeConflict
	default:
		return OutcomePersistenceError
	}
}

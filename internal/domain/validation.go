package domain

import (
	"errors"
	"fmt"
)

// ValidateForSubmit runs every local check before any network work:
// required header fields, the traceable payment rule, and the balance
// invariant for ledger entries. All violations are reported together
// so the form can flag each field in one pass.
func ValidateForSubmit(doc *Document) error {
	var errs []error

	if !ValidDocumentType(doc.Type) {
		return ErrUnknownDocumentType
	}

	if doc.Header.CounterpartyID == "" && !doc.Type.IsLedger() {
		errs = append(errs, ErrMissingCounterparty)
	}

	if doc.Type.IsLedger() {
		if len(doc.JournalLines) == 0 {
			errs = append(errs, ErrEmptyDocument)
		} else if !IsBalanced(doc.JournalLines) {
			errs = append(errs, fmt.Errorf("%w: off by %s", ErrUnbalancedEntry, Imbalance(doc.JournalLines).String()))
		}
	} else {
		if len(doc.Lines) == 0 {
			errs = append(errs, ErrEmptyDocument)
		}
		errs = append(errs, doc.Payment.Validate()...)
	}

	return errors.Join(errs...)
}

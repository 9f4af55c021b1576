package domain

import "errors"

var (
	// Document errors
	ErrDocumentNotFound    = errors.New("document not found")
	ErrUnknownDocumentType = errors.New("unknown document type")
	ErrEmptyDocument       = errors.New("document has no lines")
	ErrImmutableNumber     = errors.New("document number cannot change after persistence")

	// Validation errors
	ErrMissingCounterparty  = errors.New("counterparty is required")
	ErrMissingAccountNumber = errors.New("account number is required for traceable payment methods")
	ErrMissingAttachment    = errors.New("proof attachment is required for traceable payment methods")
	ErrUnbalancedEntry      = errors.New("journal entry debits and credits are not equal")

	// Master-data errors
	ErrUnknownItem = errors.New("item not found in catalog")
	ErrUnknownTax  = errors.New("tax not found in catalog")

	// Lifecycle errors
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrSubmitInFlight    = errors.New("a submit is already in flight for this document")

	// Persistence errors
	ErrNumberConflict = errors.New("document number already taken")
	ErrRemoteRejected = errors.New("remote service rejected the document")
)

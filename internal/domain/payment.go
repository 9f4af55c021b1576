package domain

// PaymentMethod is the closed set of payment methods the engine
// recognizes. Unknown strings are carried through but never traceable.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCheque       PaymentMethod = "cheque"
	PaymentOther        PaymentMethod = "other"
)

// RequiresProof reports whether the method is traceable: bank
// transfers and cheques need an account number and a proof attachment
// before submission. Every other method, including unset, does not.
func (m PaymentMethod) RequiresProof() bool {
	return m == PaymentBankTransfer || m == PaymentCheque
}

// PaymentDetails holds how a document was or will be settled.
type PaymentDetails struct {
	Method        PaymentMethod
	AccountNumber string
	AttachmentRef string
}

// Validate enforces the traceable-method rule. It returns one error
// per missing field so the caller can report both at once.
func (p PaymentDetails) Validate() []error {
	if !p.Method.RequiresProof() {
		return nil
	}

	var errs []error
	if p.AccountNumber == "" {
		errs = append(errs, ErrMissingAccountNumber)
	}
	if p.AttachmentRef == "" {
		errs = append(errs, ErrMissingAttachment)
	}
	return errs
}

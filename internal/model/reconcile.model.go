package model

import "github.com/shopspring/decimal"

// ReconcileRequest asks to turn a pending bank row into a recorded payment,
// either by creating a Transaction or by linking an existing one.
type ReconcileRequest struct {
	BankTransactionID     int64       `json:"bank_transaction_id"`
	MemberID              *int64      `json:"member_id"`
	ExistingTransactionID *int64      `json:"existing_transaction_id"`
	PaymentType           PaymentType `json:"payment_type"`
	ForYear               *int        `json:"for_year"`
	OperatorID            string      `json:"-"`
}

func (r ReconcileRequest) Validate() error {
	if r.BankTransactionID <= 0 {
		return NewValidationError("bank_transaction_id", "is required")
	}
	if r.OperatorID == "" {
		return NewValidationError("collected_by", "is required")
	}
	if r.ExistingTransactionID != nil {
		return nil
	}
	if !r.PaymentType.Valid() {
		return NewValidationError("payment_type", "invalid payment type "+string(r.PaymentType))
	}
	if r.ForYear != nil && (*r.ForYear < 1900 || *r.ForYear > 2200) {
		return NewValidationError("for_year", "out of range")
	}
	return nil
}

type ReconcileResult struct {
	BankTransaction *BankTransaction `json:"bank_transaction"`
	Transaction     *Transaction     `json:"transaction"`
	LedgerEntry     *LedgerEntry     `json:"ledger_entry,omitempty"`
	Linked          bool             `json:"linked"`
	LedgerPending   bool             `json:"ledger_pending"`
}

type BulkReconcileItem struct {
	BankTransactionID int64            `json:"bank_transaction_id"`
	Success           bool             `json:"success"`
	Code              string           `json:"code,omitempty"`
	Message           string           `json:"message,omitempty"`
	Result            *ReconcileResult `json:"result,omitempty"`
}

type BulkReconcileReport struct {
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Items     []BulkReconcileItem `json:"items"`
}

// ExpenseReconcileRequest records a withdrawal as a standalone expense.
type ExpenseReconcileRequest struct {
	BankTransactionID int64  `json:"bank_transaction_id"`
	GLCode            string `json:"gl_code"`
	Memo              string `json:"memo"`
	OperatorID        string `json:"-"`
}

type ExpenseReconcileResult struct {
	BankTransaction *BankTransaction `json:"bank_transaction"`
	LedgerEntry     *LedgerEntry     `json:"ledger_entry"`
}

// Confidence levels of a member suggestion.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
)

// Suggestion bases.
const (
	BasisMemo      = "memo"
	BasisPayerName = "payer_name"
)

type MemberSuggestion struct {
	MemberID   int64  `json:"member_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Confidence string `json:"confidence"`
	Basis      string `json:"basis"`
}

type BankTransactionWithSuggestions struct {
	*BankTransaction
	Suggestion          *MemberSuggestion `json:"suggestion,omitempty"`
	PotentialDuplicates []*Transaction    `json:"potential_duplicates"`
}

// AbsAmount is the unsigned amount of a bank row rounded to cents.
func AbsAmount(d decimal.Decimal) decimal.Decimal {
	return d.Abs().Round(2)
}

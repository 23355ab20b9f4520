package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const LedgerTypeExpense = "expense"

// LedgerEntry is an accounting-grade income or expense row. Income entries
// reference exactly one Transaction.
type LedgerEntry struct {
	ID            int64           `json:"id"`
	Type          string          `json:"type"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	EntryDate     time.Time       `json:"entry_date"`
	MemberID      *int64          `json:"member_id,omitempty"`
	CollectedBy   *string         `json:"collected_by,omitempty"`
	PaymentMethod *string         `json:"payment_method,omitempty"`
	Memo          *string         `json:"memo,omitempty"`
	TransactionID *int64          `json:"transaction_id,omitempty"`
	SourceSystem  string          `json:"source_system"`
	ReceiptNumber *string         `json:"receipt_number,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type LedgerEntryFilter struct {
	Types  []string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusPosted  OutboxStatus = "posted"
)

// LedgerOutbox records a transaction whose ledger entry has not been
// confirmed yet. It is written in the same DB transaction as the Transaction.
type LedgerOutbox struct {
	ID            int64        `json:"id"`
	TransactionID int64        `json:"transaction_id"`
	Status        OutboxStatus `json:"status"`
	Attempts      int          `json:"attempts"`
	LastError     *string      `json:"last_error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	PostedAt      *time.Time   `json:"posted_at,omitempty"`
}

// BackfillSummary reports one run of the ledger backfill.
type BackfillSummary struct {
	Scanned int `json:"scanned"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

// DrainSummary reports one pass over pending outbox rows.
type DrainSummary struct {
	Pending int `json:"pending"`
	Posted  int `json:"posted"`
	Failed  int `json:"failed"`
}

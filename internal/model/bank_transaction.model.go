package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BankTransactionStatus string

const (
	BankStatusPending BankTransactionStatus = "PENDING"
	BankStatusMatched BankTransactionStatus = "MATCHED"
	BankStatusIgnored BankTransactionStatus = "IGNORED"
)

type BankTransactionType string

const (
	BankTypeDeposit    BankTransactionType = "DEPOSIT"
	BankTypeWithdrawal BankTransactionType = "WITHDRAWAL"
	BankTypeCheck      BankTransactionType = "CHECK"
	BankTypeZelle      BankTransactionType = "ZELLE"
	BankTypeACH        BankTransactionType = "ACH"
	BankTypeUnknown    BankTransactionType = "UNKNOWN"
)

// BankTransaction is one line of an imported bank statement.
type BankTransaction struct {
	ID              int64                 `json:"id"`
	TransactionHash string                `json:"transaction_hash"`
	Date            time.Time             `json:"date"`
	Amount          decimal.Decimal       `json:"amount"`
	Description     string                `json:"description"`
	Type            BankTransactionType   `json:"type"`
	Status          BankTransactionStatus `json:"status"`
	PayerName       *string               `json:"payer_name,omitempty"`
	ExternalRefID   *string               `json:"external_ref_id,omitempty"`
	CheckNumber     *string               `json:"check_number,omitempty"`
	Balance         *decimal.Decimal      `json:"balance,omitempty"`
	RawData         map[string]string     `json:"raw_data,omitempty"`
	MemberID        *int64                `json:"member_id,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func (b *BankTransaction) IsFinal() bool {
	return b.Status == BankStatusMatched || b.Status == BankStatusIgnored
}

type BankTransactionFilter struct {
	Statuses []BankTransactionStatus
	From     *time.Time
	To       *time.Time
	Limit    int // default 100
	Offset   int
}

// ImportSummary is returned by a statement upload.
type ImportSummary struct {
	BatchID               string `json:"batch_id"`
	FileName              string `json:"file_name,omitempty"`
	Parsed                int    `json:"parsed"`
	Created               int    `json:"created"`
	BalanceUpdated        int    `json:"balance_updated"`
	Skipped               int    `json:"skipped"`
	Malformed             int    `json:"malformed"`
	DuplicatesInFile      int    `json:"duplicates_in_file"`
	BalanceUpdateFailures int    `json:"balance_update_failures"`
	ArchivePath           string `json:"archive_path,omitempty"`
}

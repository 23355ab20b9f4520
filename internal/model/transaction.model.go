package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeMembershipDue    PaymentType = "membership_due"
	PaymentTypeTithe            PaymentType = "tithe"
	PaymentTypeDonation         PaymentType = "donation"
	PaymentTypeOffering         PaymentType = "offering"
	PaymentTypeVow              PaymentType = "vow"
	PaymentTypeBuildingFund     PaymentType = "building_fund"
	PaymentTypeEvent            PaymentType = "event"
	PaymentTypeReligiousItems   PaymentType = "religious_item_sales"
	PaymentTypeHungerFundraiser PaymentType = "tigray_hunger_fundraiser"
	PaymentTypeOther            PaymentType = "other"
)

var PaymentTypes = []PaymentType{
	PaymentTypeMembershipDue, PaymentTypeTithe, PaymentTypeDonation, PaymentTypeOffering,
	PaymentTypeVow, PaymentTypeBuildingFund, PaymentTypeEvent, PaymentTypeReligiousItems,
	PaymentTypeHungerFundraiser, PaymentTypeOther,
}

func (p PaymentType) Valid() bool {
	for _, t := range PaymentTypes {
		if t == p {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodCheck      PaymentMethod = "check"
	PaymentMethodZelle      PaymentMethod = "zelle"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodACH        PaymentMethod = "ach"
	PaymentMethodOther      PaymentMethod = "other"
)

var PaymentMethods = []PaymentMethod{
	PaymentMethodCash, PaymentMethodCheck, PaymentMethodZelle, PaymentMethodCreditCard,
	PaymentMethodDebitCard, PaymentMethodACH, PaymentMethodOther,
}

func (p PaymentMethod) Valid() bool {
	for _, m := range PaymentMethods {
		if m == p {
			return true
		}
	}
	return false
}

// RequiresReceipt is true for methods without an upstream reference.
func (p PaymentMethod) RequiresReceipt() bool {
	return p == PaymentMethodCash || p == PaymentMethodCheck
}

type TransactionStatus string

const (
	TransactionStatusSucceeded TransactionStatus = "succeeded"
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusSucceeded, TransactionStatusPending, TransactionStatusFailed, TransactionStatusRefunded:
		return true
	}
	return false
}

// Source systems recorded on transactions and ledger entries.
const (
	SourceManual  = "manual"
	SourceBankCSV = "bank_csv"
	SourceZelle   = "zelle"
	SourceStripe  = "stripe"
)

// Transaction is a confirmed payment attributable to a member.
type Transaction struct {
	ID                int64             `json:"id"`
	MemberID          *int64            `json:"member_id,omitempty"`
	CollectedBy       string            `json:"collected_by"`
	PaymentDate       time.Time         `json:"payment_date"`
	Amount            decimal.Decimal   `json:"amount"`
	PaymentType       PaymentType       `json:"payment_type"`
	PaymentMethod     PaymentMethod     `json:"payment_method"`
	Status            TransactionStatus `json:"status"`
	ReceiptNumber     *string           `json:"receipt_number,omitempty"`
	ExternalID        *string           `json:"external_id,omitempty"`
	DonationID        *int64            `json:"donation_id,omitempty"`
	ForYear           *int              `json:"for_year,omitempty"`
	Note              *string           `json:"note,omitempty"`
	SourceSystem      string            `json:"source_system"`
	BankTransactionID *int64            `json:"bank_transaction_id,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// AccrualYear is the dues year the payment counts toward.
func (t *Transaction) AccrualYear() int {
	if t.ForYear != nil {
		return *t.ForYear
	}
	return t.PaymentDate.Year()
}

// TransactionCreateRequest is the input for recording a payment.
type TransactionCreateRequest struct {
	MemberID          *int64            `json:"member_id"`
	CollectedBy       string            `json:"collected_by"`
	PaymentDate       time.Time         `json:"payment_date"`
	Amount            decimal.Decimal   `json:"amount"`
	PaymentType       PaymentType       `json:"payment_type"`
	PaymentMethod     PaymentMethod     `json:"payment_method"`
	Status            TransactionStatus `json:"status"`
	ReceiptNumber     *string           `json:"receipt_number"`
	ExternalID        *string           `json:"external_id"`
	DonationID        *int64            `json:"donation_id"`
	ForYear           *int              `json:"for_year"`
	Note              *string           `json:"note"`
	SourceSystem      string            `json:"source_system"`
	BankTransactionID *int64            `json:"-"`
}

func (p TransactionCreateRequest) Validate() error {
	if !p.Amount.IsPositive() {
		return NewValidationError("amount", "must be greater than zero")
	}
	if p.PaymentDate.IsZero() {
		return NewValidationError("payment_date", "is required")
	}
	if !p.PaymentType.Valid() {
		return NewValidationError("payment_type", "invalid payment type "+string(p.PaymentType))
	}
	if !p.PaymentMethod.Valid() {
		return NewValidationError("payment_method", "invalid payment method "+string(p.PaymentMethod))
	}
	if p.PaymentMethod.RequiresReceipt() && (p.ReceiptNumber == nil || strings.TrimSpace(*p.ReceiptNumber) == "") {
		return NewValidationError("receipt_number", "is required for cash and check payments")
	}
	if strings.TrimSpace(p.CollectedBy) == "" {
		return NewValidationError("collected_by", "is required")
	}
	if p.Status != "" && !p.Status.Valid() {
		return NewValidationError("status", "invalid status "+string(p.Status))
	}
	if p.ForYear != nil && (*p.ForYear < 1900 || *p.ForYear > 2200) {
		return NewValidationError("for_year", "out of range")
	}
	if p.ExternalID != nil && strings.TrimSpace(*p.ExternalID) == "" {
		return NewValidationError("external_id", "must not be blank")
	}
	return nil
}

// ToTransaction applies defaults and returns the row to persist.
func (p TransactionCreateRequest) ToTransaction() *Transaction {
	status := p.Status
	if status == "" {
		status = TransactionStatusSucceeded
	}
	source := p.SourceSystem
	if source == "" {
		source = SourceManual
	}
	return &Transaction{
		MemberID:          p.MemberID,
		CollectedBy:       strings.TrimSpace(p.CollectedBy),
		PaymentDate:       p.PaymentDate,
		Amount:            p.Amount.Round(2),
		PaymentType:       p.PaymentType,
		PaymentMethod:     p.PaymentMethod,
		Status:            status,
		ReceiptNumber:     p.ReceiptNumber,
		ExternalID:        p.ExternalID,
		DonationID:        p.DonationID,
		ForYear:           p.ForYear,
		Note:              p.Note,
		SourceSystem:      source,
		BankTransactionID: p.BankTransactionID,
	}
}

// TransactionFilter controls List queries.
type TransactionFilter struct {
	MemberIDs    []int64
	PaymentTypes []PaymentType
	Statuses     []TransactionStatus
	From         *time.Time // payment_date >=
	To           *time.Time // payment_date <
	Limit        int
	Offset       int
}

// TransactionResult is a recorded payment with its ledger posting. A nil
// LedgerEntry with LedgerPending set means posting is left to the outbox.
type TransactionResult struct {
	Transaction   *Transaction `json:"transaction"`
	LedgerEntry   *LedgerEntry `json:"ledger_entry,omitempty"`
	LedgerPending bool         `json:"ledger_pending"`
}

package repository

import (
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type TransactionEntity struct {
	ID                int64           `db:"id"                  gorm:"primaryKey;autoIncrement;column:id"`
	MemberID          *int64          `db:"member_id"           gorm:"column:member_id;index"`
	CollectedBy       string          `db:"collected_by"        gorm:"column:collected_by;not null"`
	PaymentDate       time.Time       `db:"payment_date"        gorm:"column:payment_date;type:date;not null;index"`
	Amount            decimal.Decimal `db:"amount"              gorm:"column:amount;type:numeric(14,2);not null"`
	PaymentType       string          `db:"payment_type"        gorm:"column:payment_type;size:40;not null"`
	PaymentMethod     string          `db:"payment_method"      gorm:"column:payment_method;size:20;not null"`
	Status            string          `db:"status"              gorm:"column:status;size:20;not null;default:succeeded"`
	ReceiptNumber     *string         `db:"receipt_number"      gorm:"column:receipt_number"`
	ExternalID        *string         `db:"external_id"         gorm:"column:external_id;uniqueIndex"`
	DonationID        *int64          `db:"donation_id"         gorm:"column:donation_id"`
	ForYear           *int            `db:"for_year"            gorm:"column:for_year"`
	Note              *string         `db:"note"                gorm:"column:note"`
	SourceSystem      string          `db:"source_system"       gorm:"column:source_system;size:20;not null;default:manual"`
	BankTransactionID *int64          `db:"bank_transaction_id" gorm:"column:bank_transaction_id;index"`
	CreatedAt         time.Time       `db:"created_at"          gorm:"column:created_at;autoCreateTime"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:                m.ID,
		MemberID:          m.MemberID,
		CollectedBy:       m.CollectedBy,
		PaymentDate:       m.PaymentDate,
		Amount:            m.Amount,
		PaymentType:       string(m.PaymentType),
		PaymentMethod:     string(m.PaymentMethod),
		Status:            string(m.Status),
		ReceiptNumber:     m.ReceiptNumber,
		ExternalID:        m.ExternalID,
		DonationID:        m.DonationID,
		ForYear:           m.ForYear,
		Note:              m.Note,
		SourceSystem:      m.SourceSystem,
		BankTransactionID: m.BankTransactionID,
		CreatedAt:         m.CreatedAt,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:                e.ID,
		MemberID:          e.MemberID,
		CollectedBy:       e.CollectedBy,
		PaymentDate:       e.PaymentDate,
		Amount:            e.Amount,
		PaymentType:       model.PaymentType(e.PaymentType),
		PaymentMethod:     model.PaymentMethod(e.PaymentMethod),
		Status:            model.TransactionStatus(e.Status),
		ReceiptNumber:     e.ReceiptNumber,
		ExternalID:        e.ExternalID,
		DonationID:        e.DonationID,
		ForYear:           e.ForYear,
		Note:              e.Note,
		SourceSystem:      e.SourceSystem,
		BankTransactionID: e.BankTransactionID,
		CreatedAt:         e.CreatedAt,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}

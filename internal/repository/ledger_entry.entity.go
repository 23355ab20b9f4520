package repository

import (
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type LedgerEntryEntity struct {
	ID            int64           `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	Type          string          `db:"type"           gorm:"column:type;size:40;not null;index"`
	Category      string          `db:"category"       gorm:"column:category;size:20;not null"`
	Amount        decimal.Decimal `db:"amount"         gorm:"column:amount;type:numeric(14,2);not null"`
	EntryDate     time.Time       `db:"entry_date"     gorm:"column:entry_date;type:date;not null;index"`
	MemberID      *int64          `db:"member_id"      gorm:"column:member_id;index"`
	CollectedBy   *string         `db:"collected_by"   gorm:"column:collected_by"`
	PaymentMethod *string         `db:"payment_method" gorm:"column:payment_method"`
	Memo          *string         `db:"memo"           gorm:"column:memo"`
	TransactionID *int64          `db:"transaction_id" gorm:"column:transaction_id;uniqueIndex"`
	SourceSystem  string          `db:"source_system"  gorm:"column:source_system;size:20;not null"`
	ReceiptNumber *string         `db:"receipt_number" gorm:"column:receipt_number"`
	CreatedAt     time.Time       `db:"created_at"     gorm:"column:created_at;autoCreateTime"`
}

func (LedgerEntryEntity) TableName() string {
	return "ledger_entries"
}

func toLedgerEntryEntity(m *model.LedgerEntry) *LedgerEntryEntity {
	if m == nil {
		return nil
	}
	return &LedgerEntryEntity{
		ID:            m.ID,
		Type:          m.Type,
		Category:      m.Category,
		Amount:        m.Amount,
		EntryDate:     m.EntryDate,
		MemberID:      m.MemberID,
		CollectedBy:   m.CollectedBy,
		PaymentMethod: m.PaymentMethod,
		Memo:          m.Memo,
		TransactionID: m.TransactionID,
		SourceSystem:  m.SourceSystem,
		ReceiptNumber: m.ReceiptNumber,
		CreatedAt:     m.CreatedAt,
	}
}

func toLedgerEntryModel(e *LedgerEntryEntity) *model.LedgerEntry {
	if e == nil {
		return nil
	}
	return &model.LedgerEntry{
		ID:            e.ID,
		Type:          e.Type,
		Category:      e.Category,
		Amount:        e.Amount,
		EntryDate:     e.EntryDate,
		MemberID:      e.MemberID,
		CollectedBy:   e.CollectedBy,
		PaymentMethod: e.PaymentMethod,
		Memo:          e.Memo,
		TransactionID: e.TransactionID,
		SourceSystem:  e.SourceSystem,
		ReceiptNumber: e.ReceiptNumber,
		CreatedAt:     e.CreatedAt,
	}
}

func toLedgerEntryModels(entities []*LedgerEntryEntity) []*model.LedgerEntry {
	if entities == nil {
		return nil
	}
	models := make([]*model.LedgerEntry, len(entities))
	for i, e := range entities {
		models[i] = toLedgerEntryModel(e)
	}
	return models
}

type LedgerOutboxEntity struct {
	ID            int64      `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	TransactionID int64      `db:"transaction_id" gorm:"column:transaction_id;not null;uniqueIndex"`
	Status        string     `db:"status"         gorm:"column:status;size:20;not null;default:pending;index"`
	Attempts      int        `db:"attempts"       gorm:"column:attempts;not null;default:0"`
	LastError     *string    `db:"last_error"     gorm:"column:last_error"`
	CreatedAt     time.Time  `db:"created_at"     gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `db:"updated_at"     gorm:"column:updated_at;autoUpdateTime"`
	PostedAt      *time.Time `db:"posted_at"      gorm:"column:posted_at"`
}

func (LedgerOutboxEntity) TableName() string {
	return "ledger_outbox"
}

func toLedgerOutboxModel(e *LedgerOutboxEntity) *model.LedgerOutbox {
	if e == nil {
		return nil
	}
	return &model.LedgerOutbox{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		Status:        model.OutboxStatus(e.Status),
		Attempts:      e.Attempts,
		LastError:     e.LastError,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
		PostedAt:      e.PostedAt,
	}
}

package repository

import (
	"encoding/json"
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type BankTransactionEntity struct {
	ID              int64            `db:"id"               gorm:"primaryKey;autoIncrement;column:id"`
	TransactionHash string           `db:"transaction_hash" gorm:"column:transaction_hash;size:64;not null;uniqueIndex"`
	Date            time.Time        `db:"date"             gorm:"column:date;type:date;not null;index"`
	Amount          decimal.Decimal  `db:"amount"           gorm:"column:amount;type:numeric(14,2);not null"`
	Description     string           `db:"description"      gorm:"column:description;not null"`
	Type            string           `db:"type"             gorm:"column:type;size:20;not null"`
	Status          string           `db:"status"           gorm:"column:status;size:20;not null;default:PENDING;index"`
	PayerName       *string          `db:"payer_name"       gorm:"column:payer_name"`
	ExternalRefID   *string          `db:"external_ref_id"  gorm:"column:external_ref_id"`
	CheckNumber     *string          `db:"check_number"     gorm:"column:check_number"`
	Balance         *decimal.Decimal `db:"balance"          gorm:"column:balance;type:numeric(14,2)"`
	RawData         datatypes.JSON   `db:"raw_data"         gorm:"column:raw_data"`
	MemberID        *int64           `db:"member_id"        gorm:"column:member_id;index"`
	CreatedAt       time.Time        `db:"created_at"       gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `db:"updated_at"       gorm:"column:updated_at;autoUpdateTime"`
}

func (BankTransactionEntity) TableName() string {
	return "bank_transactions"
}

func toBankTransactionEntity(m *model.BankTransaction) *BankTransactionEntity {
	if m == nil {
		return nil
	}
	var raw datatypes.JSON
	if len(m.RawData) > 0 {
		raw, _ = json.Marshal(m.RawData)
	}
	status := m.Status
	if status == "" {
		status = model.BankStatusPending
	}
	return &BankTransactionEntity{
		ID:              m.ID,
		TransactionHash: m.TransactionHash,
		Date:            m.Date,
		Amount:          m.Amount,
		Description:     m.Description,
		Type:            string(m.Type),
		Status:          string(status),
		PayerName:       m.PayerName,
		ExternalRefID:   m.ExternalRefID,
		CheckNumber:     m.CheckNumber,
		Balance:         m.Balance,
		RawData:         raw,
		MemberID:        m.MemberID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toBankTransactionModel(e *BankTransactionEntity) *model.BankTransaction {
	if e == nil {
		return nil
	}
	var raw map[string]string
	if len(e.RawData) > 0 {
		_ = json.Unmarshal(e.RawData, &raw)
	}
	return &model.BankTransaction{
		ID:              e.ID,
		TransactionHash: e.TransactionHash,
		Date:            e.Date,
		Amount:          e.Amount,
		Description:     e.Description,
		Type:            model.BankTransactionType(e.Type),
		Status:          model.BankTransactionStatus(e.Status),
		PayerName:       e.PayerName,
		ExternalRefID:   e.ExternalRefID,
		CheckNumber:     e.CheckNumber,
		Balance:         e.Balance,
		RawData:         raw,
		MemberID:        e.MemberID,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toBankTransactionModels(entities []*BankTransactionEntity) []*model.BankTransaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.BankTransaction, len(entities))
	for i, e := range entities {
		models[i] = toBankTransactionModel(e)
	}
	return models
}

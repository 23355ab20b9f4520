package repository

import (
	"context"
	"errors"
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

// Create inserts a transaction. A duplicate external id is reported as
// model.ErrConflict.
func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(txn)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		if pg.IsDuplicateKey(err) {
			ext := ""
			if txn.ExternalID != nil {
				ext = *txn.ExternalID
			}
			return nil, model.Conflictf("transaction with external id %q already recorded", ext)
		}
		return nil, err
	}

	return toTransactionModel(entity), nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	var e TransactionEntity
	err := r.Read(ctx).WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.NotFoundf("transaction %d", id)
	}
	if err != nil {
		return nil, err
	}
	return toTransactionModel(&e), nil
}

func (r *TransactionRepository) GetByExternalID(ctx context.Context, externalID string) (*model.Transaction, error) {
	var e TransactionEntity
	err := r.Read(ctx).WithContext(ctx).First(&e, "external_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.NotFoundf("transaction with external id %q", externalID)
	}
	if err != nil {
		return nil, err
	}
	return toTransactionModel(&e), nil
}

func (r *TransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	q := r.filtered(ctx, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Limit, f.Offset, 50)
	var entities []*TransactionEntity
	if err := q.Order("payment_date DESC, id DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toTransactionModels(entities), total, nil
}

// ListAll returns every transaction matching the filter, ignoring paging.
func (r *TransactionRepository) ListAll(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, error) {
	var entities []*TransactionEntity
	if err := r.filtered(ctx, f).Order("payment_date ASC, id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

func (r *TransactionRepository) filtered(ctx context.Context, f model.TransactionFilter) *gorm.DB {
	q := r.Read(ctx).WithContext(ctx).Model(&TransactionEntity{})
	if len(f.MemberIDs) > 0 {
		q = q.Where("member_id IN ?", f.MemberIDs)
	}
	if len(f.PaymentTypes) > 0 {
		q = q.Where("payment_type IN ?", f.PaymentTypes)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.From != nil {
		q = q.Where("payment_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("payment_date < ?", *f.To)
	}
	return q
}

// FindPotentialDuplicates lists transactions with the same amount recorded
// within windowDays of date that are not already linked to bankTxID.
func (r *TransactionRepository) FindPotentialDuplicates(ctx context.Context, amount decimal.Decimal, date time.Time, windowDays int, bankTxID int64) ([]*model.Transaction, error) {
	from := date.AddDate(0, 0, -windowDays)
	to := date.AddDate(0, 0, windowDays)

	var entities []*TransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("amount = ?", amount.Abs()).
		Where("payment_date >= ? AND payment_date <= ?", from, to).
		Where("bank_transaction_id IS NULL OR bank_transaction_id <> ?", bankTxID).
		Order("payment_date ASC, id ASC").
		Limit(20).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

// LinkBankTransaction associates an existing transaction with a bank row. It
// reports false when the transaction is already linked to a bank row.
func (r *TransactionRepository) LinkBankTransaction(ctx context.Context, txnID, bankTxID int64) (bool, error) {
	res := r.Write(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("id = ? AND bank_transaction_id IS NULL", txnID).
		Update("bank_transaction_id", bankTxID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListMissingLedger pages through succeeded transactions without a ledger
// entry, by ascending id after afterID.
func (r *TransactionRepository) ListMissingLedger(ctx context.Context, afterID int64, limit int) ([]*model.Transaction, error) {
	var entities []*TransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Table("transactions AS t").
		Select("t.*").
		Joins("LEFT JOIN ledger_entries AS le ON le.transaction_id = t.id").
		Where("le.id IS NULL").
		Where("t.status = ?", string(model.TransactionStatusSucceeded)).
		Where("t.id > ?", afterID).
		Order("t.id ASC").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

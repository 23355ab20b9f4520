package repository

import (
	"context"
	"errors"
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LedgerRepository struct {
	*pg.DB
}

func NewLedgerRepository(db *pg.DB) *LedgerRepository {
	return &LedgerRepository{
		db,
	}
}

// CreateEntry inserts a ledger entry. For an entry tied to a transaction that
// already has one, the existing entry is returned with created=false.
func (r *LedgerRepository) CreateEntry(ctx context.Context, entry *model.LedgerEntry) (*model.LedgerEntry, bool, error) {
	e := toLedgerEntryEntity(entry)
	q := r.Write(ctx).WithContext(ctx)
	if e.TransactionID != nil {
		q = q.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			DoNothing: true,
		})
	}
	res := q.Create(e)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 && e.TransactionID != nil {
		existing, err := r.GetByTransactionID(ctx, *e.TransactionID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return toLedgerEntryModel(e), true, nil
}

func (r *LedgerRepository) GetByTransactionID(ctx context.Context, txnID int64) (*model.LedgerEntry, error) {
	var e LedgerEntryEntity
	err := r.Write(ctx).WithContext(ctx).First(&e, "transaction_id = ?", txnID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.NotFoundf("ledger entry for transaction %d", txnID)
	}
	if err != nil {
		return nil, err
	}
	return toLedgerEntryModel(&e), nil
}

func (r *LedgerRepository) List(ctx context.Context, f model.LedgerEntryFilter) ([]*model.LedgerEntry, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&LedgerEntryEntity{})
	if len(f.Types) > 0 {
		q = q.Where("type IN ?", f.Types)
	}
	if f.From != nil {
		q = q.Where("entry_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("entry_date < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Limit, f.Offset, 100)
	var entities []*LedgerEntryEntity
	if err := q.Order("entry_date DESC, id DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toLedgerEntryModels(entities), total, nil
}

func (r *LedgerRepository) CountEntries(ctx context.Context) (int64, error) {
	var n int64
	err := r.Read(ctx).WithContext(ctx).Model(&LedgerEntryEntity{}).Count(&n).Error
	return n, err
}

// EnqueueOutbox records that txnID still needs a ledger entry. Called inside
// the DB transaction that creates the transaction.
func (r *LedgerRepository) EnqueueOutbox(ctx context.Context, txnID int64) error {
	return r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			DoNothing: true,
		}).
		Create(&LedgerOutboxEntity{TransactionID: txnID, Status: string(model.OutboxStatusPending)}).Error
}

func (r *LedgerRepository) MarkOutboxPosted(ctx context.Context, txnID int64) error {
	now := time.Now().UTC()
	return r.Write(ctx).WithContext(ctx).
		Model(&LedgerOutboxEntity{}).
		Where("transaction_id = ?", txnID).
		Updates(map[string]any{
			"status":     string(model.OutboxStatusPosted),
			"posted_at":  now,
			"updated_at": now,
			"last_error": nil,
		}).Error
}

func (r *LedgerRepository) RecordOutboxFailure(ctx context.Context, txnID int64, cause string) error {
	return r.Write(ctx).WithContext(ctx).
		Model(&LedgerOutboxEntity{}).
		Where("transaction_id = ? AND status = ?", txnID, string(model.OutboxStatusPending)).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": cause,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *LedgerRepository) ListPendingOutbox(ctx context.Context, limit int) ([]*model.LedgerOutbox, error) {
	if limit <= 0 {
		limit = 100
	}
	var entities []*LedgerOutboxEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("status = ?", string(model.OutboxStatusPending)).
		Order("id ASC").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	out := make([]*model.LedgerOutbox, len(entities))
	for i, e := range entities {
		out[i] = toLedgerOutboxModel(e)
	}
	return out, nil
}

func (r *LedgerRepository) GetOutbox(ctx context.Context, txnID int64) (*model.LedgerOutbox, error) {
	var e LedgerOutboxEntity
	err := r.Read(ctx).WithContext(ctx).First(&e, "transaction_id = ?", txnID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.NotFoundf("outbox row for transaction %d", txnID)
	}
	if err != nil {
		return nil, err
	}
	return toLedgerOutboxModel(&e), nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const hashLookupChunk = 500

type BankTransactionRepository struct {
	*pg.DB
}

func NewBankTransactionRepository(db *pg.DB) *BankTransactionRepository {
	return &BankTransactionRepository{
		db,
	}
}

// BalanceUpdate fills the balance of a stored row that was imported without one.
type BalanceUpdate struct {
	Hash    string
	Balance decimal.Decimal
}

// FindByHashes returns the stored rows for the given hashes keyed by hash.
func (r *BankTransactionRepository) FindByHashes(ctx context.Context, hashes []string) (map[string]*model.BankTransaction, error) {
	out := make(map[string]*model.BankTransaction, len(hashes))
	for start := 0; start < len(hashes); start += hashLookupChunk {
		end := min(start+hashLookupChunk, len(hashes))
		var entities []*BankTransactionEntity
		err := r.Read(ctx).WithContext(ctx).
			Where("transaction_hash IN ?", hashes[start:end]).
			Find(&entities).Error
		if err != nil {
			return nil, err
		}
		for _, e := range entities {
			out[e.TransactionHash] = toBankTransactionModel(e)
		}
	}
	return out, nil
}

// CreateBatch inserts all rows in one DB transaction. Any invalid row aborts
// the whole insert. Rows whose hash already exists are left untouched and not
// counted.
func (r *BankTransactionRepository) CreateBatch(ctx context.Context, rows []*model.BankTransaction) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	entities := make([]*BankTransactionEntity, 0, len(rows))
	for i, row := range rows {
		if err := validateBankRow(i, row); err != nil {
			return 0, err
		}
		entities = append(entities, toBankTransactionEntity(row))
	}

	var created int64
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		res := r.Write(ctx).WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "transaction_hash"}},
				DoNothing: true,
			}).
			CreateInBatches(entities, defaultInsertBatchSize)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	for i, e := range entities {
		rows[i].ID = e.ID
	}
	return created, nil
}

func validateBankRow(i int, row *model.BankTransaction) error {
	switch {
	case row == nil:
		return model.NewValidationError(fmt.Sprintf("rows[%d]", i), "is empty")
	case len(row.TransactionHash) == 0:
		return model.NewValidationError(fmt.Sprintf("rows[%d].transaction_hash", i), "is required")
	case row.Date.IsZero():
		return model.NewValidationError(fmt.Sprintf("rows[%d].date", i), "is required")
	case row.Description == "":
		return model.NewValidationError(fmt.Sprintf("rows[%d].description", i), "is required")
	}
	return nil
}

// BackfillBalances sets balances on rows that still have none. A balance that
// is already present is never overwritten.
func (r *BankTransactionRepository) BackfillBalances(ctx context.Context, updates []BalanceUpdate) (int64, error) {
	var updated int64
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, u := range updates {
			res := r.Write(ctx).WithContext(ctx).
				Model(&BankTransactionEntity{}).
				Where("transaction_hash = ? AND balance IS NULL", u.Hash).
				Updates(map[string]any{"balance": u.Balance, "updated_at": time.Now().UTC()})
			if res.Error != nil {
				return res.Error
			}
			updated += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func (r *BankTransactionRepository) GetByID(ctx context.Context, id int64) (*model.BankTransaction, error) {
	var e BankTransactionEntity
	err := r.Read(ctx).WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.NotFoundf("bank transaction %d", id)
	}
	if err != nil {
		return nil, err
	}
	return toBankTransactionModel(&e), nil
}

func (r *BankTransactionRepository) List(ctx context.Context, f model.BankTransactionFilter) ([]*model.BankTransaction, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&BankTransactionEntity{})

	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Limit, f.Offset, 100)
	var entities []*BankTransactionEntity
	if err := q.Order("date DESC, id DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toBankTransactionModels(entities), total, nil
}

// MarkMatched moves a PENDING row to MATCHED. It reports false when the row
// was not pending anymore.
func (r *BankTransactionRepository) MarkMatched(ctx context.Context, id int64, memberID *int64) (bool, error) {
	return r.transition(ctx, id, model.BankStatusMatched, map[string]any{"member_id": memberID})
}

func (r *BankTransactionRepository) MarkIgnored(ctx context.Context, id int64) (bool, error) {
	return r.transition(ctx, id, model.BankStatusIgnored, nil)
}

func (r *BankTransactionRepository) transition(ctx context.Context, id int64, to model.BankTransactionStatus, extra map[string]any) (bool, error) {
	values := map[string]any{"status": string(to), "updated_at": time.Now().UTC()}
	for k, v := range extra {
		values[k] = v
	}
	res := r.Write(ctx).WithContext(ctx).
		Model(&BankTransactionEntity{}).
		Where("id = ? AND status = ?", id, string(model.BankStatusPending)).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

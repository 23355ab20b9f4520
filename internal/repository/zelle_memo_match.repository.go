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

type ZelleMemoMatchRepository struct {
	*pg.DB
}

func NewZelleMemoMatchRepository(db *pg.DB) *ZelleMemoMatchRepository {
	return &ZelleMemoMatchRepository{
		db,
	}
}

func (r *ZelleMemoMatchRepository) FindByMemo(ctx context.Context, memo string) (*model.ZelleMemoMatch, error) {
	var e ZelleMemoMatchEntity
	err := r.Read(ctx).WithContext(ctx).First(&e, "memo = ?", memo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.NotFoundf("memo %q", memo)
	}
	if err != nil {
		return nil, err
	}
	return toZelleMemoMatchModel(&e), nil
}

// Upsert stores the member for a memo, replacing any previous choice.
func (r *ZelleMemoMatchRepository) Upsert(ctx context.Context, m *model.ZelleMemoMatch) error {
	e := toZelleMemoMatchEntity(m)
	e.UpdatedAt = time.Now().UTC()
	return r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "memo"}},
			DoUpdates: clause.AssignmentColumns([]string{"member_id", "first_name", "last_name", "updated_at"}),
		}).
		Create(e).Error
}

func (r *ZelleMemoMatchRepository) CountByMemo(ctx context.Context, memo string) (int64, error) {
	var n int64
	err := r.Read(ctx).WithContext(ctx).Model(&ZelleMemoMatchEntity{}).Where("memo = ?", memo).Count(&n).Error
	return n, err
}

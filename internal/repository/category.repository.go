package repository

import (
	"context"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/pkg/pg"
	"gorm.io/gorm/clause"
)

type CategoryRepository struct {
	*pg.DB
}

func NewCategoryRepository(db *pg.DB) *CategoryRepository {
	return &CategoryRepository{
		db,
	}
}

func (r *CategoryRepository) ListIncome(ctx context.Context) ([]model.IncomeCategory, error) {
	var entities []*IncomeCategoryEntity
	if err := r.Read(ctx).WithContext(ctx).Where("active = ?", true).Order("gl_code ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	out := make([]model.IncomeCategory, len(entities))
	for i, e := range entities {
		out[i] = toIncomeCategoryModel(e)
	}
	return out, nil
}

func (r *CategoryRepository) ListExpense(ctx context.Context) ([]model.ExpenseCategory, error) {
	var entities []*ExpenseCategoryEntity
	if err := r.Read(ctx).WithContext(ctx).Where("active = ?", true).Order("gl_code ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	out := make([]model.ExpenseCategory, len(entities))
	for i, e := range entities {
		out[i] = toExpenseCategoryModel(e)
	}
	return out, nil
}

// Seed inserts the given categories, leaving existing GL codes untouched.
func (r *CategoryRepository) Seed(ctx context.Context, income []model.IncomeCategory, expense []model.ExpenseCategory) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "gl_code"}}, DoNothing: true}
		if len(income) > 0 {
			rows := make([]*IncomeCategoryEntity, len(income))
			for i, c := range income {
				rows[i] = &IncomeCategoryEntity{GLCode: c.GLCode, Name: c.Name, PaymentType: c.PaymentType, Active: c.Active}
			}
			if err := r.Write(ctx).WithContext(ctx).Clauses(onConflict).Create(rows).Error; err != nil {
				return err
			}
		}
		if len(expense) > 0 {
			rows := make([]*ExpenseCategoryEntity, len(expense))
			for i, c := range expense {
				rows[i] = &ExpenseCategoryEntity{GLCode: c.GLCode, Name: c.Name, Active: c.Active}
			}
			if err := r.Write(ctx).WithContext(ctx).Clauses(onConflict).Create(rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

package repository

import "github.com/parishworks/parish-ledger/internal/model"

type IncomeCategoryEntity struct {
	ID          int64  `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	GLCode      string `db:"gl_code"      gorm:"column:gl_code;size:20;not null;uniqueIndex"`
	Name        string `db:"name"         gorm:"column:name;not null"`
	PaymentType string `db:"payment_type" gorm:"column:payment_type;size:40"`
	Active      bool   `db:"active"       gorm:"column:active;not null"`
}

func (IncomeCategoryEntity) TableName() string {
	return "income_categories"
}

type ExpenseCategoryEntity struct {
	ID     int64  `db:"id"      gorm:"primaryKey;autoIncrement;column:id"`
	GLCode string `db:"gl_code" gorm:"column:gl_code;size:20;not null;uniqueIndex"`
	Name   string `db:"name"    gorm:"column:name;not null"`
	Active bool   `db:"active"  gorm:"column:active;not null"`
}

func (ExpenseCategoryEntity) TableName() string {
	return "expense_categories"
}

func toIncomeCategoryModel(e *IncomeCategoryEntity) model.IncomeCategory {
	return model.IncomeCategory{ID: e.ID, GLCode: e.GLCode, Name: e.Name, PaymentType: e.PaymentType, Active: e.Active}
}

func toExpenseCategoryModel(e *ExpenseCategoryEntity) model.ExpenseCategory {
	return model.ExpenseCategory{ID: e.ID, GLCode: e.GLCode, Name: e.Name, Active: e.Active}
}

package repository

import (
	"testing"
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *pg.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Entities()...))
	return pg.New(db, db)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

func bankRow(hash string, date time.Time, amount string) *model.BankTransaction {
	return &model.BankTransaction{
		TransactionHash: hash,
		Date:            date,
		Amount:          dec(amount),
		Description:     "Zelle From Mary Smith " + hash,
		Type:            model.BankTypeZelle,
	}
}

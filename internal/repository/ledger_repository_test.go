package repository

import (
	"context"
	"testing"
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLedgerRepository_CreateEntryIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	entry := &model.LedgerEntry{
		Type:          "membership_due",
		Category:      "INC001",
		Amount:        dec("100.00"),
		EntryDate:     day(2025, 1, 5),
		MemberID:      ptr(int64(3)),
		TransactionID: ptr(int64(11)),
		SourceSystem:  model.SourceBankCSV,
	}
	first, created, err := repo.CreateEntry(ctx, entry)
	require.NoError(t, err)
	assert.True(t, created)

	again := *entry
	again.Amount = dec("999.00")
	second, created, err := repo.CreateEntry(ctx, &again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, dec("100").Equal(second.Amount))

	n, err := repo.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLedgerRepository_ExpenseEntriesWithoutTransaction(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, created, err := repo.CreateEntry(ctx, &model.LedgerEntry{
			Type: model.LedgerTypeExpense, Category: "EXP006", Amount: dec("12.00"),
			EntryDate: day(2025, 5, 1), SourceSystem: model.SourceBankCSV,
		})
		require.NoError(t, err)
		assert.True(t, created)
	}

	items, total, err := repo.List(ctx, model.LedgerEntryFilter{Types: []string{model.LedgerTypeExpense}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)
}

func TestLedgerRepository_Outbox(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.EnqueueOutbox(ctx, 1))
	require.NoError(t, repo.EnqueueOutbox(ctx, 1))
	require.NoError(t, repo.EnqueueOutbox(ctx, 2))

	pending, err := repo.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, repo.RecordOutboxFailure(ctx, 2, "db down"))
	require.NoError(t, repo.RecordOutboxFailure(ctx, 2, "db still down"))
	row, err := repo.GetOutbox(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, row.Attempts)
	require.NotNil(t, row.LastError)
	assert.Equal(t, "db still down", *row.LastError)

	require.NoError(t, repo.MarkOutboxPosted(ctx, 1))
	row, err = repo.GetOutbox(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxStatusPosted, row.Status)
	assert.NotNil(t, row.PostedAt)

	pending, err = repo.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(2), pending[0].TransactionID)

	_, err = repo.GetOutbox(ctx, 77)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

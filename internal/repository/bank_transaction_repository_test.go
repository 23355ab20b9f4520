package repository

import (
	"context"
	"testing"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBankTransactionRepository_CreateBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBankTransactionRepository(db)
	ctx := context.Background()

	t.Run("inserts rows and skips existing hashes", func(t *testing.T) {
		rows := []*model.BankTransaction{
			bankRow("h1", day(2025, 1, 5), "150.00"),
			bankRow("h2", day(2025, 1, 6), "75.50"),
		}
		rows[0].RawData = map[string]string{"Description": "Zelle From Mary Smith"}

		created, err := repo.CreateBatch(ctx, rows)
		require.NoError(t, err)
		assert.Equal(t, int64(2), created)
		assert.NotZero(t, rows[0].ID)

		created, err = repo.CreateBatch(ctx, []*model.BankTransaction{
			bankRow("h2", day(2025, 1, 6), "75.50"),
			bankRow("h3", day(2025, 1, 7), "20.00"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), created)

		got, err := repo.GetByID(ctx, rows[0].ID)
		require.NoError(t, err)
		assert.Equal(t, model.BankStatusPending, got.Status)
		assert.True(t, dec("150").Equal(got.Amount))
		assert.Equal(t, "Zelle From Mary Smith", got.RawData["Description"])
	})

	t.Run("invalid row aborts the batch", func(t *testing.T) {
		bad := bankRow("", day(2025, 2, 1), "10.00")
		_, err := repo.CreateBatch(ctx, []*model.BankTransaction{bankRow("h9", day(2025, 2, 1), "1.00"), bad})
		v, ok := model.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, "rows[1].transaction_hash", v.Field)

		found, err := repo.FindByHashes(ctx, []string{"h9"})
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestBankTransactionRepository_BackfillBalances(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBankTransactionRepository(db)
	ctx := context.Background()

	withBalance := bankRow("b1", day(2025, 3, 1), "10.00")
	withBalance.Balance = ptr(dec("500.00"))
	_, err := repo.CreateBatch(ctx, []*model.BankTransaction{withBalance, bankRow("b2", day(2025, 3, 2), "20.00")})
	require.NoError(t, err)

	updated, err := repo.BackfillBalances(ctx, []BalanceUpdate{
		{Hash: "b1", Balance: dec("999.00")},
		{Hash: "b2", Balance: dec("520.00")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	found, err := repo.FindByHashes(ctx, []string{"b1", "b2"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.True(t, dec("500").Equal(*found["b1"].Balance))
	assert.True(t, dec("520").Equal(*found["b2"].Balance))
}

func TestBankTransactionRepository_Transitions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBankTransactionRepository(db)
	ctx := context.Background()

	rows := []*model.BankTransaction{bankRow("t1", day(2025, 4, 1), "50.00"), bankRow("t2", day(2025, 4, 2), "-12.00")}
	_, err := repo.CreateBatch(ctx, rows)
	require.NoError(t, err)

	ok, err := repo.MarkMatched(ctx, rows[0].ID, ptr(int64(7)))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkMatched(ctx, rows[0].ID, ptr(int64(8)))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.MarkIgnored(ctx, rows[1].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.BankStatusMatched, got.Status)
	require.NotNil(t, got.MemberID)
	assert.Equal(t, int64(7), *got.MemberID)

	pending, total, err := repo.List(ctx, model.BankTransactionFilter{Statuses: []model.BankTransactionStatus{model.BankStatusPending}})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, pending)

	all, total, err := repo.List(ctx, model.BankTransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, rows[1].ID, all[0].ID)

	_, err = repo.GetByID(ctx, 404)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestZelleMemoMatchRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewZelleMemoMatchRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.ZelleMemoMatch{MemberID: 1, FirstName: "Mary", LastName: "Smith", Memo: "MARY SMITH"}))
	require.NoError(t, repo.Upsert(ctx, &model.ZelleMemoMatch{MemberID: 2, FirstName: "John", LastName: "Smith", Memo: "MARY SMITH"}))

	n, err := repo.CountByMemo(ctx, "MARY SMITH")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.FindByMemo(ctx, "MARY SMITH")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.MemberID)

	_, err = repo.FindByMemo(ctx, "NOBODY")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

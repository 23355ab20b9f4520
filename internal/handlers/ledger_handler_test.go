package handlers

import (
	"errors"
	"testing"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLedgerHandler_Backfill(t *testing.T) {
	t.Run("default batch", func(t *testing.T) {
		svc := new(MockLedgerService)
		h := NewLedgerHandler(svc)
		svc.On("Backfill", mock.Anything, 0).Return(&model.BackfillSummary{Scanned: 3, Created: 3}, nil)

		ctx := asOperator(setupTestContext("POST", "/ledger/backfill", nil), "admin", "admin")
		h.Backfill(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.JSONEq(t, `{"scanned":3,"created":3,"failed":0}`, string(ctx.Response.Body()))
		svc.AssertExpectations(t)
	})

	t.Run("explicit batch", func(t *testing.T) {
		svc := new(MockLedgerService)
		h := NewLedgerHandler(svc)
		svc.On("Backfill", mock.Anything, 50).Return(&model.BackfillSummary{}, nil)

		ctx := asOperator(setupTestContext("POST", "/ledger/backfill?batch_size=50", nil), "admin", "")
		h.Backfill(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("bad batch size", func(t *testing.T) {
		svc := new(MockLedgerService)
		h := NewLedgerHandler(svc)

		ctx := asOperator(setupTestContext("POST", "/ledger/backfill?batch_size=-1", nil), "admin", "")
		h.Backfill(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})

	t.Run("store failure is internal", func(t *testing.T) {
		svc := new(MockLedgerService)
		h := NewLedgerHandler(svc)
		svc.On("Backfill", mock.Anything, 0).Return(nil, errors.New("connection reset"))

		ctx := asOperator(setupTestContext("POST", "/ledger/backfill", nil), "admin", "")
		h.Backfill(ctx)

		assert.Equal(t, 500, ctx.Response.StatusCode())
		assert.Equal(t, "internal error", decodeError(t, ctx.Response.Body()).Error)
	})
}

func TestLedgerHandler_ListEntries(t *testing.T) {
	svc := new(MockLedgerService)
	h := NewLedgerHandler(svc)
	svc.On("List", mock.Anything, mock.MatchedBy(func(f model.LedgerEntryFilter) bool {
		return len(f.Types) == 1 && f.Types[0] == model.LedgerTypeExpense && f.To != nil
	})).Return([]*model.LedgerEntry{{ID: 1, Type: model.LedgerTypeExpense, Category: "EXP006"}}, int64(1), nil)

	ctx := setupTestContext("GET", "/ledger/entries?type=expense&to=2024-12-31", nil)
	h.ListEntries(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"category":"EXP006"`)
	svc.AssertExpectations(t)
}

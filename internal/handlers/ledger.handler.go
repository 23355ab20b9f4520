package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/parishworks/parish-ledger/internal/model"
	xhttp "github.com/parishworks/parish-ledger/pkg/http"
)

type LedgerService interface {
	Backfill(ctx context.Context, batchSize int) (*model.BackfillSummary, error)
	List(ctx context.Context, f model.LedgerEntryFilter) ([]*model.LedgerEntry, int64, error)
}

type LedgerHandler struct {
	svc LedgerService
}

func RegisterLedgerRoutes(e *router.Group, h *LedgerHandler) {
	e.POST("/ledger/backfill", h.Backfill)
	e.GET("/ledger/entries", h.ListEntries)
}

func NewLedgerHandler(svc LedgerService) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

type ledgerListResponse struct {
	Items []*model.LedgerEntry `json:"items"`
	Total int64                `json:"total"`
}

func (h *LedgerHandler) Backfill(ctx *xhttp.RequestCtx) {
	if _, ok := operator(ctx); !ok {
		return
	}
	batch := 0
	if v := query(ctx, "batch_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeServiceError(ctx, model.NewValidationError("batch_size", "must be a positive integer"))
			return
		}
		batch = n
	}
	summary, err := h.svc.Backfill(ctx, batch)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, summary)
}

func (h *LedgerHandler) ListEntries(ctx *xhttp.RequestCtx) {
	var f model.LedgerEntryFilter
	f.Types = splitList(query(ctx, "type"))
	f.From, f.To, f.Limit, f.Offset = listWindow(ctx)

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if items == nil {
		items = []*model.LedgerEntry{}
	}
	writeJSON(ctx, xhttp.StatusOK, ledgerListResponse{Items: items, Total: total})
}

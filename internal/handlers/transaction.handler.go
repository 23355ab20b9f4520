package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/fasthttp/router"
	"github.com/parishworks/parish-ledger/internal/model"
	xhttp "github.com/parishworks/parish-ledger/pkg/http"
)

type TransactionService interface {
	Create(ctx context.Context, req model.TransactionCreateRequest) (*model.TransactionResult, error)
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error)
}

type TransactionHandler struct {
	svc TransactionService
}

func RegisterTransactionRoutes(e *router.Group, h *TransactionHandler) {
	e.POST("/transactions", h.CreateTransaction)
	e.GET("/transactions", h.ListTransactions)
}

func NewTransactionHandler(svc TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

type transactionListResponse struct {
	Items []*model.Transaction `json:"items"`
	Total int64                `json:"total"`
}

func (h *TransactionHandler) CreateTransaction(ctx *xhttp.RequestCtx) {
	op, ok := operator(ctx)
	if !ok {
		return
	}
	var req model.TransactionCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	// Manual entries are always attributed to the caller.
	req.CollectedBy = op
	req.SourceSystem = model.SourceManual

	res, err := h.svc.Create(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, res)
}

func (h *TransactionHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	var f model.TransactionFilter
	for _, v := range splitList(query(ctx, "member_id")) {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeServiceError(ctx, model.NewValidationError("member_id", "must be an integer"))
			return
		}
		f.MemberIDs = append(f.MemberIDs, id)
	}
	for _, v := range splitList(query(ctx, "payment_type")) {
		f.PaymentTypes = append(f.PaymentTypes, model.PaymentType(v))
	}
	for _, v := range splitList(query(ctx, "status")) {
		f.Statuses = append(f.Statuses, model.TransactionStatus(v))
	}
	f.From, f.To, f.Limit, f.Offset = listWindow(ctx)
	if v := query(ctx, "year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			writeServiceError(ctx, model.NewValidationError("year", "must be an integer"))
			return
		}
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(1, 0, 0)
		f.From, f.To = &from, &to
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if items == nil {
		items = []*model.Transaction{}
	}
	writeJSON(ctx, xhttp.StatusOK, transactionListResponse{Items: items, Total: total})
}

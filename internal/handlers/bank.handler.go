package handlers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/parishworks/parish-ledger/internal/model"
	xhttp "github.com/parishworks/parish-ledger/pkg/http"
)

type StatementImporter interface {
	Upload(ctx context.Context, fileName string, data []byte) (*model.ImportSummary, error)
}

type BankQueue interface {
	ListWithSuggestions(ctx context.Context, f model.BankTransactionFilter) ([]*model.BankTransactionWithSuggestions, int64, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, req model.ReconcileRequest) (*model.ReconcileResult, error)
	ReconcileBulk(ctx context.Context, reqs []model.ReconcileRequest) *model.BulkReconcileReport
	Ignore(ctx context.Context, id int64) (*model.BankTransaction, error)
	ReconcileExpense(ctx context.Context, req model.ExpenseReconcileRequest) (*model.ExpenseReconcileResult, error)
}

type BankHandler struct {
	importer   StatementImporter
	queue      BankQueue
	reconciler Reconciler
}

func RegisterBankRoutes(e *router.Group, h *BankHandler) {
	e.POST("/bank/upload", h.Upload)
	e.GET("/bank/transactions", h.ListTransactions)
	e.POST("/bank/transactions/{id}/ignore", h.Ignore)
	e.POST("/bank/reconcile", h.Reconcile)
	e.POST("/bank/reconcile-bulk", h.ReconcileBulk)
	e.POST("/bank/reconcile-expense", h.ReconcileExpense)
}

func NewBankHandler(importer StatementImporter, queue BankQueue, reconciler Reconciler) *BankHandler {
	return &BankHandler{
		importer:   importer,
		queue:      queue,
		reconciler: reconciler,
	}
}

type bankListResponse struct {
	Items []*model.BankTransactionWithSuggestions `json:"items"`
	Total int64                                   `json:"total"`
}

type bulkReconcileRequest struct {
	Items []model.ReconcileRequest `json:"items"`
}

func (h *BankHandler) Upload(ctx *xhttp.RequestCtx) {
	if _, ok := operator(ctx); !ok {
		return
	}
	name, data, err := xhttp.FormFileBytes(ctx, "file")
	if err != nil {
		if errors.Is(err, xhttp.ErrMissingFile) {
			writeServiceError(ctx, model.NewValidationError("file", "a CSV file is required"))
			return
		}
		writeServiceError(ctx, err)
		return
	}
	summary, err := h.importer.Upload(ctx, name, data)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, summary)
}

func (h *BankHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	var f model.BankTransactionFilter
	for _, s := range splitList(query(ctx, "status")) {
		f.Statuses = append(f.Statuses, model.BankTransactionStatus(s))
	}
	f.From, f.To, f.Limit, f.Offset = listWindow(ctx)

	items, total, err := h.queue.ListWithSuggestions(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if items == nil {
		items = []*model.BankTransactionWithSuggestions{}
	}
	writeJSON(ctx, xhttp.StatusOK, bankListResponse{Items: items, Total: total})
}

func (h *BankHandler) Reconcile(ctx *xhttp.RequestCtx) {
	op, ok := operator(ctx)
	if !ok {
		return
	}
	var req model.ReconcileRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req.OperatorID = op

	res, err := h.reconciler.Reconcile(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	status := xhttp.StatusCreated
	if res.Linked {
		status = xhttp.StatusOK
	}
	writeJSON(ctx, status, res)
}

func (h *BankHandler) ReconcileBulk(ctx *xhttp.RequestCtx) {
	op, ok := operator(ctx)
	if !ok {
		return
	}
	var req bulkReconcileRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeServiceError(ctx, model.NewValidationError("items", "must not be empty"))
		return
	}
	for i := range req.Items {
		req.Items[i].OperatorID = op
	}
	writeJSON(ctx, xhttp.StatusOK, h.reconciler.ReconcileBulk(ctx, req.Items))
}

func (h *BankHandler) ReconcileExpense(ctx *xhttp.RequestCtx) {
	op, ok := operator(ctx)
	if !ok {
		return
	}
	var req model.ExpenseReconcileRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req.OperatorID = op

	res, err := h.reconciler.ReconcileExpense(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, res)
}

func (h *BankHandler) Ignore(ctx *xhttp.RequestCtx) {
	if _, ok := operator(ctx); !ok {
		return
	}
	id, err := pathInt64(ctx, "id")
	if err != nil || id <= 0 {
		writeServiceError(ctx, model.NewValidationError("id", "must be a positive integer"))
		return
	}
	bt, err := h.reconciler.Ignore(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, bt)
}

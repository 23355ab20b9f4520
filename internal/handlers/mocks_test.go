package handlers

import (
	"bytes"
	"context"
	"mime/multipart"

	"github.com/parishworks/parish-ledger/internal/dues"
	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/internal/services"
	xhttp "github.com/parishworks/parish-ledger/pkg/http"
	"github.com/stretchr/testify/mock"
	"github.com/valyala/fasthttp"
)

type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) Upload(ctx context.Context, fileName string, data []byte) (*model.ImportSummary, error) {
	args := m.Called(ctx, fileName, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportSummary), args.Error(1)
}

type MockBankQueue struct {
	mock.Mock
}

func (m *MockBankQueue) ListWithSuggestions(ctx context.Context, f model.BankTransactionFilter) ([]*model.BankTransactionWithSuggestions, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.BankTransactionWithSuggestions), args.Get(1).(int64), args.Error(2)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, req model.ReconcileRequest) (*model.ReconcileResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconcileResult), args.Error(1)
}

func (m *MockReconciler) ReconcileBulk(ctx context.Context, reqs []model.ReconcileRequest) *model.BulkReconcileReport {
	args := m.Called(ctx, reqs)
	return args.Get(0).(*model.BulkReconcileReport)
}

func (m *MockReconciler) Ignore(ctx context.Context, id int64) (*model.BankTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BankTransaction), args.Error(1)
}

func (m *MockReconciler) ReconcileExpense(ctx context.Context, req model.ExpenseReconcileRequest) (*model.ExpenseReconcileResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExpenseReconcileResult), args.Error(1)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) Create(ctx context.Context, req model.TransactionCreateRequest) (*model.TransactionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionResult), args.Error(1)
}

func (m *MockTransactionService) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Transaction), args.Get(1).(int64), args.Error(2)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Backfill(ctx context.Context, batchSize int) (*model.BackfillSummary, error) {
	args := m.Called(ctx, batchSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BackfillSummary), args.Error(1)
}

func (m *MockLedgerService) List(ctx context.Context, f model.LedgerEntryFilter) ([]*model.LedgerEntry, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

type MockDuesService struct {
	mock.Mock
}

func (m *MockDuesService) ForCaller(ctx context.Context, caller model.Caller, memberID *int64, year int) (*dues.Result, error) {
	args := m.Called(ctx, caller, memberID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dues.Result), args.Error(1)
}

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) Check(ctx context.Context) *services.HealthStatus {
	args := m.Called(ctx)
	return args.Get(0).(*services.HealthStatus)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func asOperator(ctx *xhttp.RequestCtx, id string, roles string) *xhttp.RequestCtx {
	ctx.Request.Header.Set(xhttp.HeaderOperatorID, id)
	if roles != "" {
		ctx.Request.Header.Set(xhttp.HeaderUserRole, roles)
	}
	return ctx
}

func multipartBody(field, name string, data []byte) (string, []byte) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, _ := w.CreateFormFile(field, name)
	_, _ = fw.Write(data)
	_ = w.Close()
	return w.FormDataContentType(), buf.Bytes()
}

func ptr[T any](v T) *T { return &v }

package services

import (
	"context"
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockBankRepository struct {
	mock.Mock
}

func (m *MockBankRepository) FindByHashes(ctx context.Context, hashes []string) (map[string]*model.BankTransaction, error) {
	args := m.Called(ctx, hashes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*model.BankTransaction), args.Error(1)
}

func (m *MockBankRepository) CreateBatch(ctx context.Context, rows []*model.BankTransaction) (int64, error) {
	args := m.Called(ctx, rows)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBankRepository) BackfillBalances(ctx context.Context, updates []repository.BalanceUpdate) (int64, error) {
	args := m.Called(ctx, updates)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBankRepository) GetByID(ctx context.Context, id int64) (*model.BankTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BankTransaction), args.Error(1)
}

func (m *MockBankRepository) List(ctx context.Context, f model.BankTransactionFilter) ([]*model.BankTransaction, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.BankTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockBankRepository) MarkMatched(ctx context.Context, id int64, memberID *int64) (bool, error) {
	args := m.Called(ctx, id, memberID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBankRepository) MarkIgnored(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockMemoRepository struct {
	mock.Mock
}

func (m *MockMemoRepository) FindByMemo(ctx context.Context, memo string) (*model.ZelleMemoMatch, error) {
	args := m.Called(ctx, memo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ZelleMemoMatch), args.Error(1)
}

func (m *MockMemoRepository) Upsert(ctx context.Context, match *model.ZelleMemoMatch) error {
	return m.Called(ctx, match).Error(0)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) ListAll(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindPotentialDuplicates(ctx context.Context, amount decimal.Decimal, date time.Time, windowDays int, bankTxID int64) ([]*model.Transaction, error) {
	args := m.Called(ctx, amount, date, windowDays, bankTxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) LinkBankTransaction(ctx context.Context, txnID, bankTxID int64) (bool, error) {
	args := m.Called(ctx, txnID, bankTxID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) ListMissingLedger(ctx context.Context, afterID int64, limit int) ([]*model.Transaction, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) CreateEntry(ctx context.Context, entry *model.LedgerEntry) (*model.LedgerEntry, bool, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.LedgerEntry), args.Bool(1), args.Error(2)
}

func (m *MockLedgerRepository) List(ctx context.Context, f model.LedgerEntryFilter) ([]*model.LedgerEntry, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) EnqueueOutbox(ctx context.Context, txnID int64) error {
	return m.Called(ctx, txnID).Error(0)
}

func (m *MockLedgerRepository) MarkOutboxPosted(ctx context.Context, txnID int64) error {
	return m.Called(ctx, txnID).Error(0)
}

func (m *MockLedgerRepository) RecordOutboxFailure(ctx context.Context, txnID int64, cause string) error {
	return m.Called(ctx, txnID, cause).Error(0)
}

func (m *MockLedgerRepository) ListPendingOutbox(ctx context.Context, limit int) ([]*model.LedgerOutbox, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LedgerOutbox), args.Error(1)
}

type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) GetByID(ctx context.Context, id int64) (*model.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

func (m *MockMemberRepository) ListByIDs(ctx context.Context, ids []int64) ([]*model.Member, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Member), args.Error(1)
}

func (m *MockMemberRepository) FindByNameTokens(ctx context.Context, tokens []string) ([]*model.Member, error) {
	args := m.Called(ctx, tokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Member), args.Error(1)
}

func (m *MockMemberRepository) ListByFamily(ctx context.Context, familyID int64) ([]*model.Member, error) {
	args := m.Called(ctx, familyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Member), args.Error(1)
}

func (m *MockMemberRepository) GetDependent(ctx context.Context, id int64) (*model.Dependent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dependent), args.Error(1)
}

func (m *MockMemberRepository) ListDependentsOfHeads(ctx context.Context, headIDs []int64) ([]*model.Dependent, error) {
	args := m.Called(ctx, headIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Dependent), args.Error(1)
}

func (m *MockMemberRepository) FindDependentsLinkedTo(ctx context.Context, memberID int64) ([]*model.Dependent, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Dependent), args.Error(1)
}

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) ListIncome(ctx context.Context) ([]model.IncomeCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.IncomeCategory), args.Error(1)
}

func (m *MockCategoryRepository) ListExpense(ctx context.Context) ([]model.ExpenseCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ExpenseCategory), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, v any, metadata map[string]string) (string, error) {
	args := m.Called(ctx, v, metadata)
	return args.String(0), args.Error(1)
}

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

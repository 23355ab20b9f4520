package services

import (
	"context"
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/internal/repository"
	"github.com/shopspring/decimal"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type BankTransactionRepository interface {
	FindByHashes(ctx context.Context, hashes []string) (map[string]*model.BankTransaction, error)
	CreateBatch(ctx context.Context, rows []*model.BankTransaction) (int64, error)
	BackfillBalances(ctx context.Context, updates []repository.BalanceUpdate) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.BankTransaction, error)
	List(ctx context.Context, f model.BankTransactionFilter) ([]*model.BankTransaction, int64, error)
	MarkMatched(ctx context.Context, id int64, memberID *int64) (bool, error)
	MarkIgnored(ctx context.Context, id int64) (bool, error)
}

type MemoMatchRepository interface {
	FindByMemo(ctx context.Context, memo string) (*model.ZelleMemoMatch, error)
	Upsert(ctx context.Context, m *model.ZelleMemoMatch) error
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	GetByID(ctx context.Context, id int64) (*model.Transaction, error)
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error)
	ListAll(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, error)
	FindPotentialDuplicates(ctx context.Context, amount decimal.Decimal, date time.Time, windowDays int, bankTxID int64) ([]*model.Transaction, error)
	LinkBankTransaction(ctx context.Context, txnID, bankTxID int64) (bool, error)
	ListMissingLedger(ctx context.Context, afterID int64, limit int) ([]*model.Transaction, error)
}

type LedgerRepository interface {
	CreateEntry(ctx context.Context, entry *model.LedgerEntry) (*model.LedgerEntry, bool, error)
	List(ctx context.Context, f model.LedgerEntryFilter) ([]*model.LedgerEntry, int64, error)
	EnqueueOutbox(ctx context.Context, txnID int64) error
	MarkOutboxPosted(ctx context.Context, txnID int64) error
	RecordOutboxFailure(ctx context.Context, txnID int64, cause string) error
	ListPendingOutbox(ctx context.Context, limit int) ([]*model.LedgerOutbox, error)
}

type MemberRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Member, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*model.Member, error)
	FindByNameTokens(ctx context.Context, tokens []string) ([]*model.Member, error)
	ListByFamily(ctx context.Context, familyID int64) ([]*model.Member, error)
	GetDependent(ctx context.Context, id int64) (*model.Dependent, error)
	ListDependentsOfHeads(ctx context.Context, headIDs []int64) ([]*model.Dependent, error)
	FindDependentsLinkedTo(ctx context.Context, memberID int64) ([]*model.Dependent, error)
}

type CategoryRepository interface {
	ListIncome(ctx context.Context) ([]model.IncomeCategory, error)
	ListExpense(ctx context.Context) ([]model.ExpenseCategory, error)
}

// Publisher notifies the outbox processor about a posting that needs a retry.
type Publisher interface {
	PublishJSON(ctx context.Context, v any, metadata map[string]string) (string, error)
}

// LedgerEvent is the payload published on the ledger outbox stream.
type LedgerEvent struct {
	TransactionID int64  `json:"transaction_id"`
	Reason        string `json:"reason,omitempty"`
}

package repository

import "github.com/parishworks/parish-ledger/internal/model"

var (
	ErrNotFound = model.ErrNotFound
)

const defaultInsertBatchSize = 200

// Entities lists every table the repositories map, in creation order.
func Entities() []any {
	return []any{
		&MemberEntity{},
		&DependentEntity{},
		&BankTransactionEntity{},
		&ZelleMemoMatchEntity{},
		&TransactionEntity{},
		&LedgerEntryEntity{},
		&LedgerOutboxEntity{},
		&IncomeCategoryEntity{},
		&ExpenseCategoryEntity{},
	}
}

func pageBounds(limit, offset, def int) (int, int) {
	if limit <= 0 || limit > 1000 {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

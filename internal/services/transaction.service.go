package services

import (
	"context"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/pkg/logger"
)

type TransactionService struct {
	tx      Transactor
	txns    TransactionRepository
	members MemberRepository
	ledger  LedgerRepository
	posting *LedgerService
}

func NewTransactionService(tx Transactor, txns TransactionRepository, members MemberRepository, ledger LedgerRepository, posting *LedgerService) *TransactionService {
	return &TransactionService{
		tx:      tx,
		txns:    txns,
		members: members,
		ledger:  ledger,
		posting: posting,
	}
}

// Record validates and stores a payment together with its outbox row. within
// runs inside the same DB transaction after the insert. The ledger entry is
// posted after commit; a posting failure leaves the payment recorded and the
// entry pending on the outbox, so the returned entry may be nil.
func (s *TransactionService) Record(ctx context.Context, req model.TransactionCreateRequest, within func(ctx context.Context, created *model.Transaction) error) (*model.Transaction, *model.LedgerEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	if req.MemberID != nil {
		if _, err := s.members.GetByID(ctx, *req.MemberID); err != nil {
			return nil, nil, err
		}
	}

	var created *model.Transaction
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.txns.Create(ctx, req.ToTransaction())
		if err != nil {
			return err
		}
		if created.Status == model.TransactionStatusSucceeded {
			if err := s.ledger.EnqueueOutbox(ctx, created.ID); err != nil {
				return err
			}
		}
		if within != nil {
			return within(ctx, created)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if created.Status != model.TransactionStatusSucceeded {
		return created, nil, nil
	}
	entry, err := s.posting.Post(ctx, created)
	if err != nil {
		logger.Warn("transaction recorded with ledger posting pending", "transaction_id", created.ID, "error", err)
		return created, nil, nil
	}
	return created, entry, nil
}

func (s *TransactionService) Create(ctx context.Context, req model.TransactionCreateRequest) (*model.TransactionResult, error) {
	txn, entry, err := s.Record(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	return &model.TransactionResult{
		Transaction:   txn,
		LedgerEntry:   entry,
		LedgerPending: entry == nil && txn.Status == model.TransactionStatusSucceeded,
	}, nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (*model.Transaction, error) {
	return s.txns.GetByID(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	return s.txns.List(ctx, f)
}

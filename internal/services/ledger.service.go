package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/parishworks/parish-ledger/internal/gl"
	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/pkg/logger"
	"github.com/parishworks/parish-ledger/pkg/prom"
)

const defaultBackfillBatch = 200

// LedgerService posts ledger entries for recorded transactions. Posting is
// idempotent per transaction and always happens outside the DB transaction
// that recorded the payment.
type LedgerService struct {
	txns       TransactionRepository
	ledger     LedgerRepository
	categories CategoryRepository
	publisher  Publisher

	mu      sync.RWMutex
	mapping *gl.Mapping
}

// NewLedgerService wires the posting path. publisher may be nil.
func NewLedgerService(txns TransactionRepository, ledger LedgerRepository, categories CategoryRepository, publisher Publisher) *LedgerService {
	return &LedgerService{
		txns:       txns,
		ledger:     ledger,
		categories: categories,
		publisher:  publisher,
	}
}

// Mapping returns the GL mapping, loading it from the category tables on
// first use. Empty tables fall back to the compiled-in mapping.
func (s *LedgerService) Mapping(ctx context.Context) *gl.Mapping {
	s.mu.RLock()
	m := s.mapping
	s.mu.RUnlock()
	if m != nil {
		return m
	}

	m = gl.DefaultMapping()
	if s.categories != nil {
		income, err := s.categories.ListIncome(ctx)
		if err != nil {
			logger.Warn("loading income categories failed, using default GL mapping", "error", err)
			return m
		}
		expense, err := s.categories.ListExpense(ctx)
		if err != nil {
			logger.Warn("loading expense categories failed, using default GL mapping", "error", err)
			return m
		}
		if len(income) > 0 {
			m = gl.FromCategories(gl.DefaultVersion, income, expense)
			if unmapped := m.Unmapped(); len(unmapped) > 0 {
				logger.Warn("payment types without GL code", "payment_types", unmapped)
			}
		}
	}

	s.mu.Lock()
	s.mapping = m
	s.mu.Unlock()
	return m
}

// Reload drops the cached mapping.
func (s *LedgerService) Reload() {
	s.mu.Lock()
	s.mapping = nil
	s.mu.Unlock()
}

func (s *LedgerService) entryFor(ctx context.Context, txn *model.Transaction) (*model.LedgerEntry, error) {
	code, err := s.Mapping(ctx).Resolve(txn.PaymentType)
	if err != nil {
		return nil, err
	}
	collectedBy := txn.CollectedBy
	method := string(txn.PaymentMethod)
	return &model.LedgerEntry{
		Type:          string(txn.PaymentType),
		Category:      code,
		Amount:        txn.Amount,
		EntryDate:     txn.PaymentDate,
		MemberID:      txn.MemberID,
		CollectedBy:   &collectedBy,
		PaymentMethod: &method,
		Memo:          txn.Note,
		TransactionID: &txn.ID,
		SourceSystem:  txn.SourceSystem,
		ReceiptNumber: txn.ReceiptNumber,
	}, nil
}

// Post creates the ledger entry of txn, or returns the one that already
// exists. A failure is recorded on the outbox row and announced to the
// processor before it is returned.
func (s *LedgerService) Post(ctx context.Context, txn *model.Transaction) (*model.LedgerEntry, error) {
	entry, err := s.post(ctx, txn)
	if err != nil {
		s.fail(ctx, txn.ID, err)
		return nil, err
	}
	return entry, nil
}

func (s *LedgerService) post(ctx context.Context, txn *model.Transaction) (*model.LedgerEntry, error) {
	entry, err := s.entryFor(ctx, txn)
	if err != nil {
		return nil, err
	}
	stored, created, err := s.ledger.CreateEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}
	if err := s.ledger.MarkOutboxPosted(ctx, txn.ID); err != nil {
		// the entry exists; the sweep will find the row and post idempotently
		logger.Warn("marking outbox row posted failed", "transaction_id", txn.ID, "error", err)
	}
	if created {
		logger.Debug("ledger entry posted", "transaction_id", txn.ID, "category", stored.Category)
	}
	return stored, nil
}

func (s *LedgerService) fail(ctx context.Context, txnID int64, cause error) {
	prom.IncLedgerPostFailure()
	logger.Error("ledger posting failed", "transaction_id", txnID, "error", cause)

	if err := s.ledger.RecordOutboxFailure(ctx, txnID, cause.Error()); err != nil {
		logger.Error("recording outbox failure failed", "transaction_id", txnID, "error", err)
	}
	if s.publisher != nil {
		if _, err := s.publisher.PublishJSON(ctx, LedgerEvent{TransactionID: txnID, Reason: cause.Error()}, nil); err != nil {
			logger.Warn("publishing ledger retry failed", "transaction_id", txnID, "error", err)
		}
	}
}

// PostByID loads the transaction and posts it without publishing a retry
// notification on failure. The outbox processor owns retries on this path.
func (s *LedgerService) PostByID(ctx context.Context, txnID int64) (*model.LedgerEntry, error) {
	txn, err := s.txns.GetByID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	entry, err := s.post(ctx, txn)
	if err != nil {
		prom.IncLedgerPostFailure()
		if rerr := s.ledger.RecordOutboxFailure(ctx, txnID, err.Error()); rerr != nil {
			logger.Error("recording outbox failure failed", "transaction_id", txnID, "error", rerr)
		}
		return nil, err
	}
	return entry, nil
}

// DrainOutbox posts up to limit pending outbox rows.
func (s *LedgerService) DrainOutbox(ctx context.Context, limit int) (*model.DrainSummary, error) {
	rows, err := s.ledger.ListPendingOutbox(ctx, limit)
	if err != nil {
		return nil, err
	}
	summary := &model.DrainSummary{Pending: len(rows)}
	for _, row := range rows {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if _, err := s.PostByID(ctx, row.TransactionID); err != nil {
			summary.Failed++
			prom.IncOutboxDrained("failed")
			logger.Warn("outbox drain failed", "transaction_id", row.TransactionID, "attempts", row.Attempts+1, "error", err)
			continue
		}
		summary.Posted++
		prom.IncOutboxDrained("posted")
	}
	return summary, nil
}

// Backfill creates ledger entries for every succeeded transaction that has
// none. Running it again creates nothing.
func (s *LedgerService) Backfill(ctx context.Context, batchSize int) (*model.BackfillSummary, error) {
	if batchSize <= 0 {
		batchSize = defaultBackfillBatch
	}
	summary := &model.BackfillSummary{}
	var afterID int64
	for {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		batch, err := s.txns.ListMissingLedger(ctx, afterID, batchSize)
		if err != nil {
			return summary, err
		}
		if len(batch) == 0 {
			break
		}
		for _, txn := range batch {
			afterID = txn.ID
			summary.Scanned++
			if _, err := s.post(ctx, txn); err != nil {
				summary.Failed++
				logger.Error("ledger backfill failed", "transaction_id", txn.ID, "error", err)
				continue
			}
			summary.Created++
		}
	}
	logger.Info("ledger backfill finished", "scanned", summary.Scanned, "created", summary.Created, "failed", summary.Failed)
	return summary, nil
}

func (s *LedgerService) List(ctx context.Context, f model.LedgerEntryFilter) ([]*model.LedgerEntry, int64, error) {
	return s.ledger.List(ctx, f)
}

package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/internal/queue"
	"github.com/parishworks/parish-ledger/internal/services"
	"github.com/parishworks/parish-ledger/pkg/logger"
)

type LedgerPoster interface {
	PostByID(ctx context.Context, txnID int64) (*model.LedgerEntry, error)
}

// LedgerPostingProcessor retries ledger postings announced on the outbox
// stream.
type LedgerPostingProcessor struct {
	poster      LedgerPoster
	idempotency *IdempotencyService
}

func NewLedgerPostingProcessor(poster LedgerPoster, idempotency *IdempotencyService) *LedgerPostingProcessor {
	return &LedgerPostingProcessor{poster: poster, idempotency: idempotency}
}

func (p *LedgerPostingProcessor) GetType() string {
	return "ledger"
}

func (p *LedgerPostingProcessor) Process(ctx context.Context, msg *queue.Message) error {
	var ev services.LedgerEvent
	if err := msg.Decode(&ev); err != nil || ev.TransactionID <= 0 {
		logger.Error("malformed ledger event", "message_id", msg.ID, "error", err)
		return fmt.Errorf("malformed ledger event %s", msg.ID)
	}

	claim, err := p.idempotency.Acquire(ctx, ev.TransactionID)
	switch {
	case errors.Is(err, ErrAlreadyPosted):
		logger.Debug("ledger entry already posted, skipping", "transaction_id", ev.TransactionID)
		return nil
	case errors.Is(err, ErrMaxRetriesExceeded):
		// the outbox row stays pending for the sweep
		logger.Error("ledger posting retries exhausted", "transaction_id", ev.TransactionID)
		return nil
	case err != nil:
		return err
	}
	defer func() {
		if rerr := p.idempotency.Release(ctx, claim); rerr != nil {
			logger.Warn("releasing posting claim failed", "transaction_id", ev.TransactionID, "error", rerr)
		}
	}()

	entry, err := p.poster.PostByID(ctx, ev.TransactionID)
	if errors.Is(err, model.ErrNotFound) {
		logger.Error("ledger event for unknown transaction", "transaction_id", ev.TransactionID)
		return nil
	}
	if err != nil {
		_ = p.idempotency.MarkFailed(ctx, claim, err)
		return err
	}

	if err := p.idempotency.MarkPosted(ctx, claim); err != nil {
		logger.Warn("marking posting done failed", "transaction_id", ev.TransactionID, "error", err)
	}
	logger.Info("ledger entry posted from outbox",
		"transaction_id", ev.TransactionID,
		"ledger_entry_id", entry.ID,
		"retry_count", claim.RetryCount)
	return nil
}

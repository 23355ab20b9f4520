package services

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/parishworks/parish-ledger/internal/archive"
	"github.com/parishworks/parish-ledger/internal/bankcsv"
	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/internal/repository"
	"github.com/parishworks/parish-ledger/pkg/logger"
	"github.com/parishworks/parish-ledger/pkg/prom"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ImportPlan is the outcome of comparing parsed rows with stored ones.
type ImportPlan struct {
	Create           []*model.BankTransaction
	BalanceUpdates   []repository.BalanceUpdate
	Skipped          int
	DuplicatesInFile int
}

// PartitionRows decides, in file order, what to do with each parsed row. The
// first occurrence of a hash within the file wins; later ones are skipped.
// A row carrying a balance also matches a stored row imported from an export
// without balances. Stored rows are only ever touched to fill a missing
// balance, and each stored row is claimed by at most one line of the file.
func PartitionRows(rows []bankcsv.Row, existing map[string]*model.BankTransaction) ImportPlan {
	var plan ImportPlan
	seen := make(map[string]bool, len(rows))
	claimed := make(map[string]bool)

	for _, row := range rows {
		if seen[row.TransactionHash] {
			plan.DuplicatesInFile++
			plan.Skipped++
			continue
		}
		seen[row.TransactionHash] = true

		stored, ok := existing[row.TransactionHash]
		if !ok && row.Balance != nil {
			bare := row.BalancelessHash()
			if s, found := existing[bare]; found && !claimed[bare] {
				stored, ok = s, true
			}
		}
		if ok {
			claimed[stored.TransactionHash] = true
		}

		switch {
		case !ok:
			plan.Create = append(plan.Create, row.ToBankTransaction())
		case stored.Balance == nil && row.Balance != nil:
			plan.BalanceUpdates = append(plan.BalanceUpdates, repository.BalanceUpdate{
				Hash:    stored.TransactionHash,
				Balance: *row.Balance,
			})
		default:
			plan.Skipped++
		}
	}
	return plan
}

// lookupHashes lists every stored hash a parsed row may correspond to.
func lookupHashes(rows []bankcsv.Row) []string {
	hashes := make([]string, 0, len(rows))
	for _, row := range rows {
		hashes = append(hashes, row.TransactionHash)
		if row.Balance != nil {
			hashes = append(hashes, row.BalancelessHash())
		}
	}
	return hashes
}

type ImportConfig struct {
	BalanceBatchSize   int
	BalanceConcurrency int
}

type ImportService struct {
	parser  *bankcsv.Parser
	bank    BankTransactionRepository
	archive archive.Store
	config  ImportConfig
	now     func() time.Time
}

// NewImportService builds the statement importer. store may be nil.
func NewImportService(bank BankTransactionRepository, store archive.Store, config ImportConfig) *ImportService {
	if config.BalanceBatchSize <= 0 {
		config.BalanceBatchSize = 50
	}
	if config.BalanceConcurrency <= 0 {
		config.BalanceConcurrency = 4
	}
	return &ImportService{
		parser:  bankcsv.NewParser(),
		bank:    bank,
		archive: store,
		config:  config,
		now:     time.Now,
	}
}

// Upload parses a statement and stores what is new about it.
func (s *ImportService) Upload(ctx context.Context, fileName string, data []byte) (*model.ImportSummary, error) {
	summary := &model.ImportSummary{
		BatchID:  uuid.NewString(),
		FileName: fileName,
	}

	parsed, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		// every parser failure is a property of the uploaded bytes
		return nil, model.NewValidationError("file", err.Error())
	}
	summary.Parsed = len(parsed.Rows)
	summary.Malformed = len(parsed.Skipped)
	if len(parsed.Rows) == 0 {
		return nil, model.NewValidationError("file", "no valid transactions found")
	}

	existing, err := s.bank.FindByHashes(ctx, lookupHashes(parsed.Rows))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load stored bank transactions")
	}

	plan := PartitionRows(parsed.Rows, existing)
	summary.Skipped = plan.Skipped
	summary.DuplicatesInFile = plan.DuplicatesInFile

	created, err := s.bank.CreateBatch(ctx, plan.Create)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "insert bank transactions")
	}
	summary.Created = int(created)
	// rows inserted concurrently by another upload hit the unique hash
	summary.Skipped += len(plan.Create) - int(created)

	summary.BalanceUpdated, summary.BalanceUpdateFailures = s.backfillBalances(ctx, plan.BalanceUpdates)

	if s.archive != nil {
		uri, err := s.archive.Put(ctx, archive.ObjectName(s.now().UTC(), data), data)
		if err != nil {
			logger.Error("statement archive failed", "batch_id", summary.BatchID, "error", err)
		} else {
			summary.ArchivePath = uri
		}
	}

	prom.AddImportRows("created", summary.Created)
	prom.AddImportRows("balance_updated", summary.BalanceUpdated)
	prom.AddImportRows("skipped", summary.Skipped)
	prom.AddImportRows("malformed", summary.Malformed)

	logger.Info("statement imported",
		"batch_id", summary.BatchID,
		"file", fileName,
		"parsed", summary.Parsed,
		"created", summary.Created,
		"balance_updated", summary.BalanceUpdated,
		"skipped", summary.Skipped)

	return summary, nil
}

// backfillBalances applies balance updates in independent batches with
// bounded concurrency. A failed batch only loses its own rows.
func (s *ImportService) backfillBalances(ctx context.Context, updates []repository.BalanceUpdate) (updated int, failed int) {
	if len(updates) == 0 {
		return 0, 0
	}

	var batches [][]repository.BalanceUpdate
	for start := 0; start < len(updates); start += s.config.BalanceBatchSize {
		end := min(start+s.config.BalanceBatchSize, len(updates))
		batches = append(batches, updates[start:end])
	}

	results := make([]int64, len(batches))
	failures := make([]int, len(batches))

	var g errgroup.Group
	g.SetLimit(s.config.BalanceConcurrency)
	for i, batch := range batches {
		g.Go(func() error {
			n, err := s.bank.BackfillBalances(ctx, batch)
			if err != nil {
				logger.Error("balance backfill batch failed", "batch", i, "rows", len(batch), "error", err)
				failures[i] = len(batch)
				return nil
			}
			results[i] = n
			return nil
		})
	}
	_ = g.Wait()

	for i := range batches {
		updated += int(results[i])
		failed += failures[i]
	}
	return updated, failed
}

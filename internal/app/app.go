// Package app wires configuration, storage and services for the binaries.
package app

import (
	"context"
	"os"
	"strings"

	"github.com/parishworks/parish-ledger/internal/archive"
	"github.com/parishworks/parish-ledger/internal/config"
	"github.com/parishworks/parish-ledger/internal/handlers"
	"github.com/parishworks/parish-ledger/internal/locks"
	"github.com/parishworks/parish-ledger/internal/queue"
	"github.com/parishworks/parish-ledger/internal/repository"
	"github.com/parishworks/parish-ledger/internal/services"
	xhttp "github.com/parishworks/parish-ledger/pkg/http"
	"github.com/parishworks/parish-ledger/pkg/logger"
	"github.com/parishworks/parish-ledger/pkg/pg"
	"github.com/parishworks/parish-ledger/pkg/prom"
	"github.com/parishworks/parish-ledger/pkg/redis"
	"github.com/pkg/errors"
)

type Container struct {
	Config *config.Config
	DB     *pg.DB
	Redis  redis.RedisAdapter
	Queue  *queue.Queue

	Banks        *repository.BankTransactionRepository
	Memos        *repository.ZelleMemoMatchRepository
	Members      *repository.MemberRepository
	Transactions *repository.TransactionRepository
	Ledger       *repository.LedgerRepository
	Categories   *repository.CategoryRepository

	Posting        *services.LedgerService
	Recorder       *services.TransactionService
	Suggestions    *services.SuggestionService
	Reconciliation *services.ReconciliationService
	Dues           *services.DuesService
	Import         *services.ImportService
	Health         *services.HealthService

	gcs *archive.GCSStore
}

func PostgresConfigs(c *config.Config) (read pg.Config, write pg.Config) {
	read = pg.Config{
		User:            c.PostgresReadUser,
		Host:            c.PostgresReadHost,
		Port:            c.PostgresReadPort,
		Password:        c.PostgresReadPassword,
		Database:        c.PostgresReadDatabase,
		SSLMode:         c.PostgresSSLMode,
		MaxOpenConns:    c.PostgresMaxOpenConns,
		MaxIdleConns:    c.PostgresMaxIdleConns,
		ConnMaxLifetime: c.PostgresConnMaxLifetime,
	}
	write = pg.Config{
		User:            c.PostgresWriteUser,
		Host:            c.PostgresWriteHost,
		Port:            c.PostgresWritePort,
		Password:        c.PostgresWritePassword,
		Database:        c.PostgresWriteDatabase,
		SSLMode:         c.PostgresSSLMode,
		MaxOpenConns:    c.PostgresMaxOpenConns,
		MaxIdleConns:    c.PostgresMaxIdleConns,
		ConnMaxLifetime: c.PostgresConnMaxLifetime,
	}
	return read, write
}

func OpenDB(c *config.Config) (*pg.DB, error) {
	read, write := PostgresConfigs(c)
	db, err := pg.CreateReadWrite(read, write, c.AppEnv == "dev")
	if err != nil {
		return nil, errors.Wrap(err, "failed connecting to pg")
	}
	return db, nil
}

func OpenRedis(c *config.Config) (redis.RedisAdapter, error) {
	adapter, err := redis.NewRedisAdapter("default", c.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{c.RedisAddr},
		ClientName: c.AppName,
		DB:         c.RedisDatabase,
		Username:   c.RedisUsername,
		Password:   c.RedisPassword,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed connecting to redis")
	}
	return adapter, nil
}

func QueueConfig(c *config.Config) queue.Config {
	return queue.Config{
		Name:              c.QueueName,
		ConsumerGroup:     c.QueueConsumerGroup,
		ConsumerName:      c.QueueConsumerName,
		MaxRetries:        c.QueueMaxRetries,
		VisibilityTimeout: c.QueueVisibilityTimeout,
		PollInterval:      c.QueuePollInterval,
		BatchSize:         c.QueueBatchSize,
		MaxLen:            c.QueueMaxLen,
		EnableDLQ:         c.QueueEnableDLQ,
	}
}

// Build assembles repositories and services. rdb may be nil, in which case
// ledger failures are not published and reconciliation runs without leases.
func Build(ctx context.Context, c *config.Config, db *pg.DB, rdb redis.RedisAdapter) (*Container, error) {
	ct := &Container{
		Config:       c,
		DB:           db,
		Redis:        rdb,
		Banks:        repository.NewBankTransactionRepository(db),
		Memos:        repository.NewZelleMemoMatchRepository(db),
		Members:      repository.NewMemberRepository(db),
		Transactions: repository.NewTransactionRepository(db),
		Ledger:       repository.NewLedgerRepository(db),
		Categories:   repository.NewCategoryRepository(db),
	}

	var (
		publisher services.Publisher
		locker    locks.Locker = locks.NoopLocker{}
		store     archive.Store
	)
	if rdb != nil {
		q, err := queue.New(ctx, rdb, QueueConfig(c))
		if err != nil {
			return nil, errors.Wrap(err, "failed creating ledger queue")
		}
		ct.Queue = q
		publisher = q
		locker = locks.NewRedisLocker(rdb, c.LockTTL)
	}
	if c.StatementArchiveBucket != "" {
		gcs, err := archive.NewGCSStore(ctx, c.StatementArchiveBucket)
		if err != nil {
			// archival is best-effort
			logger.Warn("statement archive disabled", "bucket", c.StatementArchiveBucket, "error", err)
		} else {
			ct.gcs = gcs
			store = gcs
		}
	}

	ct.Posting = services.NewLedgerService(ct.Transactions, ct.Ledger, ct.Categories, publisher)
	ct.Recorder = services.NewTransactionService(db, ct.Transactions, ct.Members, ct.Ledger, ct.Posting)
	ct.Suggestions = services.NewSuggestionService(ct.Banks, ct.Memos, ct.Members, ct.Transactions, c.MatchDuplicateWindowDays)
	ct.Reconciliation = services.NewReconciliationService(services.ReconcileDeps{
		Tx:           db,
		Bank:         ct.Banks,
		Memos:        ct.Memos,
		Members:      ct.Members,
		Transactions: ct.Transactions,
		Ledger:       ct.Ledger,
		Recorder:     ct.Recorder,
		Posting:      ct.Posting,
		Locker:       locker,
	})
	ct.Dues = services.NewDuesService(ct.Members, ct.Transactions, c.StaffRoleList())
	ct.Import = services.NewImportService(ct.Banks, store, services.ImportConfig{
		BalanceBatchSize:   c.ImportBalanceBatchSize,
		BalanceConcurrency: c.ImportBalanceConcurrency,
	})
	ct.Health = services.NewHealthService(db, rdb)
	return ct, nil
}

// Routes registers every API route under base.
func (ct *Container) Routes(r *xhttp.Router, base string) {
	g := r.Group(base)
	handlers.RegisterBankRoutes(g, handlers.NewBankHandler(ct.Import, ct.Suggestions, ct.Reconciliation))
	handlers.RegisterTransactionRoutes(g, handlers.NewTransactionHandler(ct.Recorder))
	handlers.RegisterLedgerRoutes(g, handlers.NewLedgerHandler(ct.Posting))
	handlers.RegisterDuesRoutes(g, handlers.NewDuesHandler(ct.Dues))
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(ct.Health))
}

func (ct *Container) Close() {
	if ct.gcs != nil {
		if err := ct.gcs.Close(); err != nil {
			logger.Warn("closing statement archive", "error", err)
		}
	}
}

// StartMetrics enables prometheus collection and serves it when an address
// is configured.
func StartMetrics(c *config.Config) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, c.AppEnv, c.PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	if c.AppDebugMetricsAddr != "" {
		go prom.ListenAndServer(c.AppDebugMetricsAddr, c.AppDebugMetricsURI)
	}
}

// EnvPath returns the value of a --env=<path> argument when the file exists.
func EnvPath(args []string) string {
	for _, v := range args {
		if path, ok := strings.CutPrefix(v, "--env="); ok && path != "" {
			if _, err := os.Stat(path); err != nil {
				logger.Error("failed to open the passed env file", "error", err)
				return ""
			}
			return path
		}
	}
	return ""
}

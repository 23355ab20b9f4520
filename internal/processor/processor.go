package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/internal/queue"
	"github.com/parishworks/parish-ledger/pkg/logger"
	"github.com/parishworks/parish-ledger/pkg/redis"
	"github.com/parishworks/parish-ledger/pkg/worker"
)

const ProcessingTimeout = 10 * time.Second
const HealthInterval = 30 * time.Second
const ShutdownTimeout = time.Minute

// Processor handles one kind of queue message.
type Processor interface {
	Process(ctx context.Context, message *queue.Message) error
	GetType() string
}

// Sweeper posts whatever the outbox still holds.
type Sweeper interface {
	DrainOutbox(ctx context.Context, limit int) (*model.DrainSummary, error)
}

type Config struct {
	Queue          queue.Config
	Consumers      int
	Workers        int
	SweepInterval  time.Duration
	SweepBatchSize int
}

// ProcessorService consumes the ledger outbox stream through a worker pool
// and periodically sweeps the outbox table for rows no event reached.
type ProcessorService struct {
	adapter   redis.RedisAdapter
	config    Config
	processor Processor
	sweeper   Sweeper
	queues    []*queue.Queue
	metrics   *ServiceMetrics
	worker    *worker.WorkerManager[*job]
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

type job struct {
	msg    *queue.Message
	result chan error
	ctx    context.Context
}

func NewProcessorService(adapter redis.RedisAdapter, config Config, processor Processor, sweeper Sweeper) *ProcessorService {
	if config.Consumers < 1 {
		config.Consumers = 1
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.SweepBatchSize <= 0 {
		config.SweepBatchSize = 100
	}
	return &ProcessorService{
		adapter:   adapter,
		config:    config,
		processor: processor,
		sweeper:   sweeper,
		metrics:   NewServiceMetrics(),
		worker:    worker.NewWorkerManager[*job](config.Workers*4, config.Workers),
	}
}

func (s *ProcessorService) Metrics() *ServiceMetrics {
	return s.metrics
}

func (s *ProcessorService) Start(ctx context.Context) error {
	logger.Info("starting ledger processor", "type", s.processor.GetType())
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.worker.SetWorker(s.workerHandler)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker.Start(s.ctx)
	}()

	for i := range s.config.Consumers {
		qc := s.config.Queue
		qc.ConsumerName = fmt.Sprintf("%s-%d", qc.ConsumerName, i)

		q, err := queue.New(s.ctx, s.adapter, qc)
		if err != nil {
			s.cancel()
			return fmt.Errorf("create consumer %d: %w", i, err)
		}
		if err := q.Consume(s.ctx, s.messageHandler); err != nil {
			s.cancel()
			return fmt.Errorf("start consumer %d: %w", i, err)
		}
		s.queues = append(s.queues, q)
	}

	s.wg.Add(2)
	go s.healthChecker()
	go s.sweepLoop()

	logger.Info("ledger processor started", "consumers", len(s.queues), "workers", s.config.Workers)
	return nil
}

func (s *ProcessorService) sweepLoop() {
	defer s.wg.Done()
	if s.sweeper == nil || s.config.SweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep(s.ctx)
		case <-s.ctx.Done():
			return
		}
	}
}

// Sweep drains one batch of pending outbox rows.
func (s *ProcessorService) Sweep(ctx context.Context) {
	summary, err := s.sweeper.DrainOutbox(ctx, s.config.SweepBatchSize)
	if err != nil {
		logger.Error("outbox sweep failed", "error", err)
	}
	s.metrics.RecordSweep(summary)
	if summary != nil && summary.Pending > 0 {
		logger.Info("outbox sweep", "pending", summary.Pending, "posted", summary.Posted, "failed", summary.Failed)
	}
}

func (s *ProcessorService) healthChecker() {
	defer s.wg.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.reportHealth()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ProcessorService) reportHealth() {
	if err := s.adapter.Ping(s.ctx); err != nil {
		logger.Error("redis unreachable", "error", err)
		return
	}
	st := s.metrics.GetStats()
	logger.Info("processor stats",
		"processed", st.Processed,
		"failed", st.Failed,
		"swept", st.Swept,
		"avg_duration_ms", st.AvgDurationMs,
		"buffered", s.worker.GetUnreadCount())

	for i, q := range s.queues {
		qs, err := q.Stats(s.ctx)
		if err != nil {
			logger.Warn("queue stats unavailable", "consumer", i, "error", err)
			continue
		}
		if qs.PendingMessages > 1000 {
			logger.Warn("ledger outbox stream lagging", "consumer", i, "pending", qs.PendingMessages, "dead_letters", qs.DeadLetters)
		}
	}
}

// Stop stops consuming, waits for in-flight jobs and background loops.
func (s *ProcessorService) Stop() {
	logger.Info("stopping ledger processor")
	if s.cancel != nil {
		s.cancel()
	}

	var qwg sync.WaitGroup
	for i, q := range s.queues {
		qwg.Add(1)
		go func() {
			defer qwg.Done()
			if err := q.Stop(ShutdownTimeout); err != nil {
				logger.Error("stopping consumer failed", "consumer", i, "error", err)
			}
		}()
	}
	qwg.Wait()

	s.worker.Exit()
	s.wg.Wait()

	st := s.metrics.GetStats()
	logger.Info("ledger processor stopped", "processed", st.Processed, "failed", st.Failed, "swept", st.Swept)
}

// messageHandler hands the delivery to the worker pool and waits for it.
func (s *ProcessorService) messageHandler(ctx context.Context, msg *queue.Message) error {
	jobCtx, cancel := context.WithTimeout(ctx, ProcessingTimeout)
	defer cancel()

	j := &job{msg: msg, result: make(chan error, 1), ctx: jobCtx}
	if !s.worker.Enqueue(jobCtx, j) {
		return fmt.Errorf("worker pool unavailable for message %s", msg.ID)
	}

	select {
	case err := <-j.result:
		return err
	case <-jobCtx.Done():
		return fmt.Errorf("waiting for worker on message %s: %w", msg.ID, jobCtx.Err())
	}
}

func (s *ProcessorService) workerHandler(_ context.Context, idx int, j *job) {
	if j.ctx.Err() != nil {
		logger.Warn("job expired before processing", "worker", idx, "message_id", j.msg.ID)
		return
	}

	start := time.Now()
	err := s.processor.Process(j.ctx, j.msg)
	if err != nil {
		s.metrics.RecordFailure()
		logger.Error("processing ledger event failed", "worker", idx, "message_id", j.msg.ID, "error", err)
	} else {
		s.metrics.RecordSuccess(time.Since(start))
	}
	// buffered, never blocks
	j.result <- err
}

package worker

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/parishworks/parish-ledger/pkg/logger"
)

type WorkerHandler[T any] func(ctx context.Context, workerIndex int, job T)

type WorkerManager[T any] struct {
	numberOfWorker int
	jobChannel     chan T
	sigTerm        chan os.Signal
	stop           chan struct{}
	stopOnce       sync.Once
	do             WorkerHandler[T]
	waiter         sync.WaitGroup
}

// NewWorkerManager is a fixed pool of goroutines draining a buffered job
// channel. Workers stop on SIGTERM, on Exit or when the Start context ends.
// Jobs still buffered at that point are left in the channel.
func NewWorkerManager[T any](bufferSize, numberOfWorkers int) *WorkerManager[T] {
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)

	return &WorkerManager[T]{
		numberOfWorker: numberOfWorkers,
		jobChannel:     make(chan T, bufferSize),
		sigTerm:        sigChan,
		stop:           make(chan struct{}),
	}
}

func (w *WorkerManager[T]) GetUnreadCount() int64 {
	return int64(len(w.jobChannel))
}

func (w *WorkerManager[T]) SetWorker(worker WorkerHandler[T]) {
	w.do = worker
}

// Enqueue blocks until the job is accepted or the pool is stopping.
func (w *WorkerManager[T]) Enqueue(ctx context.Context, job T) bool {
	select {
	case w.jobChannel <- job:
		return true
	case <-w.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

// Start runs the workers and blocks until they have all exited.
func (w *WorkerManager[T]) Start(ctx context.Context) {
	go func() {
		select {
		case <-w.sigTerm:
			logger.Info("[worker] SIGTERM received")
			w.Exit()
		case <-ctx.Done():
			w.Exit()
		case <-w.stop:
		}
	}()

	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for {
				select {
				case <-w.stop:
					return
				case job := <-w.jobChannel:
					w.do(ctx, index, job)
				}
			}
		}(i)
	}
	w.waiter.Wait()
	signal.Stop(w.sigTerm)
}

// Exit stops all workers after their current job.
func (w *WorkerManager[T]) Exit() {
	w.stopOnce.Do(func() {
		logger.Info("[worker] worker manager is going to be shutdown")
		close(w.stop)
	})
}

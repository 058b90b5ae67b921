package media

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Paxto2002/project-vidora/internal/logging"
)

// JanitorConfig controls the concurrency characteristics of the janitor.
type JanitorConfig struct {
	QueueSize     int
	Workers       int
	DeleteTimeout time.Duration
}

// Janitor asynchronously deletes stored objects that no record references any more,
// such as an avatar whose user insert failed or the files of a deleted video.
type Janitor struct {
	storage Storage
	timeout time.Duration
	logger  *slog.Logger

	jobs   chan discardJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	// mu keeps sends and the channel close apart.
	mu     sync.RWMutex
	closed bool
}

// discardJob keeps the request id of the caller so background deletions stay traceable.
type discardJob struct {
	url       string
	requestID string
}

var errJanitorClosed = errors.New("media janitor closed")

// NewJanitor starts a worker pool that deletes objects from storage.
func NewJanitor(storage Storage, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.DeleteTimeout <= 0 {
		cfg.DeleteTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	j := &Janitor{
		storage: storage,
		timeout: cfg.DeleteTimeout,
		logger:  logger,
		jobs:    make(chan discardJob, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}

	return j
}

// Discard schedules deletion of the objects behind urls. Empty URLs and URLs that do not
// belong to the store are skipped.
func (j *Janitor) Discard(ctx context.Context, urls ...string) error {
	requestID := logging.RequestIDFromContext(ctx)
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := j.enqueue(ctx, discardJob{url: url, requestID: requestID}); err != nil {
			return err
		}
	}
	return nil
}

func (j *Janitor) enqueue(ctx context.Context, job discardJob) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return errJanitorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.ctx.Done():
		return errJanitorClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.ctx.Done():
		return errJanitorClosed
	case j.jobs <- job:
		return nil
	}
}

// Shutdown stops accepting work and waits for queued deletions to finish.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.once.Do(func() {
		j.cancel()
		j.mu.Lock()
		j.closed = true
		close(j.jobs)
		j.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// worker drains the queue even after Shutdown so accepted deletions are not lost.
func (j *Janitor) worker() {
	defer j.wg.Done()

	for job := range j.jobs {
		j.handle(job)
	}
}

func (j *Janitor) handle(job discardJob) {
	url := job.url
	logger := j.logger
	if job.requestID != "" {
		logger = logger.With("request_id", job.requestID)
	}

	if j.storage == nil {
		logger.Error("media janitor missing storage", "url", url)
		return
	}

	key, ok := j.storage.KeyForURL(url)
	if !ok {
		logger.Warn("media janitor skipping foreign url", "url", url)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.storage.Delete(ctx, key); err != nil {
		logger.Error("delete orphaned media", "key", key, "error", err)
		return
	}
	logger.Info("deleted orphaned media", "key", key)
}

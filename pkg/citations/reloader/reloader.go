// Package reloader provides an asynchronous worker pool that reconciles
// citation libraries against backend storage. The addSourcesToLibrary
// dispatch writes inline citations into the store for immediate UI feedback,
// then queues a reload here so the store converges on what the backend
// actually persisted.
//
// The pool decouples the reload round-trip from the decode hot path: the
// read loop never blocks on the backend.
package reloader

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/scriptoriumco/vellum/pkg/citations"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 64
)

// Source fetches a project's citation library from backend storage.
type Source interface {
	FetchLibrary(ctx context.Context, projectID string) (libraryID string, cites []citations.Citation, err error)
}

// Job is one reload request.
type Job struct {
	ProjectID string
}

// Config holds the reloader pool configuration.
type Config struct {
	// Source is the backend to reload from.
	Source Source

	// Driver is the citation store to reconcile.
	Driver citations.Driver

	// NumWorkers is the number of background workers (defaults to 2).
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Pool processes reload jobs asynchronously.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewPool creates a Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Source == nil {
		return nil, fmt.Errorf("reload source is required")
	}
	if c.Driver == nil {
		return nil, fmt.Errorf("citation driver is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a reload job. Returns true if enqueued, false if the queue
// is full and the job was dropped. A dropped reload is recoverable: the next
// addSourcesToLibrary dispatch queues another.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("reload queued", "project_id", job.ProjectID)
		return true
	default:
		p.logger.Error("reload dropped, queue full", "project_id", job.ProjectID)
		return false
	}
}

// Close signals workers to stop and waits for in-flight reloads to drain.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("reload worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("reload worker stopped", "worker_id", id)
}

func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	libraryID, cites, err := p.config.Source.FetchLibrary(ctx, job.ProjectID)
	if err != nil {
		p.logger.Error("library fetch failed", "project_id", job.ProjectID, "error", err)
		return
	}

	if err := p.config.Driver.Replace(ctx, libraryID, cites); err != nil {
		p.logger.Error("library reconcile failed", "library_id", libraryID, "error", err)
		return
	}

	p.logger.Info("library reconciled", "library_id", libraryID, "citations", len(cites))
}

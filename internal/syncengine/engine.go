// Package syncengine drains the offline queue against the remote uploader.
//
// A pass works on a snapshot of the queue taken when it starts. Each item is
// uploaded, sealed when it is not already encrypted, and only then removed.
// A failed step leaves the item queued for the next pass; nothing is retried
// within a pass. Passes never overlap: a Drain call made while another is
// running returns immediately with Summary.Skipped set.
package syncengine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrlokans/khelo/internal/entities"
)

const (
	DefaultUploadTimeout  = 10 * time.Second
	DefaultEncryptTimeout = 5 * time.Second
)

// Queue is the part of the queue store the engine needs.
type Queue interface {
	List(ctx context.Context) ([]entities.QueuedItem, error)
	Get(ctx context.Context, id string) (entities.QueuedItem, bool, error)
	RemoveItem(ctx context.Context, item entities.QueuedItem) (bool, error)
}

// Uploader sends one item to the remote service.
//
// Upload must return once ctx is done. The engine bounds each call with a
// timeout carried on ctx but never abandons a call that is still running,
// because an upload that completes after being abandoned would leave the
// item queued for a second upload. A call that ignores ctx therefore holds
// the pass, and later passes report Skipped, until it returns.
type Uploader interface {
	Upload(ctx context.Context, item entities.QueuedItem) error
}

// Encrypter seals one item before it leaves the queue. Like Upload,
// Encrypt must return once ctx is done.
type Encrypter interface {
	Encrypt(ctx context.Context, item entities.QueuedItem) error
}

// ProgressReporter receives progress of a running pass.
type ProgressReporter interface {
	StartSync(totalItems int) error
	UpdateProgress(processed, succeeded, failed int, currentItem string) error
	CompleteSync(status entities.SyncStatus, errorMsg string) error
}

// AuditLogger records finished passes.
type AuditLogger interface {
	LogSync(action, description string, err error)
}

// Observer sees every pass, skipped ones included.
type Observer interface {
	ObserveDrain(summary Summary, err error)
}

type Engine struct {
	queue     Queue
	uploader  Uploader
	encrypter Encrypter

	uploadTimeout  time.Duration
	encryptTimeout time.Duration
	progress       ProgressReporter
	audit          AuditLogger
	observer       Observer
	now            func() time.Time

	running sync.Mutex
	syncing atomic.Bool

	lastMu   sync.RWMutex
	last     Summary
	haveLast bool
}

type Option func(*Engine)

func WithUploadTimeout(d time.Duration) Option {
	return func(e *Engine) { e.uploadTimeout = d }
}

func WithEncryptTimeout(d time.Duration) Option {
	return func(e *Engine) { e.encryptTimeout = d }
}

func WithProgressReporter(r ProgressReporter) Option {
	return func(e *Engine) { e.progress = r }
}

func WithAuditLogger(l AuditLogger) Option {
	return func(e *Engine) { e.audit = l }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(queue Queue, uploader Uploader, encrypter Encrypter, opts ...Option) *Engine {
	e := &Engine{
		queue:          queue,
		uploader:       uploader,
		encrypter:      encrypter,
		uploadTimeout:  DefaultUploadTimeout,
		encryptTimeout: DefaultEncryptTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsSyncing reports whether a pass is in flight.
func (e *Engine) IsSyncing() bool {
	return e.syncing.Load()
}

// LastSummary returns the summary of the most recent finished pass.
func (e *Engine) LastSummary() (Summary, bool) {
	e.lastMu.RLock()
	defer e.lastMu.RUnlock()
	return e.last, e.haveLast
}

// Drain runs one pass over the queue.
//
// Cancelling ctx stops the pass between items; the item being processed
// always finishes all of its steps, each bounded by its own timeout. The
// returned error is non-nil only when the queue itself could not be read or
// written, in which case the summary covers the items handled so far.
func (e *Engine) Drain(ctx context.Context) (Summary, error) {
	if !e.running.TryLock() {
		log.Println("[SYNC] Drain already in progress, skipping")
		skipped := Summary{Skipped: true}
		if e.observer != nil {
			e.observer.ObserveDrain(skipped, nil)
		}
		return skipped, nil
	}
	defer e.running.Unlock()

	e.syncing.Store(true)
	defer e.syncing.Store(false)

	summary := Summary{StartedAt: e.now()}

	items, err := e.queue.List(ctx)
	if err != nil {
		err = fmt.Errorf("snapshot queue: %w", err)
		e.finish(&summary, err)
		return summary, err
	}
	summary.Total = len(items)
	e.reportStart(len(items))
	log.Printf("[SYNC] Starting drain of %d queued items", len(items))

	// Steps of an item that has started must not be abandoned halfway.
	work := context.WithoutCancel(ctx)

	for _, item := range items {
		if ctx.Err() != nil {
			summary.Interrupted = true
			log.Printf("[SYNC] Drain interrupted, %d items left untouched", summary.Total-summary.processed())
			break
		}

		if err := e.drainItem(work, item, &summary); err != nil {
			e.finish(&summary, err)
			return summary, err
		}
		e.reportProgress(&summary, item.ID)
	}

	if remaining, err := e.queue.List(work); err != nil {
		log.Printf("[SYNC] Could not count remaining items: %v", err)
		summary.Remaining = summary.Total - summary.Succeeded - summary.Dropped
	} else {
		summary.Remaining = len(remaining)
	}

	e.finish(&summary, nil)
	return summary, nil
}

// drainItem runs the steps for one item and records the outcome in summary.
// Only queue storage errors are returned.
func (e *Engine) drainItem(ctx context.Context, item entities.QueuedItem, summary *Summary) error {
	// The snapshot may be stale: skip anything removed or replaced since
	// it was taken. A replacement waits for the next pass.
	if current, ok, err := e.queue.Get(ctx, item.ID); err != nil {
		return fmt.Errorf("look up item %s: %w", item.ID, err)
	} else if !ok || !current.SameAs(item) {
		summary.Dropped++
		return nil
	}

	if err := e.upload(ctx, item); err != nil {
		summary.fail(item.ID, StageUpload, err)
		log.Printf("[SYNC] Upload failed for %s: %v", item.ID, err)
		return nil
	}

	if !item.Encrypted {
		if err := e.encrypt(ctx, item); err != nil {
			summary.fail(item.ID, StageEncrypt, err)
			log.Printf("[SYNC] Encryption failed for %s: %v", item.ID, err)
			return nil
		}
	}

	removed, err := e.queue.RemoveItem(ctx, item)
	if err != nil {
		return fmt.Errorf("remove item %s: %w", item.ID, err)
	}
	if !removed {
		summary.Dropped++
		log.Printf("[SYNC] %s was removed or replaced during its upload, leaving the queue as is", item.ID)
		return nil
	}
	summary.Succeeded++
	return nil
}

func (e *Engine) upload(ctx context.Context, item entities.QueuedItem) error {
	stepCtx, cancel := context.WithTimeout(ctx, e.uploadTimeout)
	defer cancel()
	return boundStep(stepCtx, e.uploadTimeout, e.uploader.Upload(stepCtx, item))
}

func (e *Engine) encrypt(ctx context.Context, item entities.QueuedItem) error {
	if e.encrypter == nil {
		return nil
	}
	stepCtx, cancel := context.WithTimeout(ctx, e.encryptTimeout)
	defer cancel()
	return boundStep(stepCtx, e.encryptTimeout, e.encrypter.Encrypt(stepCtx, item))
}

// boundStep turns a step that overran its deadline into a failure even if
// the collaborator ignored the context and reported success.
func boundStep(ctx context.Context, limit time.Duration, err error) error {
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w after %v", ErrStepTimeout, limit)
	}
	return nil
}

func (e *Engine) finish(summary *Summary, err error) {
	summary.Duration = e.now().Sub(summary.StartedAt)

	e.lastMu.Lock()
	e.last = *summary
	e.haveLast = true
	e.lastMu.Unlock()

	if e.observer != nil {
		e.observer.ObserveDrain(*summary, err)
	}

	status := entities.SyncStatusCompleted
	msg := ""
	switch {
	case err != nil:
		status = entities.SyncStatusFailed
		msg = err.Error()
	case summary.Interrupted:
		status = entities.SyncStatusInterrupted
	case summary.Failed > 0:
		msg = fmt.Sprintf("%d items failed", summary.Failed)
	}

	if e.progress != nil {
		if perr := e.progress.CompleteSync(status, msg); perr != nil {
			log.Printf("[SYNC] Failed to record sync completion: %v", perr)
		}
	}

	description := fmt.Sprintf("Drained %d of %d items (%d failed, %d remaining)",
		summary.Succeeded, summary.Total, summary.Failed, summary.Remaining)
	if e.audit != nil {
		e.audit.LogSync("drain", description, err)
	}

	if err != nil {
		log.Printf("[SYNC] Drain aborted: %v", err)
		return
	}
	log.Printf("[SYNC] %s in %v", description, summary.Duration.Round(time.Millisecond))
}

func (e *Engine) reportStart(total int) {
	if e.progress == nil {
		return
	}
	if err := e.progress.StartSync(total); err != nil {
		log.Printf("[SYNC] Failed to record sync start: %v", err)
	}
}

func (e *Engine) reportProgress(summary *Summary, current string) {
	if e.progress == nil {
		return
	}
	if err := e.progress.UpdateProgress(summary.processed(), summary.Succeeded, summary.Failed, current); err != nil {
		log.Printf("[SYNC] Failed to record sync progress: %v", err)
	}
}

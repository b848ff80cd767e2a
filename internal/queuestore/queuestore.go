// Package queuestore persists the offline work queue.
//
// The whole queue is one JSON document in a storage.Backend. Every mutation
// is a read-modify-write of that document under a single mutex, so there is
// exactly one logical writer at a time. Items are kept in FIFO order by
// enqueue time, which is also the order the sync engine processes them in.
package queuestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/khelo/internal/entities"
	"github.com/mrlokans/khelo/internal/storage"
)

var (
	ErrDuplicateItem = errors.New("queue item with this id already exists")
	ErrInvalidItem   = errors.New("invalid queue item")
)

// StorageError reports that the queue record could not be read, parsed or
// written. The store never replaces a record it failed to parse.
type StorageError = storage.Error

// Stats is the queue summary shown next to the sync button.
type Stats struct {
	Count          int   `json:"count"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

// Listener is notified after every enqueue and every effective remove.
type Listener func(Stats)

type Store struct {
	backend storage.Backend
	key     string
	now     func() time.Time
	newID   func() string

	mu        sync.Mutex
	lastStamp time.Time

	listenersMu  sync.RWMutex
	listeners    map[int]Listener
	nextListener int
}

type Option func(*Store)

// WithClock replaces time.Now as the source of enqueue timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the uuid generator used for items without an id.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithKey stores the queue under a different record key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

func New(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		key:       entities.RecordKeyQueue,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue appends the item to the end of the queue and persists the whole
// list. The store assigns the enqueue timestamp; an empty id is replaced by
// a generated one.
func (s *Store) Enqueue(ctx context.Context, in entities.NewQueuedItem) (entities.QueuedItem, error) {
	if !in.Kind.Valid() {
		return entities.QueuedItem{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidItem, in.Kind)
	}
	if in.SizeBytes < 0 {
		return entities.QueuedItem{}, fmt.Errorf("%w: negative size", ErrInvalidItem)
	}
	if len(in.Payload) > 0 && !json.Valid(in.Payload) {
		return entities.QueuedItem{}, fmt.Errorf("%w: payload is not valid JSON", ErrInvalidItem)
	}

	item := entities.QueuedItem{
		ID:        in.ID,
		Kind:      in.Kind,
		TestID:    in.TestID,
		Payload:   append(json.RawMessage(nil), in.Payload...),
		Encrypted: in.Encrypted,
		SizeBytes: in.SizeBytes,
	}
	if item.ID == "" {
		item.ID = s.newID()
	}

	stats, err := s.update(ctx, func(items []entities.QueuedItem) ([]entities.QueuedItem, error) {
		for _, existing := range items {
			if existing.ID == item.ID {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, item.ID)
			}
		}
		item.EnqueuedAt = s.nextStamp(items)
		return append(items, item), nil
	})
	if err != nil {
		return entities.QueuedItem{}, err
	}

	log.Printf("[QUEUE] Enqueued %s item %s (test %s, %d bytes); %d queued",
		item.Kind, item.ID, item.TestID, item.SizeBytes, stats.Count)
	s.notify(stats)
	return item, nil
}

// List returns a snapshot of all items in FIFO order.
func (s *Store) List(ctx context.Context) ([]entities.QueuedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns the item with the given id, if queued.
func (s *Store) Get(ctx context.Context, id string) (entities.QueuedItem, bool, error) {
	items, err := s.List(ctx)
	if err != nil {
		return entities.QueuedItem{}, false, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, true, nil
		}
	}
	return entities.QueuedItem{}, false, nil
}

// Remove deletes the item with the given id. Removing an id that is not
// queued is a no-op and reports false; it neither writes nor notifies.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	return s.removeWhere(ctx, func(item entities.QueuedItem) bool { return item.ID == id })
}

// RemoveItem deletes item only if the queue still holds that exact item.
// An item replaced under the same id since it was read stays queued and
// false is reported, so the replacement is never lost unsent.
func (s *Store) RemoveItem(ctx context.Context, item entities.QueuedItem) (bool, error) {
	return s.removeWhere(ctx, item.SameAs)
}

func (s *Store) removeWhere(ctx context.Context, match func(entities.QueuedItem) bool) (bool, error) {
	removed := false
	stats, err := s.update(ctx, func(items []entities.QueuedItem) ([]entities.QueuedItem, error) {
		kept := items[:0:0]
		for _, item := range items {
			if !match(item) {
				kept = append(kept, item)
			}
		}
		if len(kept) == len(items) {
			return nil, nil
		}
		removed = true
		return kept, nil
	})
	if err != nil || !removed {
		return false, err
	}

	s.notify(stats)
	return true, nil
}

// update runs one read-modify-write of the queue record under the store
// mutex and, for shared backends, the record lock. A nil slice from fn means
// nothing changed and nothing is written.
func (s *Store) update(ctx context.Context, fn func([]entities.QueuedItem) ([]entities.QueuedItem, error)) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := storage.LockRecord(ctx, s.backend, s.key)
	if err != nil {
		return Stats{}, &StorageError{Store: "queue", Op: "lock", Key: s.key, Err: err}
	}
	defer unlock()

	items, err := s.load(ctx)
	if err != nil {
		return Stats{}, err
	}
	updated, err := fn(items)
	if err != nil || updated == nil {
		return statsOf(items), err
	}
	if err := s.save(ctx, updated); err != nil {
		return Stats{}, err
	}
	return statsOf(updated), nil
}

// Stats returns the current item count and total size.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	items, err := s.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return statsOf(items), nil
}

// Subscribe registers fn for change notifications and returns a function
// that unregisters it. Listeners run on the mutating goroutine after the
// store lock has been released, so they may call back into the store.
func (s *Store) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) notify(stats Stats) {
	s.listenersMu.RLock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(stats)
	}
}

// nextStamp never goes backwards, even if the wall clock does or the
// persisted queue was written by a process with a faster clock.
// Caller must hold s.mu.
func (s *Store) nextStamp(items []entities.QueuedItem) time.Time {
	stamp := s.now().UTC().Round(0)
	if n := len(items); n > 0 && items[n-1].EnqueuedAt.After(stamp) {
		stamp = items[n-1].EnqueuedAt
	}
	if s.lastStamp.After(stamp) {
		stamp = s.lastStamp
	}
	s.lastStamp = stamp
	return stamp
}

// load reads and decodes the queue record. Caller must hold s.mu.
func (s *Store) load(ctx context.Context) ([]entities.QueuedItem, error) {
	data, err := s.backend.Load(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []entities.QueuedItem{}, nil
	}
	if err != nil {
		return nil, &StorageError{Store: "queue", Op: "read", Key: s.key, Err: err}
	}
	if len(data) == 0 {
		return []entities.QueuedItem{}, nil
	}

	var items []entities.QueuedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &StorageError{Store: "queue", Op: "parse", Key: s.key, Err: err}
	}
	if items == nil {
		items = []entities.QueuedItem{}
	}
	return items, nil
}

// save encodes and writes the whole queue. Caller must hold s.mu.
func (s *Store) save(ctx context.Context, items []entities.QueuedItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return &StorageError{Store: "queue", Op: "encode", Key: s.key, Err: err}
	}
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		return &StorageError{Store: "queue", Op: "write", Key: s.key, Err: err}
	}
	return nil
}

func statsOf(items []entities.QueuedItem) Stats {
	stats := Stats{Count: len(items)}
	for _, item := range items {
		stats.TotalSizeBytes += item.SizeBytes
	}
	return stats
}

// Package store implements the serialized local cache: a bounded FIFO queue
// in front of a key/value persistence layer. Every read and write from the
// rest of the app funnels through one queue, so two operations on the same
// key never interleave their underlying I/O.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/plantfolk/plantkeeper/internal/common"
	"github.com/plantfolk/plantkeeper/internal/logging"
	"github.com/sethvargo/go-retry"
)

// Persistence is the underlying key/value layer the store serializes access
// to. Get returns common.ErrNotFound for absent keys.
type Persistence interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
}

const (
	// DefaultQueueCapacity bounds pending operations; exceeding it fails the
	// request immediately with ErrQueueOverflow instead of blocking.
	DefaultQueueCapacity = 100

	// DefaultMaxRetries bounds persistence retries per operation.
	DefaultMaxRetries = 3

	defaultBaseBackoff = 50 * time.Millisecond
)

type task struct {
	ctx  context.Context
	run  func(ctx context.Context)
	done chan struct{}
}

// Store serializes reads and writes through a single worker goroutine.
type Store struct {
	p          Persistence
	log        logging.Logger
	queue      chan *task
	maxRetries uint64
	backoff    time.Duration
	closed     chan struct{}
}

// Option tweaks Store construction. Tests shrink the backoff.
type Option func(*Store)

func WithQueueCapacity(n int) Option {
	return func(s *Store) { s.queue = make(chan *task, n) }
}

func WithMaxRetries(n uint64) Option {
	return func(s *Store) { s.maxRetries = n }
}

func WithBaseBackoff(d time.Duration) Option {
	return func(s *Store) { s.backoff = d }
}

// New creates a Store and starts its worker. Callers must Close it.
func New(p Persistence, log logging.Logger, opts ...Option) *Store {
	s := &Store{
		p:          p,
		log:        log,
		queue:      make(chan *task, DefaultQueueCapacity),
		maxRetries: DefaultMaxRetries,
		backoff:    defaultBaseBackoff,
		closed:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.worker()
	return s
}

func (s *Store) worker() {
	for t := range s.queue {
		t.run(t.ctx)
		close(t.done)
	}
	close(s.closed)
}

// Close stops the worker after draining already-queued operations.
func (s *Store) Close() {
	close(s.queue)
	<-s.closed
}

// submit enqueues fn and waits for it to run. A full queue fails immediately.
func (s *Store) submit(ctx context.Context, fn func(ctx context.Context)) error {
	t := &task{ctx: ctx, run: fn, done: make(chan struct{})}
	select {
	case s.queue <- t:
	default:
		s.log.Warn(ctx, "local store queue saturated, rejecting operation")
		return common.ErrQueueOverflow
	}
	<-t.done
	return nil
}

func (s *Store) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := op(ctx)
		if err == nil || errors.Is(err, common.ErrNotFound) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// Read returns the sequence stored under key. Failures never escape this
// layer: persistence errors after retries, and JSON corruption, both degrade
// to an empty sequence. Corrupt entries are additionally reset to empty so
// the next read is clean. The only error callers can see is ErrQueueOverflow.
func (s *Store) Read(ctx context.Context, key string) ([]json.RawMessage, error) {
	var result []json.RawMessage

	err := s.submit(ctx, func(ctx context.Context) {
		var raw string
		err := s.withRetry(ctx, func(ctx context.Context) error {
			var getErr error
			raw, getErr = s.p.Get(ctx, key)
			return getErr
		})
		if err != nil {
			if isNotFound(err) {
				result = []json.RawMessage{}
				return
			}
			s.log.Error(ctx, "local store read failed, degrading to empty", "key", key, "error", err)
			result = []json.RawMessage{}
			return
		}
		if raw == "" {
			result = []json.RawMessage{}
			return
		}

		var items []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			// Corruption: heal to empty rather than failing the app on
			// unreadable cache state.
			s.log.Error(ctx, "corrupt cached data, resetting key",
				"key", key, "error", fmt.Errorf("%w: %v", common.ErrCorruption, err))
			if resetErr := s.p.Set(ctx, key, "[]"); resetErr != nil {
				s.log.Error(ctx, "failed to reset corrupt key", "key", key, "error", resetErr)
			}
			result = []json.RawMessage{}
			return
		}
		result = items
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Write replaces the sequence stored under key. Persistence errors are
// retried with exponential backoff and surfaced after exhaustion.
func (s *Store) Write(ctx context.Context, key string, items []json.RawMessage) error {
	if items == nil {
		items = []json.RawMessage{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}

	var setErr error
	if err := s.submit(ctx, func(ctx context.Context) {
		setErr = s.withRetry(ctx, func(ctx context.Context) error {
			return s.p.Set(ctx, key, string(data))
		})
		if setErr != nil {
			s.log.Error(ctx, "local store write failed", "key", key, "error", setErr)
		}
	}); err != nil {
		return err
	}
	return setErr
}

// ReadString returns the scalar string stored under key ("" when absent).
// Used for bookkeeping keys like the last-sync timestamp.
func (s *Store) ReadString(ctx context.Context, key string) (string, error) {
	var result string
	err := s.submit(ctx, func(ctx context.Context) {
		var raw string
		if err := s.withRetry(ctx, func(ctx context.Context) error {
			var getErr error
			raw, getErr = s.p.Get(ctx, key)
			return getErr
		}); err != nil {
			if !isNotFound(err) {
				s.log.Error(ctx, "local store read failed, degrading to empty", "key", key, "error", err)
			}
			return
		}
		result = raw
	})
	return result, err
}

// WriteString stores a scalar string under key.
func (s *Store) WriteString(ctx context.Context, key, value string) error {
	var setErr error
	if err := s.submit(ctx, func(ctx context.Context) {
		setErr = s.withRetry(ctx, func(ctx context.Context) error {
			return s.p.Set(ctx, key, value)
		})
		if setErr != nil {
			s.log.Error(ctx, "local store write failed", "key", key, "error", setErr)
		}
	}); err != nil {
		return err
	}
	return setErr
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}

// ReadAs reads and decodes the sequence under key into typed values.
// Elements that fail to decode are skipped and logged by the caller's layer;
// the store itself already healed list-level corruption.
func ReadAs[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	raw, err := s.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteAs encodes typed values and writes them under key.
func WriteAs[T any](ctx context.Context, s *Store, key string, items []T) error {
	raw := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		b, err := json.Marshal(it)
		if err != nil {
			return err
		}
		raw = append(raw, b)
	}
	return s.Write(ctx, key, raw)
}

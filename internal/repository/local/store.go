// Package local implements the repositories on top of a key-value store,
// behaving like the upstream API with simulated latency and seeded data.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/kvstore"
	"github.com/noah-isme/plaksha-connect/internal/observability"
)

// KeyPrefix is shared by every collection key.
const KeyPrefix = "mock_"

// lockStripes bounds the number of mutexes however many per-group message
// collections are created.
const lockStripes = 64

// WriteMode controls how concurrent writes to one collection interact.
type WriteMode string

const (
	// WriteSerialized holds a per-collection lock across read, delay and write.
	WriteSerialized WriteMode = "serialized"
	// WriteUnguarded reads, waits and writes back without a lock, so
	// concurrent writers can overwrite each other.
	WriteUnguarded WriteMode = "unguarded"
)

// ParseWriteMode validates a configured write mode.
func ParseWriteMode(value string) (WriteMode, error) {
	switch WriteMode(value) {
	case WriteSerialized, "":
		return WriteSerialized, nil
	case WriteUnguarded:
		return WriteUnguarded, nil
	default:
		return "", fmt.Errorf("unknown write mode %q", value)
	}
}

// Operation identifies a local call for fault injection.
type Operation struct {
	Collection string
	Action     string
}

// FaultInjector lets tests fail selected operations. A nil return lets the
// operation proceed.
type FaultInjector func(op Operation) error

// LatencyFunc simulates network delay. It must return ctx.Err() when the
// context ends first.
type LatencyFunc func(ctx context.Context) error

// FixedLatency waits d before each operation.
func FixedLatency(d time.Duration) LatencyFunc {
	return func(ctx context.Context) error {
		if d <= 0 {
			return ctx.Err()
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

// Options configures a Store.
type Options struct {
	Latency   LatencyFunc
	WriteMode WriteMode
	Faults    FaultInjector
	Clock     func() time.Time
	Logger    zerolog.Logger
}

// Store owns the key-value backend and the behaviour shared by all
// collections.
type Store struct {
	kv      kvstore.Store
	latency LatencyFunc
	mode    WriteMode
	faults  FaultInjector
	clock   func() time.Time
	logger  zerolog.Logger

	stripes [lockStripes]sync.Mutex
}

// NewStore wraps kv.
func NewStore(kv kvstore.Store, opts Options) *Store {
	if opts.Latency == nil {
		opts.Latency = FixedLatency(0)
	}
	if opts.WriteMode == "" {
		opts.WriteMode = WriteSerialized
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Store{
		kv:      kv,
		latency: opts.Latency,
		mode:    opts.WriteMode,
		faults:  opts.Faults,
		clock:   opts.Clock,
		logger:  opts.Logger.With().Str("component", "local_store").Logger(),
	}
}

// Reset removes every collection so the next read reseeds it.
func (s *Store) Reset(ctx context.Context) (int, error) {
	unlock := s.lockAll()
	defer unlock()
	cleared, err := kvstore.Clear(ctx, s.kv, KeyPrefix)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.KindServer, "failed to reset local store")
	}
	s.logger.Info().Int("cleared", cleared).Msg("local store reset")
	return cleared, nil
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

// touch returns a timestamp strictly after prev.
func (s *Store) touch(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func (s *Store) fault(op Operation) error {
	if s.faults == nil {
		return nil
	}
	return s.faults(op)
}

func stripeOf(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % lockStripes)
}

// lock acquires the stripes covering keys in ascending order. Keys sharing a
// stripe share its mutex.
func (s *Store) lock(keys ...string) func() {
	idx := make([]int, 0, len(keys))
	for _, key := range keys {
		idx = append(idx, stripeOf(key))
	}
	sort.Ints(idx)
	held := make([]*sync.Mutex, 0, len(idx))
	for i, n := range idx {
		if i > 0 && n == idx[i-1] {
			continue
		}
		s.stripes[n].Lock()
		held = append(held, &s.stripes[n])
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (s *Store) lockAll() func() {
	for i := range s.stripes {
		s.stripes[i].Lock()
	}
	return func() {
		for i := len(s.stripes) - 1; i >= 0; i-- {
			s.stripes[i].Unlock()
		}
	}
}

// read runs a read-only operation: latency, then load under the key locks.
func (s *Store) read(ctx context.Context, op Operation, keys []string, load func() error) (err error) {
	defer func() { record(op, err) }()
	if err := s.fault(op); err != nil {
		return err
	}
	if err := s.latency(ctx); err != nil {
		return err
	}
	unlock := s.lock(keys...)
	defer unlock()
	return load()
}

// write runs a read-modify-write. In serialized mode the key locks cover the
// whole sequence; in unguarded mode nothing is held.
func (s *Store) write(ctx context.Context, op Operation, keys []string, load, apply func() error) (err error) {
	defer func() { record(op, err) }()
	if err := s.fault(op); err != nil {
		return err
	}
	if s.mode == WriteSerialized {
		unlock := s.lock(keys...)
		defer unlock()
	}
	if err := load(); err != nil {
		return err
	}
	if err := s.latency(ctx); err != nil {
		return err
	}
	return apply()
}

func record(op Operation, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperror.KindOf(err))
	}
	observability.StoreOperations().WithLabelValues(op.Collection, op.Action, outcome).Inc()
}

// collection is one JSON array stored under a single key.
type collection[T any] struct {
	store *Store
	name  string
	key   string
	seed  func(now time.Time) []T
}

func newCollection[T any](store *Store, name string, seed func(now time.Time) []T) *collection[T] {
	return &collection[T]{store: store, name: name, key: KeyPrefix + name, seed: seed}
}

func (c *collection[T]) op(action string) Operation {
	return Operation{Collection: c.name, Action: action}
}

// load reads the collection. A missing or empty collection is reseeded.
func (c *collection[T]) load(ctx context.Context) ([]T, error) {
	raw, ok, err := c.store.kv.Get(ctx, c.key)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindServer, "failed to read local store")
	}

	var items []T
	if ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, apperror.Wrap(err, apperror.KindServer, "corrupt local collection "+c.name)
		}
	}
	if len(items) > 0 || c.seed == nil {
		return items, nil
	}

	seeded := c.seed(c.store.now())
	if len(seeded) == 0 {
		return items, nil
	}
	if err := c.save(ctx, seeded); err != nil {
		return nil, err
	}
	return seeded, nil
}

func (c *collection[T]) save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return apperror.Wrap(err, apperror.KindServer, "failed to encode local collection "+c.name)
	}
	if err := c.store.kv.Set(ctx, c.key, raw); err != nil {
		return apperror.Wrap(err, apperror.KindServer, "failed to write local store")
	}
	return nil
}

func (c *collection[T]) drop(ctx context.Context) error {
	if err := c.store.kv.Delete(ctx, c.key); err != nil {
		return apperror.Wrap(err, apperror.KindServer, "failed to write local store")
	}
	return nil
}

// all returns every item after the simulated latency.
func (c *collection[T]) all(ctx context.Context, action string) ([]T, error) {
	var items []T
	err := c.store.read(ctx, c.op(action), []string{c.key}, func() error {
		var err error
		items, err = c.load(ctx)
		return err
	})
	return items, err
}

// mutate applies fn to the collection and saves the result.
func (c *collection[T]) mutate(ctx context.Context, action string, fn func(items []T) ([]T, error)) error {
	var items []T
	return c.store.write(ctx, c.op(action), []string{c.key},
		func() error {
			var err error
			items, err = c.load(ctx)
			return err
		},
		func() error {
			updated, err := fn(items)
			if err != nil {
				return err
			}
			return c.save(ctx, updated)
		},
	)
}

// mutatePair applies fn to two collections as one write.
func mutatePair[A, B any](ctx context.Context, action string, a *collection[A], b *collection[B], fn func(as []A, bs []B) ([]A, []B, error)) error {
	var (
		as []A
		bs []B
	)
	return a.store.write(ctx, a.op(action), []string{a.key, b.key},
		func() error {
			var err error
			if as, err = a.load(ctx); err != nil {
				return err
			}
			bs, err = b.load(ctx)
			return err
		},
		func() error {
			updatedA, updatedB, err := fn(as, bs)
			if err != nil {
				return err
			}
			if err := a.save(ctx, updatedA); err != nil {
				return err
			}
			return b.save(ctx, updatedB)
		},
	)
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i := range items {
		if match(items[i]) {
			return i
		}
	}
	return -1
}

func filterItems[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func prepend[T any](items []T, item T) []T {
	return append([]T{item}, items...)
}

// Package viewstate holds the last fetched collection and detail record of a
// screen together with its loading and error flags.
package viewstate

import (
	"context"
	"sync"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
)

// State is a point-in-time copy of a container.
type State[T any] struct {
	Items    []T
	Selected *T
	Loading  bool
	Error    string
}

// Container guards a State. The zero value is ready to use.
type Container[T any] struct {
	mu       sync.RWMutex
	state    State[T]
	inflight int
}

// New returns an empty container.
func New[T any]() *Container[T] {
	return &Container[T]{}
}

// Snapshot copies the current state. Mutating the result does not affect
// the container.
func (c *Container[T]) Snapshot() State[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := State[T]{Loading: c.state.Loading, Error: c.state.Error}
	if c.state.Items != nil {
		out.Items = append([]T(nil), c.state.Items...)
	}
	if c.state.Selected != nil {
		selected := *c.state.Selected
		out.Selected = &selected
	}
	return out
}

// Items returns a copy of the current collection.
func (c *Container[T]) Items() []T {
	return c.Snapshot().Items
}

// SetItems replaces the collection outside of a Run.
func (c *Container[T]) SetItems(items []T) {
	c.mu.Lock()
	c.state.Items = items
	c.mu.Unlock()
}

// Update replaces the collection with fn applied to a copy of it. fn runs
// under the container lock and must not call back into c.
func (c *Container[T]) Update(fn func(items []T) []T) {
	c.mu.Lock()
	c.state.Items = fn(append([]T(nil), c.state.Items...))
	c.mu.Unlock()
}

// Select replaces the detail slot outside of a Run.
func (c *Container[T]) Select(item *T) {
	c.mu.Lock()
	c.state.Selected = item
	c.mu.Unlock()
}

// Fail records err as the current error.
func (c *Container[T]) Fail(err error) {
	c.mu.Lock()
	c.state.Error = apperror.MessageOf(err)
	c.mu.Unlock()
}

// ClearError drops the current error.
func (c *Container[T]) ClearError() {
	c.mu.Lock()
	c.state.Error = ""
	c.mu.Unlock()
}

func (c *Container[T]) begin() {
	c.mu.Lock()
	c.inflight++
	c.state.Loading = true
	c.state.Error = ""
	c.mu.Unlock()
}

// finish ends one call. Loading stays true while other calls are running.
func (c *Container[T]) finish(apply func(*State[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if apply != nil {
		apply(&c.state)
	}
	if c.inflight > 0 {
		c.inflight--
	}
	c.state.Loading = c.inflight > 0
}

// Run loads a collection into c. On success the items are replaced; on
// failure the error is recorded and the previous items stay.
func Run[T any](ctx context.Context, c *Container[T], fn func(ctx context.Context) ([]T, error)) error {
	c.begin()
	items, err := fn(ctx)
	c.finish(func(s *State[T]) {
		if err != nil {
			s.Error = apperror.MessageOf(err)
			return
		}
		s.Items = items
	})
	return err
}

// RunSelected loads a single record into the detail slot of c.
func RunSelected[T any](ctx context.Context, c *Container[T], fn func(ctx context.Context) (*T, error)) error {
	c.begin()
	item, err := fn(ctx)
	c.finish(func(s *State[T]) {
		if err != nil {
			s.Error = apperror.MessageOf(err)
			return
		}
		s.Selected = item
	})
	return err
}

// Mutate runs a write whose result is merged into the collection by merge.
// Nothing changes on failure apart from the error.
func Mutate[T, R any](ctx context.Context, c *Container[T], fn func(ctx context.Context) (R, error), merge func(items []T, result R) []T) (R, error) {
	c.begin()
	result, err := fn(ctx)
	c.finish(func(s *State[T]) {
		if err != nil {
			s.Error = apperror.MessageOf(err)
			return
		}
		if merge != nil {
			s.Items = merge(s.Items, result)
		}
	})
	return result, err
}

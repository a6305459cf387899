package viewstate

import (
	"context"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
)

// Optimistic describes a change that is shown before it is persisted.
//
// Draft is placed in the collection immediately, replacing the entry with the
// same key or appended when there is none. Persist then stores the change.
// On success Settle turns the draft into the persisted entry, which may carry
// a different key. When Settle returns false the entry is removed. On failure
// the exact prior entry is restored, or the draft is removed if it was new.
type Optimistic[T, R any] struct {
	Key     func(T) string
	Draft   T
	Persist func(ctx context.Context) (R, error)
	Settle  func(draft T, persisted R) (T, bool)
}

// Removal hides the entry with key until Persist confirms its removal.
type Removal[T any] struct {
	Key     func(T) string
	ID      string
	Persist func(ctx context.Context) error
}

type undo[T any] struct {
	key   func(T) string
	id    string
	prior *T
	index int
}

func (u undo[T]) restore(items []T) []T {
	i := indexOf(items, u.key, u.id)
	switch {
	case u.prior == nil && i >= 0:
		return append(items[:i:i], items[i+1:]...)
	case u.prior == nil:
		return items
	case i >= 0:
		items[i] = *u.prior
		return items
	default:
		pos := u.index
		if pos > len(items) {
			pos = len(items)
		}
		out := make([]T, 0, len(items)+1)
		out = append(out, items[:pos]...)
		out = append(out, *u.prior)
		return append(out, items[pos:]...)
	}
}

func indexOf[T any](items []T, key func(T) string, id string) int {
	for i := range items {
		if key(items[i]) == id {
			return i
		}
	}
	return -1
}

// Commit applies op to c, persists it and either reconciles or rolls back.
func Commit[T, R any](ctx context.Context, c *Container[T], op Optimistic[T, R]) (R, error) {
	id := op.Key(op.Draft)

	c.mu.Lock()
	c.inflight++
	c.state.Loading = true
	c.state.Error = ""
	items := append([]T(nil), c.state.Items...)
	u := undo[T]{key: op.Key, id: id, index: len(items)}
	if i := indexOf(items, op.Key, id); i >= 0 {
		prior := items[i]
		u.prior = &prior
		u.index = i
		items[i] = op.Draft
	} else {
		items = append(items, op.Draft)
	}
	c.state.Items = items
	c.mu.Unlock()

	persisted, err := op.Persist(ctx)

	c.finish(func(s *State[T]) {
		items := append([]T(nil), s.Items...)
		if err != nil {
			s.Items = u.restore(items)
			s.Error = apperror.MessageOf(err)
			return
		}
		i := indexOf(items, op.Key, id)
		if i < 0 {
			return
		}
		settled, keep := op.Draft, true
		if op.Settle != nil {
			settled, keep = op.Settle(items[i], persisted)
		}
		if !keep {
			s.Items = append(items[:i:i], items[i+1:]...)
			return
		}
		items[i] = settled
		s.Items = items
	})
	return persisted, err
}

// Remove hides an entry, persists the removal and restores the entry at its
// previous position when persistence fails.
func Remove[T any](ctx context.Context, c *Container[T], op Removal[T]) error {
	c.mu.Lock()
	c.inflight++
	c.state.Loading = true
	c.state.Error = ""
	u := undo[T]{key: op.Key, id: op.ID}
	if i := indexOf(c.state.Items, op.Key, op.ID); i >= 0 {
		prior := c.state.Items[i]
		u.prior = &prior
		u.index = i
		items := append([]T(nil), c.state.Items[:i]...)
		c.state.Items = append(items, c.state.Items[i+1:]...)
	}
	c.mu.Unlock()

	err := op.Persist(ctx)

	c.finish(func(s *State[T]) {
		if err == nil {
			return
		}
		s.Error = apperror.MessageOf(err)
		if u.prior != nil && indexOf(s.Items, op.Key, op.ID) < 0 {
			s.Items = u.restore(append([]T(nil), s.Items...))
		}
	})
	return err
}

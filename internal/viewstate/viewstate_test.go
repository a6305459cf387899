package viewstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
)

type entry struct {
	ID    string
	Value int
}

func entryKey(e entry) string { return e.ID }

func seeded() *Container[entry] {
	c := New[entry]()
	c.SetItems([]entry{{ID: "a", Value: 1}, {ID: "b", Value: 2}, {ID: "c", Value: 3}})
	return c
}

func TestRunReplacesItemsOnSuccess(t *testing.T) {
	c := New[entry]()
	var during State[entry]

	err := Run(context.Background(), c, func(context.Context) ([]entry, error) {
		during = c.Snapshot()
		return []entry{{ID: "x"}}, nil
	})
	require.NoError(t, err)
	require.True(t, during.Loading)

	state := c.Snapshot()
	require.False(t, state.Loading)
	require.Empty(t, state.Error)
	require.Equal(t, []entry{{ID: "x"}}, state.Items)
}

func TestRunKeepsItemsOnFailure(t *testing.T) {
	c := seeded()
	c.Fail(errors.New("stale"))

	err := Run(context.Background(), c, func(context.Context) ([]entry, error) {
		require.Empty(t, c.Snapshot().Error)
		return nil, apperror.New(apperror.KindNetwork, "network unreachable")
	})
	require.ErrorIs(t, err, apperror.ErrNetwork)

	state := c.Snapshot()
	require.False(t, state.Loading)
	require.Equal(t, "network unreachable", state.Error)
	require.Len(t, state.Items, 3)
}

func TestRunSelected(t *testing.T) {
	c := seeded()

	require.NoError(t, RunSelected(context.Background(), c, func(context.Context) (*entry, error) {
		return &entry{ID: "b", Value: 2}, nil
	}))
	require.Equal(t, "b", c.Snapshot().Selected.ID)

	err := RunSelected(context.Background(), c, func(context.Context) (*entry, error) {
		return nil, apperror.NotFound("entry not found")
	})
	require.Error(t, err)
	state := c.Snapshot()
	require.Equal(t, "b", state.Selected.ID)
	require.Equal(t, "entry not found", state.Error)
}

func TestSnapshotIsACopy(t *testing.T) {
	c := seeded()
	c.Select(&entry{ID: "a"})

	snap := c.Snapshot()
	snap.Items[0].Value = 99
	snap.Selected.ID = "z"

	again := c.Snapshot()
	require.Equal(t, 1, again.Items[0].Value)
	require.Equal(t, "a", again.Selected.ID)
}

func TestMutateMergesResult(t *testing.T) {
	c := seeded()

	created, err := Mutate(context.Background(), c, func(context.Context) (entry, error) {
		return entry{ID: "d", Value: 4}, nil
	}, func(items []entry, e entry) []entry { return append([]entry{e}, items...) })
	require.NoError(t, err)
	require.Equal(t, "d", created.ID)
	require.Equal(t, "d", c.Items()[0].ID)

	_, err = Mutate(context.Background(), c, func(context.Context) (entry, error) {
		return entry{}, apperror.Validation("bad")
	}, func(items []entry, e entry) []entry { return append(items, e) })
	require.Error(t, err)
	require.Len(t, c.Items(), 4)
}

func TestCommitAppendsThenSettles(t *testing.T) {
	c := seeded()
	var shown []entry

	_, err := Commit(context.Background(), c, Optimistic[entry, entry]{
		Key:   entryKey,
		Draft: entry{ID: "temp-1", Value: 10},
		Persist: func(context.Context) (entry, error) {
			shown = c.Items()
			return entry{ID: "d", Value: 10}, nil
		},
		Settle: func(_ entry, persisted entry) (entry, bool) { return persisted, true },
	})
	require.NoError(t, err)
	require.Equal(t, "temp-1", shown[3].ID)

	items := c.Items()
	require.Len(t, items, 4)
	require.Equal(t, "d", items[3].ID)
}

func TestCommitRollsBackNewEntry(t *testing.T) {
	c := seeded()

	_, err := Commit(context.Background(), c, Optimistic[entry, entry]{
		Key:     entryKey,
		Draft:   entry{ID: "temp-1"},
		Persist: func(context.Context) (entry, error) { return entry{}, apperror.New(apperror.KindNetwork, "offline") },
	})
	require.Error(t, err)

	state := c.Snapshot()
	require.Len(t, state.Items, 3)
	require.Equal(t, "offline", state.Error)
	require.False(t, state.Loading)
}

func TestCommitRestoresExactPriorEntry(t *testing.T) {
	c := seeded()

	_, err := Commit(context.Background(), c, Optimistic[entry, int]{
		Key:   entryKey,
		Draft: entry{ID: "b", Value: 50},
		Persist: func(context.Context) (int, error) {
			require.Equal(t, 50, c.Items()[1].Value)
			return 0, apperror.New(apperror.KindServer, "failed")
		},
	})
	require.Error(t, err)
	require.Equal(t, []entry{{ID: "a", Value: 1}, {ID: "b", Value: 2}, {ID: "c", Value: 3}}, c.Items())
}

func TestCommitRollbackKeepsConcurrentChanges(t *testing.T) {
	c := seeded()
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		_, _ = Commit(context.Background(), c, Optimistic[entry, int]{
			Key:   entryKey,
			Draft: entry{ID: "a", Value: 100},
			Persist: func(context.Context) (int, error) {
				<-release
				return 0, errors.New("boom")
			},
		})
	}()

	require.Eventually(t, func() bool { return c.Items()[0].Value == 100 }, time.Second, time.Millisecond)
	_, err := Commit(context.Background(), c, Optimistic[entry, int]{
		Key:     entryKey,
		Draft:   entry{ID: "c", Value: 30},
		Persist: func(context.Context) (int, error) { return 1, nil },
	})
	require.NoError(t, err)
	require.True(t, c.Snapshot().Loading)

	close(release)
	wg.Wait()

	state := c.Snapshot()
	require.False(t, state.Loading)
	require.Equal(t, "boom", state.Error)
	require.Equal(t, []entry{{ID: "a", Value: 1}, {ID: "b", Value: 2}, {ID: "c", Value: 30}}, state.Items)
}

func TestCommitSettleCanDrop(t *testing.T) {
	c := seeded()

	_, err := Commit(context.Background(), c, Optimistic[entry, bool]{
		Key:     entryKey,
		Draft:   entry{ID: "c", Value: 0},
		Persist: func(context.Context) (bool, error) { return true, nil },
		Settle:  func(entry, bool) (entry, bool) { return entry{}, false },
	})
	require.NoError(t, err)
	require.Len(t, c.Items(), 2)
}

func TestRemoveRestoresPositionOnFailure(t *testing.T) {
	c := seeded()

	err := Remove(context.Background(), c, Removal[entry]{
		Key: entryKey,
		ID:  "b",
		Persist: func(context.Context) error {
			require.Len(t, c.Items(), 2)
			return apperror.Forbidden("not allowed")
		},
	})
	require.ErrorIs(t, err, apperror.ErrForbidden)
	require.Equal(t, "b", c.Items()[1].ID)
	require.Equal(t, "not allowed", c.Snapshot().Error)

	require.NoError(t, Remove(context.Background(), c, Removal[entry]{
		Key: entryKey, ID: "b", Persist: func(context.Context) error { return nil },
	}))
	require.Len(t, c.Items(), 2)
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/infrastructure/table"
)

func newDraft(t *testing.T) *Draft {
	t.Helper()
	d, err := NewDraft(table.StandardSchema(), 10*time.Millisecond)
	require.NoError(t, err)
	return d
}

func TestDraftCacheAddFindDelete(t *testing.T) {
	c := NewDraftCache()
	d := newDraft(t)
	c.AddDraft(d)

	got, ok := c.FindDraftByToken(d.ID)
	require.True(t, ok)
	assert.Same(t, d, got)
	assert.Equal(t, 1, got.Table.Len())

	c.DeleteDraftByToken(d.ID)
	_, ok = c.FindDraftByToken(d.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestNewDraftRejectsInvalidSchema(t *testing.T) {
	_, err := NewDraft(&table.Schema{}, time.Second)
	assert.ErrorIs(t, err, table.ErrInvalidSchema)
}

func TestDraftTokensAreUnique(t *testing.T) {
	a, b := newDraft(t), newDraft(t)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSweepEvictsIdleDrafts(t *testing.T) {
	c := NewDraftCache()
	stale, fresh := newDraft(t), newDraft(t)
	c.AddDraft(stale)
	c.AddDraft(fresh)

	now := time.Now()
	stale.Touch(now.Add(-2 * time.Hour))
	fresh.Touch(now)

	ids := c.Sweep(now, time.Hour)
	assert.Equal(t, []string{stale.ID}, ids)
	assert.Equal(t, 1, c.Len())
	_, ok := c.FindDraftByToken(fresh.ID)
	assert.True(t, ok)
}

func TestRunSweeperStopsWithContext(t *testing.T) {
	c := NewDraftCache()
	d := newDraft(t)
	c.AddDraft(d)
	d.Touch(time.Now().Add(-time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.RunSweeper(ctx, 5*time.Millisecond, time.Minute) }()

	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

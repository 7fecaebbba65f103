package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/event-service/internal/domain"
)

func newCache(t *testing.T, ttl time.Duration) (*EventCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewEventCache(client, ttl, nil), mr
}

func sampleEvent(id int64) domain.Event {
	return domain.Event{
		ID:    id,
		Name:  "Go meetup",
		Date:  time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC),
		Venue: "Hall A",
	}
}

func TestEventCache_ListRoundTrip(t *testing.T) {
	c, mr := newCache(t, time.Minute)
	ctx := context.Background()

	_, gen, ok := c.GetList(ctx)
	assert.False(t, ok)

	c.SetList(ctx, gen, []domain.Event{sampleEvent(1), sampleEvent(2)})
	assert.True(t, mr.Exists("events:v0:list"))
	got, _, ok := c.GetList(ctx)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[1].ID)
	assert.True(t, got[0].Date.Equal(sampleEvent(1).Date))

	mr.FastForward(2 * time.Minute)
	_, _, ok = c.GetList(ctx)
	assert.False(t, ok)
}

func TestEventCache_ItemAndInvalidate(t *testing.T) {
	c, mr := newCache(t, time.Minute)
	ctx := context.Background()

	e := sampleEvent(7)
	_, gen, _ := c.GetEvent(ctx, 7)
	c.SetEvent(ctx, gen, &e)
	c.SetList(ctx, gen, []domain.Event{e})
	assert.True(t, mr.Exists("events:v0:item:7"))

	got, _, ok := c.GetEvent(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, "Go meetup", got.Name)

	c.Invalidate(ctx)
	genVal, err := mr.Get("events:gen")
	require.NoError(t, err)
	assert.Equal(t, "1", genVal)

	_, _, ok = c.GetEvent(ctx, 7)
	assert.False(t, ok)
	_, _, ok = c.GetList(ctx)
	assert.False(t, ok)
}

func TestEventCache_FillRacingInvalidateIsNotServed(t *testing.T) {
	c, _ := newCache(t, time.Minute)
	ctx := context.Background()

	// A reader misses and goes to the database.
	_, listGen, ok := c.GetList(ctx)
	require.False(t, ok)
	_, itemGen, ok := c.GetEvent(ctx, 1)
	require.False(t, ok)

	// A write commits and invalidates before the reader fills with what it read.
	c.Invalidate(ctx)
	stale := sampleEvent(1)
	c.SetList(ctx, listGen, []domain.Event{stale})
	c.SetEvent(ctx, itemGen, &stale)

	_, _, ok = c.GetList(ctx)
	assert.False(t, ok)
	_, _, ok = c.GetEvent(ctx, 1)
	assert.False(t, ok)

	// Fills against the current generation are served again.
	_, gen, _ := c.GetList(ctx)
	c.SetList(ctx, gen, []domain.Event{sampleEvent(2)})
	got, _, ok := c.GetList(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestEventCache_CorruptEntryIsDropped(t *testing.T) {
	c, mr := newCache(t, time.Minute)
	require.NoError(t, mr.Set("events:v0:list", "{not json"))

	_, _, ok := c.GetList(context.Background())
	assert.False(t, ok)
	assert.False(t, mr.Exists("events:v0:list"))
}

func TestEventCache_DisabledIsAlwaysMiss(t *testing.T) {
	c, mr := newCache(t, 0)
	ctx := context.Background()

	_, gen, ok := c.GetList(ctx)
	assert.False(t, ok)
	c.SetList(ctx, gen, []domain.Event{sampleEvent(1)})
	assert.False(t, mr.Exists("events:v0:list"))
	_, _, ok = c.GetList(ctx)
	assert.False(t, ok)

	var nilCache *EventCache
	_, gen, ok = nilCache.GetEvent(ctx, 1)
	assert.False(t, ok)
	nilCache.SetEvent(ctx, gen, &domain.Event{ID: 1})
	nilCache.Invalidate(ctx)
}

func TestEventCache_UnreachableServerDegrades(t *testing.T) {
	c, mr := newCache(t, time.Minute)
	mr.Close()

	ctx := context.Background()
	_, gen, ok := c.GetList(ctx)
	assert.False(t, ok)
	c.SetList(ctx, gen, []domain.Event{sampleEvent(1)})
	_, _, ok = c.GetList(ctx)
	assert.False(t, ok)
	c.Invalidate(ctx)
}

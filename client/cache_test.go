// ABOUTME: Tests for the tag-indexed query cache
// ABOUTME: Covers stale-while-revalidate reads and invalidation convergence
package client

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingFetch(counter *int64, value interface{}) FetchFunc {
	return func(ctx context.Context) (interface{}, error) {
		atomic.AddInt64(counter, 1)
		return value, nil
	}
}

func TestGetUnknownQuery(t *testing.T) {
	c := NewCache(testLogger())
	_, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownQuery)
}

func TestFirstGetFetchesSynchronously(t *testing.T) {
	c := NewCache(testLogger())
	var calls int64
	c.Register("leads", Query{Tags: []string{TagLeads}, Fetch: countingFetch(&calls, "v1")})

	got, err := c.Get(context.Background(), "leads")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))

	// Fresh entry: no refetch.
	got, err = c.Get(context.Background(), "leads")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestStaleReadReturnsLastKnownAndRefetchesOnce(t *testing.T) {
	c := NewCache(testLogger())
	var calls int64
	release := make(chan struct{})
	c.Register("leads", Query{
		Tags: []string{TagLeads},
		Fetch: func(ctx context.Context) (interface{}, error) {
			atomic.AddInt64(&calls, 1)
			<-release
			return "fresh", nil
		},
	})

	c.Set("leads", "old")
	c.Invalidate(TagLeads)
	require.True(t, c.IsStale("leads"))

	// Repeated stale reads while the refetch is still in flight: all serve
	// the last-known value, and only one background refetch runs.
	for i := 0; i < 5; i++ {
		got, err := c.Get(context.Background(), "leads")
		require.NoError(t, err)
		assert.Equal(t, "old", got)
	}
	close(release)

	require.Eventually(t, func() bool { return !c.IsStale("leads") },
		2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))

	got, err := c.Get(context.Background(), "leads")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

func TestFailedRefetchKeepsLastKnown(t *testing.T) {
	c := NewCache(testLogger())
	fail := errors.New("backend down")
	c.Register("leads", Query{
		Tags:  []string{TagLeads},
		Fetch: func(ctx context.Context) (interface{}, error) { return nil, fail },
	})

	c.Set("leads", "survivor")
	c.Invalidate(TagLeads)

	got, err := c.Get(context.Background(), "leads")
	require.NoError(t, err)
	assert.Equal(t, "survivor", got)

	// The refetch fails in the background; the entry stays stale and the
	// value stays intact, so the next read retries.
	require.Eventually(t, func() bool {
		v, ok := c.Peek("leads")
		return ok && v == "survivor" && c.IsStale("leads")
	}, 2*time.Second, 5*time.Millisecond)
}

func TestFirstFetchErrorSurfaces(t *testing.T) {
	c := NewCache(testLogger())
	fail := errors.New("backend down")
	c.Register("leads", Query{
		Fetch: func(ctx context.Context) (interface{}, error) { return nil, fail },
	})

	_, err := c.Get(context.Background(), "leads")
	assert.ErrorIs(t, err, fail)
}

func TestRefreshIntervalTriggersPoll(t *testing.T) {
	c := NewCache(testLogger())
	var calls int64
	c.Register("stats", Query{
		Tags:    []string{TagDashboard},
		Fetch:   countingFetch(&calls, "stats"),
		Refresh: 20 * time.Millisecond,
	})

	_, err := c.Get(context.Background(), "stats")
	require.NoError(t, err)
	require.Equal(t, int64(1), atomic.LoadInt64(&calls))

	time.Sleep(40 * time.Millisecond)
	_, err = c.Get(context.Background(), "stats")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return atomic.LoadInt64(&calls) == 2 },
		2*time.Second, 5*time.Millisecond, "poll interval never triggered a refetch")
}

func TestInvalidateByTag(t *testing.T) {
	c := NewCache(testLogger())
	c.Register("leads", Query{Tags: []string{TagLeads, TagDashboard}})
	c.Register("campaigns", Query{Tags: []string{TagCampaigns, TagDashboard}})
	c.Register("stats", Query{Tags: []string{TagDashboard}})
	c.Set("leads", 1)
	c.Set("campaigns", 2)
	c.Set("stats", 3)

	c.Invalidate(TagLeads)

	assert.True(t, c.IsStale("leads"))
	assert.False(t, c.IsStale("campaigns"))
	assert.False(t, c.IsStale("stats"))
}

func TestInvalidateIsIdempotent(t *testing.T) {
	c := NewCache(testLogger())
	c.Register("leads", Query{Tags: []string{TagLeads}})
	c.Set("leads", 1)

	c.Invalidate(TagLeads)
	first := c.StaleKeys()
	c.Invalidate(TagLeads)
	c.Invalidate(TagLeads)
	assert.ElementsMatch(t, first, c.StaleKeys())
}

func TestInvalidationOrderIsCommutative(t *testing.T) {
	build := func() *Cache {
		c := NewCache(testLogger())
		c.Register("leads", Query{Tags: []string{TagLeads, TagDashboard}})
		c.Register("campaigns", Query{Tags: []string{TagCampaigns, TagDashboard}})
		c.Register("stats", Query{Tags: []string{TagDashboard, TagAnalytics}})
		for _, key := range []string{"leads", "campaigns", "stats"} {
			c.Set(key, key)
		}
		return c
	}

	a := build()
	a.Invalidate(tagsFor("leads_updated")...)
	a.Invalidate(tagsFor("campaigns_updated")...)

	b := build()
	b.Invalidate(tagsFor("campaigns_updated")...)
	b.Invalidate(tagsFor("leads_updated")...)

	aKeys, bKeys := a.StaleKeys(), b.StaleKeys()
	sort.Strings(aKeys)
	sort.Strings(bKeys)
	assert.Equal(t, aKeys, bKeys, "delivery order changed the converged stale-set")
}

func TestSetMarksFresh(t *testing.T) {
	c := NewCache(testLogger())
	c.Register("leads", Query{Tags: []string{TagLeads}})
	c.Set("leads", "v1")
	c.Invalidate(TagLeads)
	require.True(t, c.IsStale("leads"))

	c.Set("leads", "v2")
	assert.False(t, c.IsStale("leads"))
	v, ok := c.Peek("leads")
	require.True(t, ok)
	assert.Equal(t, "v2", v)
}

func TestSetUnregisteredKeyIsNoop(t *testing.T) {
	c := NewCache(testLogger())
	c.Set("ghost", "boo")
	_, ok := c.Peek("ghost")
	assert.False(t, ok)
}

// ABOUTME: Tests for the push-event to cache-staleness binding
package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldreach/coldreach/realtime"
)

// fakeSubscriber dispatches events in-process, standing in for the handle.
type fakeSubscriber struct {
	handlers map[string]map[int]func(json.RawMessage)
	next     int
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{handlers: make(map[string]map[int]func(json.RawMessage))}
}

func (f *fakeSubscriber) On(event string, fn func(json.RawMessage)) func() {
	if f.handlers[event] == nil {
		f.handlers[event] = make(map[int]func(json.RawMessage))
	}
	id := f.next
	f.next++
	f.handlers[event][id] = fn
	return func() { delete(f.handlers[event], id) }
}

func (f *fakeSubscriber) push(event string) {
	for _, fn := range f.handlers[event] {
		fn(json.RawMessage(`{}`))
	}
}

func seededCache(t *testing.T) *Cache {
	t.Helper()
	c := NewCache(testLogger())
	c.Register("leads/list", Query{Tags: []string{TagLeads}})
	c.Register("campaigns/list", Query{Tags: []string{TagCampaigns}})
	c.Register("dashboard/stats", Query{Tags: []string{TagDashboard}})
	c.Register("analytics/summary", Query{Tags: []string{TagAnalytics}})
	for _, key := range []string{"leads/list", "campaigns/list", "dashboard/stats", "analytics/summary"} {
		c.Set(key, key)
	}
	return c
}

func TestLeadsEventFlagsLeadsAndAggregates(t *testing.T) {
	sub := newFakeSubscriber()
	cache := seededCache(t)
	BindInvalidator(sub, cache, testLogger())

	sub.push(realtime.EventLeadsUpdated)

	assert.True(t, cache.IsStale("leads/list"))
	assert.True(t, cache.IsStale("dashboard/stats"))
	assert.True(t, cache.IsStale("analytics/summary"))
	assert.False(t, cache.IsStale("campaigns/list"))
}

func TestCampaignsEventFlagsCampaignsAndAggregates(t *testing.T) {
	sub := newFakeSubscriber()
	cache := seededCache(t)
	BindInvalidator(sub, cache, testLogger())

	sub.push(realtime.EventCampaignsUpdated)

	assert.True(t, cache.IsStale("campaigns/list"))
	assert.True(t, cache.IsStale("dashboard/stats"))
	assert.True(t, cache.IsStale("analytics/summary"))
	assert.False(t, cache.IsStale("leads/list"))
}

func TestInvalidatorOnlyFlagsStaleness(t *testing.T) {
	sub := newFakeSubscriber()
	cache := NewCache(testLogger())
	var fetches int64
	cache.Register("leads/list", Query{
		Tags:  []string{TagLeads},
		Fetch: countingFetch(&fetches, "leads"),
	})
	cache.Set("leads/list", "cached")
	BindInvalidator(sub, cache, testLogger())

	sub.push(realtime.EventLeadsUpdated)

	// Staleness flagged, refetch deferred to the next read.
	assert.True(t, cache.IsStale("leads/list"))
	assert.Equal(t, int64(0), fetches)
}

func TestUnbindStopsInvalidation(t *testing.T) {
	sub := newFakeSubscriber()
	cache := seededCache(t)
	unbind := BindInvalidator(sub, cache, testLogger())

	unbind()
	sub.push(realtime.EventLeadsUpdated)
	sub.push(realtime.EventCampaignsUpdated)

	require.Empty(t, cache.StaleKeys())
}

func TestTagsForUnknownEvent(t *testing.T) {
	assert.Nil(t, tagsFor("presence_changed"))
}

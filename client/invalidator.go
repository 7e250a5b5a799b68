// ABOUTME: Translates push events into cache staleness
// ABOUTME: Subscribes to the event catalog and flags tagged query groups
package client

import (
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/coldreach/coldreach/realtime"
)

// Cache tags. Aggregate views (dashboard, analytics) depend on both entity
// kinds, so both events invalidate them.
const (
	TagLeads     = "leads"
	TagCampaigns = "campaigns"
	TagDashboard = "dashboard"
	TagAnalytics = "analytics"
)

// Subscriber is the slice of the transport handle the invalidator needs.
type Subscriber interface {
	On(event string, fn func(json.RawMessage)) func()
}

// tagsFor maps each catalog event to the query groups it staleness-flags.
// The catalog is closed; an unknown name maps to nothing.
func tagsFor(event string) []string {
	switch event {
	case realtime.EventLeadsUpdated:
		return []string{TagLeads, TagDashboard, TagAnalytics}
	case realtime.EventCampaignsUpdated:
		return []string{TagCampaigns, TagDashboard, TagAnalytics}
	}
	return nil
}

// BindInvalidator wires the push events into the cache and returns an
// unbind function. The invalidator never refetches; it only flags staleness
// and leaves the refetch to the next read.
func BindInvalidator(sub Subscriber, cache *Cache, logger *log.Logger) func() {
	unsubs := make([]func(), 0, 2)

	for _, event := range []string{realtime.EventLeadsUpdated, realtime.EventCampaignsUpdated} {
		event := event
		tags := tagsFor(event)
		unsub := sub.On(event, func(payload json.RawMessage) {
			logger.Debug("invalidating", "event", event, "tags", tags)
			cache.Invalidate(tags...)
		})
		unsubs = append(unsubs, unsub)
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

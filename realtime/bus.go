// ABOUTME: Server-side event bus
// ABOUTME: Broadcasts domain events through an attached hub, dropping safely when detached
package realtime

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Bus is the single point through which mutations announce domain events.
// It is constructed once at the composition root and injected into the
// mutation path; Attach binds it to a hub when the transport comes up.
type Bus struct {
	logger *log.Logger

	mu  sync.RWMutex
	hub *Hub
}

func NewBus(logger *log.Logger) *Bus {
	return &Bus{logger: logger}
}

// Attach binds the bus to a hub. Idempotent: once attached, later calls
// return the existing hub without re-binding, so repeated initialization
// during dev-reload cycles cannot produce a second broadcaster.
func (b *Bus) Attach(hub *Hub) *Hub {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hub != nil {
		return b.hub
	}
	b.hub = hub
	return hub
}

// Hub returns the attached hub, or nil before Attach.
func (b *Bus) Hub() *Hub {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hub
}

// Emit broadcasts an event to every connected session. If no hub is attached
// the event is logged and dropped: mutations must never fail because the
// real-time layer is down.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	hub := b.hub
	b.mu.RUnlock()

	if hub == nil {
		b.logger.Warn("no transport attached, dropping event", "event", e.Name())
		return
	}

	data, err := Marshal(e)
	if err != nil {
		b.logger.Error("marshal event", "event", e.Name(), "err", err)
		return
	}

	hub.Broadcast(data)
}

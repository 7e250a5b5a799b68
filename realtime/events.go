// ABOUTME: Typed domain events and their wire envelope
// ABOUTME: Defines the closed event catalog broadcast to connected clients
package realtime

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/coldreach/coldreach/models"
)

// Event names on the wire. The catalog is closed: both sides key off these
// two constants, and subscribers switch exhaustively on them.
const (
	EventLeadsUpdated     = "leads_updated"
	EventCampaignsUpdated = "campaigns_updated"
)

// Envelope is the wire format: {"event": name, "payload": ...}.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is one member of the closed event set.
type Event interface {
	Name() string
	payload() interface{}
}

// LeadsUpdated fires when any lead is created, updated, or deleted. For
// deletes the payload degrades to {"id": ...}.
type LeadsUpdated struct {
	Lead      *models.Lead
	DeletedID uuid.UUID
}

func (LeadsUpdated) Name() string { return EventLeadsUpdated }

func (e LeadsUpdated) payload() interface{} {
	if e.Lead != nil {
		return e.Lead
	}
	return map[string]string{"id": e.DeletedID.String()}
}

// CampaignsUpdated fires when any campaign is created or updated, including
// sequence step changes (the payload is the parent campaign).
type CampaignsUpdated struct {
	Campaign *models.Campaign
}

func (CampaignsUpdated) Name() string { return EventCampaignsUpdated }

func (e CampaignsUpdated) payload() interface{} { return e.Campaign }

// Marshal encodes an event into its wire envelope.
func Marshal(e Event) ([]byte, error) {
	payload, err := json.Marshal(e.payload())
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: e.Name(), Payload: payload})
}

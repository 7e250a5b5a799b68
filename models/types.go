// ABOUTME: Data models for outreach entities
// ABOUTME: Defines Lead, Campaign, SequenceStep, and Activity structs
package models

import (
	"time"

	"github.com/google/uuid"
)

type Lead struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	LinkedInURL string     `json:"linkedin_url,omitempty"`
	Headline    string     `json:"headline,omitempty"`
	Company     string     `json:"company,omitempty"`
	CampaignID  *uuid.UUID `json:"campaign_id,omitempty"`
	Status      string     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	ContactedAt *time.Time `json:"contacted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Campaign struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	DailyLimit int       `json:"daily_limit"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type SequenceStep struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	Position   int       `json:"position"`
	Kind       string    `json:"kind"`
	Body       string    `json:"body"`
	WaitDays   int       `json:"wait_days"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Lead status constants. A lead advances pending → connected → contacted →
// replied; bounced is terminal from any state.
const (
	LeadPending   = "pending"
	LeadConnected = "connected"
	LeadContacted = "contacted"
	LeadReplied   = "replied"
	LeadBounced   = "bounced"
)

// Campaign status constants.
const (
	CampaignDraft    = "draft"
	CampaignActive   = "active"
	CampaignPaused   = "paused"
	CampaignArchived = "archived"
)

// Sequence step kinds.
const (
	StepConnect  = "connect"
	StepMessage  = "message"
	StepFollowup = "followup"
)

// ValidLeadStatus reports whether s is one of the known lead statuses.
func ValidLeadStatus(s string) bool {
	switch s {
	case LeadPending, LeadConnected, LeadContacted, LeadReplied, LeadBounced:
		return true
	}
	return false
}

// ValidCampaignStatus reports whether s is one of the known campaign statuses.
func ValidCampaignStatus(s string) bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignPaused, CampaignArchived:
		return true
	}
	return false
}

// NextLeadStatus returns the status a lead advances to from s, or s itself
// when s is terminal.
func NextLeadStatus(s string) string {
	switch s {
	case LeadPending:
		return LeadConnected
	case LeadConnected:
		return LeadContacted
	case LeadContacted:
		return LeadReplied
	}
	return s
}

// ActivityVerb represents the action performed on an entity.
type ActivityVerb string

const (
	VerbCreated ActivityVerb = "created"
	VerbUpdated ActivityVerb = "updated"
	VerbDeleted ActivityVerb = "deleted"
)

// Activity is one entry in the append-only activity feed. The ID is a ULID so
// the feed sorts by creation time.
type Activity struct {
	ID         string                 `json:"id"`
	Actor      string                 `json:"actor"`
	Verb       ActivityVerb           `json:"verb"`
	EntityKind string                 `json:"entity_kind"`
	EntityID   string                 `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Entity kinds recorded in the activity feed.
const (
	KindLead     = "lead"
	KindCampaign = "campaign"
	KindStep     = "sequence_step"
)

// DashboardStats aggregates counts for the dashboard view.
type DashboardStats struct {
	TotalLeads      int            `json:"total_leads"`
	LeadsByStatus   map[string]int `json:"leads_by_status"`
	TotalCampaigns  int            `json:"total_campaigns"`
	ActiveCampaigns int            `json:"active_campaigns"`
	RepliedThisWeek int            `json:"replied_this_week"`
}

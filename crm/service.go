// ABOUTME: Mutation service bridging the store and the event bus
// ABOUTME: Every successful create/update/delete emits exactly one domain event
package crm

import (
	"database/sql"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/coldreach/coldreach/activity"
	"github.com/coldreach/coldreach/db"
	"github.com/coldreach/coldreach/models"
	"github.com/coldreach/coldreach/realtime"
)

// Emitter is the slice of the event bus the service needs. *realtime.Bus
// satisfies it.
type Emitter interface {
	Emit(realtime.Event)
}

// Service wraps the persistence layer so that every successful mutation of a
// tracked entity announces itself on the bus and lands in the activity feed.
// If persistence fails, no event fires and the error propagates unchanged.
// Emission is synchronous and best-effort; it cannot fail the mutation.
type Service struct {
	db     *sql.DB
	feed   *activity.Log
	bus    Emitter
	logger *log.Logger
}

func NewService(database *sql.DB, feed *activity.Log, bus Emitter, logger *log.Logger) *Service {
	return &Service{
		db:     database,
		feed:   feed,
		bus:    bus,
		logger: logger,
	}
}

func (s *Service) CreateLead(lead *models.Lead) error {
	if err := db.CreateLead(s.db, lead); err != nil {
		return err
	}

	s.record(models.VerbCreated, models.KindLead, lead.ID.String(), map[string]interface{}{"name": lead.Name})
	s.bus.Emit(realtime.LeadsUpdated{Lead: lead})
	return nil
}

func (s *Service) UpdateLead(id uuid.UUID, updates *db.LeadUpdate) (*models.Lead, error) {
	lead, err := db.UpdateLead(s.db, id, updates)
	if err != nil {
		return nil, err
	}

	s.record(models.VerbUpdated, models.KindLead, id.String(), map[string]interface{}{"status": lead.Status})
	s.bus.Emit(realtime.LeadsUpdated{Lead: lead})
	return lead, nil
}

func (s *Service) DeleteLead(id uuid.UUID) error {
	if err := db.DeleteLead(s.db, id); err != nil {
		return err
	}

	s.record(models.VerbDeleted, models.KindLead, id.String(), nil)
	s.bus.Emit(realtime.LeadsUpdated{DeletedID: id})
	return nil
}

func (s *Service) CreateCampaign(campaign *models.Campaign) error {
	if err := db.CreateCampaign(s.db, campaign); err != nil {
		return err
	}

	s.record(models.VerbCreated, models.KindCampaign, campaign.ID.String(), map[string]interface{}{"name": campaign.Name})
	s.bus.Emit(realtime.CampaignsUpdated{Campaign: campaign})
	return nil
}

func (s *Service) UpdateCampaign(id uuid.UUID, updates *db.CampaignUpdate) (*models.Campaign, error) {
	campaign, err := db.UpdateCampaign(s.db, id, updates)
	if err != nil {
		return nil, err
	}

	s.record(models.VerbUpdated, models.KindCampaign, id.String(), map[string]interface{}{"status": campaign.Status})
	s.bus.Emit(realtime.CampaignsUpdated{Campaign: campaign})
	return campaign, nil
}

// CreateSequenceStep adds a step to a campaign's message sequence. Step
// changes broadcast as campaign updates with the parent campaign as payload,
// read back after the insert so the payload reflects the committed state.
func (s *Service) CreateSequenceStep(step *models.SequenceStep) error {
	if _, err := db.GetCampaign(s.db, step.CampaignID); err != nil {
		return err
	}

	if err := db.CreateSequenceStep(s.db, step); err != nil {
		return err
	}

	s.emitCampaign(step.CampaignID, models.VerbCreated, step.ID)
	return nil
}

func (s *Service) DeleteSequenceStep(id uuid.UUID) error {
	step, err := db.GetSequenceStep(s.db, id)
	if err != nil {
		return err
	}

	if err := db.DeleteSequenceStep(s.db, id); err != nil {
		return err
	}

	s.emitCampaign(step.CampaignID, models.VerbDeleted, id)
	return nil
}

// emitCampaign records a step mutation and broadcasts the parent campaign as
// it stands after the mutation. The mutation has already committed, so a
// failed touch or read-back logs a warning instead of failing the call;
// polling reconciles any skipped emit.
func (s *Service) emitCampaign(campaignID uuid.UUID, verb models.ActivityVerb, stepID uuid.UUID) {
	if err := db.TouchCampaign(s.db, campaignID); err != nil {
		s.logger.Warn("campaign touch failed", "campaign", campaignID, "err", err)
	}

	campaign, err := db.GetCampaign(s.db, campaignID)
	if err != nil {
		s.logger.Warn("campaign read-back failed, skipping emit", "campaign", campaignID, "err", err)
		return
	}

	s.record(verb, models.KindStep, stepID.String(), map[string]interface{}{"campaign": campaign.Name})
	s.bus.Emit(realtime.CampaignsUpdated{Campaign: campaign})
}

// Read passthroughs. Reads never emit.

func (s *Service) GetLead(id uuid.UUID) (*models.Lead, error) {
	return db.GetLead(s.db, id)
}

func (s *Service) FindLeads(query, status string, campaignID *uuid.UUID, limit int) ([]models.Lead, error) {
	return db.FindLeads(s.db, query, status, campaignID, limit)
}

func (s *Service) GetCampaign(id uuid.UUID) (*models.Campaign, error) {
	return db.GetCampaign(s.db, id)
}

func (s *Service) FindCampaigns(query, status string, limit int) ([]models.Campaign, error) {
	return db.FindCampaigns(s.db, query, status, limit)
}

func (s *Service) GetSequenceSteps(campaignID uuid.UUID) ([]models.SequenceStep, error) {
	return db.GetSequenceSteps(s.db, campaignID)
}

func (s *Service) Stats() (*models.DashboardStats, error) {
	return db.GetDashboardStats(s.db)
}

func (s *Service) RecentActivity(limit int) ([]models.Activity, error) {
	if s.feed == nil {
		return nil, nil
	}
	return s.feed.Recent(limit)
}

// record appends to the activity feed. Feed writes are best-effort: a failed
// append logs a warning and the mutation still succeeds.
func (s *Service) record(verb models.ActivityVerb, kind, entityID string, meta map[string]interface{}) {
	if s.feed == nil {
		return
	}
	a := &models.Activity{
		Actor:      "web",
		Verb:       verb,
		EntityKind: kind,
		EntityID:   entityID,
		Metadata:   meta,
	}
	if err := s.feed.Record(a); err != nil {
		s.logger.Warn("activity record failed", "kind", kind, "verb", verb, "err", err)
	}
}

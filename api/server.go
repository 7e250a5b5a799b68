// ABOUTME: JSON REST API for leads, campaigns, steps, activity, and stats
// ABOUTME: Mounts the push channel at /api/socket next to the REST routes
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/coldreach/coldreach/crm"
	"github.com/coldreach/coldreach/db"
	"github.com/coldreach/coldreach/models"
	"github.com/coldreach/coldreach/realtime"
)

type Server struct {
	svc    *crm.Service
	hub    *realtime.Hub
	logger *log.Logger
	token  string
}

// NewServer wires the service and push hub behind the REST surface. An empty
// token disables auth on mutating routes.
func NewServer(svc *crm.Service, hub *realtime.Hub, logger *log.Logger, token string) *Server {
	return &Server{svc: svc, hub: hub, logger: logger, token: token}
}

// Routes builds the full API mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/leads", s.handleListLeads)
	mux.HandleFunc("POST /api/leads", s.auth(s.handleCreateLead))
	mux.HandleFunc("GET /api/leads/{id}", s.handleGetLead)
	mux.HandleFunc("PATCH /api/leads/{id}", s.auth(s.handleUpdateLead))
	mux.HandleFunc("DELETE /api/leads/{id}", s.auth(s.handleDeleteLead))

	mux.HandleFunc("GET /api/campaigns", s.handleListCampaigns)
	mux.HandleFunc("POST /api/campaigns", s.auth(s.handleCreateCampaign))
	mux.HandleFunc("GET /api/campaigns/{id}", s.handleGetCampaign)
	mux.HandleFunc("PATCH /api/campaigns/{id}", s.auth(s.handleUpdateCampaign))

	mux.HandleFunc("GET /api/campaigns/{id}/steps", s.handleListSteps)
	mux.HandleFunc("POST /api/campaigns/{id}/steps", s.auth(s.handleCreateStep))
	mux.HandleFunc("DELETE /api/steps/{id}", s.auth(s.handleDeleteStep))

	mux.HandleFunc("GET /api/activity", s.handleActivity)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("/api/socket", realtime.Handler(s.hub, s.logger))

	return mux
}

// Start blocks serving the API on addr.
func (s *Server) Start(addr string) error {
	s.logger.Info("api listening", "addr", addr)
	return http.ListenAndServe(addr, s.Routes())
}

// auth guards mutating routes with a bearer token when one is configured.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	if s.token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps persistence errors onto HTTP statuses.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.logger.Error("request failed", "err", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}

func queryLimit(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var campaignID *uuid.UUID
	if raw := q.Get("campaign_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid campaign_id")
			return
		}
		campaignID = &id
	}

	leads, err := s.svc.FindLeads(q.Get("q"), q.Get("status"), campaignID, queryLimit(r, 100))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var lead models.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if lead.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if lead.Status != "" && !models.ValidLeadStatus(lead.Status) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", lead.Status))
		return
	}

	if err := s.svc.CreateLead(&lead); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	lead, err := s.svc.GetLead(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var updates db.LeadUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if updates.Status != nil && !models.ValidLeadStatus(*updates.Status) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", *updates.Status))
		return
	}

	lead, err := s.svc.UpdateLead(id, &updates)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.svc.DeleteLead(id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	campaigns, err := s.svc.FindCampaigns(q.Get("q"), q.Get("status"), queryLimit(r, 100))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if campaigns == nil {
		campaigns = []models.Campaign{}
	}
	writeJSON(w, http.StatusOK, campaigns)
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var campaign models.Campaign
	if err := json.NewDecoder(r.Body).Decode(&campaign); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if campaign.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if campaign.Status != "" && !models.ValidCampaignStatus(campaign.Status) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", campaign.Status))
		return
	}

	if err := s.svc.CreateCampaign(&campaign); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	campaign, err := s.svc.GetCampaign(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (s *Server) handleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var updates db.CampaignUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if updates.Status != nil && !models.ValidCampaignStatus(*updates.Status) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", *updates.Status))
		return
	}

	campaign, err := s.svc.UpdateCampaign(id, &updates)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (s *Server) handleListSteps(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	// 404 for a campaign that does not exist rather than an empty list.
	if _, err := s.svc.GetCampaign(id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	steps, err := s.svc.GetSequenceSteps(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if steps == nil {
		steps = []models.SequenceStep{}
	}
	writeJSON(w, http.StatusOK, steps)
}

func (s *Server) handleCreateStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var step models.SequenceStep
	if err := json.NewDecoder(r.Body).Decode(&step); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	step.CampaignID = id
	switch step.Kind {
	case models.StepConnect, models.StepMessage, models.StepFollowup:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid kind %q", step.Kind))
		return
	}

	if err := s.svc.CreateSequenceStep(&step); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, step)
}

func (s *Server) handleDeleteStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.svc.DeleteSequenceStep(id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.RecentActivity(queryLimit(r, 50))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if entries == nil {
		entries = []models.Activity{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats()
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

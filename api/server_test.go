// ABOUTME: Tests for the REST API surface
// ABOUTME: Exercises routing, status mapping, auth, and push notifications
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldreach/coldreach/activity"
	"github.com/coldreach/coldreach/crm"
	"github.com/coldreach/coldreach/db"
	"github.com/coldreach/coldreach/models"
	"github.com/coldreach/coldreach/realtime"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestServer(t *testing.T, token string) (*httptest.Server, *realtime.Bus) {
	t.Helper()
	dir := t.TempDir()

	database, err := db.OpenDatabase(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	feed, err := activity.Open(filepath.Join(dir, "activity"))
	require.NoError(t, err)
	t.Cleanup(func() { feed.Close() })

	hub := realtime.NewHub(testLogger())
	bus := realtime.NewBus(testLogger())
	bus.Attach(hub)

	svc := crm.NewService(database, feed, bus, testLogger())
	srv := httptest.NewServer(NewServer(svc, hub, testLogger(), token).Routes())
	t.Cleanup(srv.Close)
	return srv, bus
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createLead(t *testing.T, srv *httptest.Server, name string) models.Lead {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/leads", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[models.Lead](t, resp)
}

func TestLeadLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, "")

	lead := createLead(t, srv, "Ada Lovelace")
	assert.NotEqual(t, uuid.Nil, lead.ID)
	assert.Equal(t, models.LeadPending, lead.Status)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/leads/"+lead.ID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.Lead](t, resp)
	assert.Equal(t, "Ada Lovelace", got.Name)

	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/leads/"+lead.ID.String(),
		map[string]string{"status": models.LeadConnected})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[models.Lead](t, resp)
	assert.Equal(t, models.LeadConnected, got.Status)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/leads/"+lead.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/leads/"+lead.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestListLeadsFilters(t *testing.T) {
	srv, _ := newTestServer(t, "")
	createLead(t, srv, "Grace Hopper")
	createLead(t, srv, "Alan Kay")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/leads?q=grace", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	leads := decode[[]models.Lead](t, resp)
	require.Len(t, leads, 1)
	assert.Equal(t, "Grace Hopper", leads[0].Name)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/leads?status="+models.LeadReplied, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]models.Lead](t, resp))
}

func TestCreateLeadValidation(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/leads", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/leads",
		map[string]string{"name": "X", "status": "vaporized"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestInvalidIDReturns400(t *testing.T) {
	srv, _ := newTestServer(t, "")
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/leads/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCampaignAndSteps(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/campaigns",
		map[string]string{"name": "Q3 Founders"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	campaign := decode[models.Campaign](t, resp)
	assert.Equal(t, models.CampaignDraft, campaign.Status)

	stepsURL := fmt.Sprintf("%s/api/campaigns/%s/steps", srv.URL, campaign.ID)
	resp = doJSON(t, http.MethodPost, stepsURL,
		map[string]interface{}{"kind": models.StepConnect, "body": "Hi {{name}}"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decode[models.SequenceStep](t, resp)
	assert.Equal(t, 1, first.Position)

	resp = doJSON(t, http.MethodPost, stepsURL,
		map[string]interface{}{"kind": models.StepFollowup, "body": "Bump", "wait_days": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := decode[models.SequenceStep](t, resp)
	assert.Equal(t, 2, second.Position)

	resp = doJSON(t, http.MethodGet, stepsURL, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	steps := decode[[]models.SequenceStep](t, resp)
	require.Len(t, steps, 2)
	assert.Equal(t, first.ID, steps[0].ID)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/steps/"+second.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestStepsForMissingCampaign(t *testing.T) {
	srv, _ := newTestServer(t, "")
	resp := doJSON(t, http.MethodGet,
		srv.URL+"/api/campaigns/"+uuid.NewString()+"/steps", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestInvalidStepKind(t *testing.T) {
	srv, _ := newTestServer(t, "")
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/campaigns",
		map[string]string{"name": "C"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	campaign := decode[models.Campaign](t, resp)

	resp = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/campaigns/%s/steps", srv.URL, campaign.ID),
		map[string]string{"kind": "smoke-signal"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestStatsAndActivity(t *testing.T) {
	srv, _ := newTestServer(t, "")
	createLead(t, srv, "Ada")
	createLead(t, srv, "Grace")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[models.DashboardStats](t, resp)
	assert.Equal(t, 2, stats.TotalLeads)
	assert.Equal(t, 2, stats.LeadsByStatus[models.LeadPending])

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/activity", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decode[[]models.Activity](t, resp)
	require.Len(t, entries, 2)
	assert.Equal(t, models.VerbCreated, entries[0].Verb)
}

func TestAuthGuardsMutations(t *testing.T) {
	srv, _ := newTestServer(t, "hunter2")

	// Reads stay open.
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/leads", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Mutations without the token are rejected.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/leads", map[string]string{"name": "X"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// With the token they pass.
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"name": "X"}))
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/leads", &buf)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer hunter2")
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, authed.StatusCode)
	authed.Body.Close()
}

func TestSocketPlainGET(t *testing.T) {
	srv, _ := newTestServer(t, "")
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/socket", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[map[string]interface{}](t, resp)
	assert.Equal(t, "ok", status["status"])
}

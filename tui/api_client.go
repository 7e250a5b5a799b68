// ABOUTME: Minimal REST client used by the dashboard TUI
// ABOUTME: Fetches leads, campaigns, stats, and activity from the API server
package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coldreach/coldreach/models"
)

// ErrGone marks a mutation that failed because the entity no longer exists.
var ErrGone = fmt.Errorf("entity no longer exists")

type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(base, token string) *apiClient {
	return &apiClient{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) Leads(ctx context.Context) ([]models.Lead, error) {
	var leads []models.Lead
	err := c.get(ctx, "/api/leads", &leads)
	return leads, err
}

func (c *apiClient) Campaigns(ctx context.Context) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := c.get(ctx, "/api/campaigns", &campaigns)
	return campaigns, err
}

func (c *apiClient) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	err := c.get(ctx, "/api/stats", &stats)
	return &stats, err
}

func (c *apiClient) Activity(ctx context.Context) ([]models.Activity, error) {
	var entries []models.Activity
	err := c.get(ctx, "/api/activity?limit=50", &entries)
	return entries, err
}

// UpdateLeadStatus PATCHes a lead's status and returns the stored record.
// Returns ErrGone when the lead has been deleted out from under us.
func (c *apiClient) UpdateLeadStatus(ctx context.Context, id, status string) (*models.Lead, error) {
	body, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.base+"/api/leads/"+id, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var lead models.Lead
		if err := json.NewDecoder(resp.Body).Decode(&lead); err != nil {
			return nil, err
		}
		return &lead, nil
	case http.StatusNotFound:
		return nil, ErrGone
	default:
		return nil, fmt.Errorf("PATCH lead: status %d", resp.StatusCode)
	}
}

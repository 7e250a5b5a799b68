// ABOUTME: End-to-end tests for the mutation to cache-invalidation pipeline
// ABOUTME: Drives the REST API and verifies push-driven staleness on a live client
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldreach/coldreach/client"
	"github.com/coldreach/coldreach/models"
)

func fetchLeads(base string) client.FetchFunc {
	return func(ctx context.Context) (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/leads", nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		var leads []models.Lead
		if err := json.NewDecoder(resp.Body).Decode(&leads); err != nil {
			return nil, err
		}
		return leads, nil
	}
}

func TestMutationPushesInvalidationToLiveClient(t *testing.T) {
	srv, _ := newTestServer(t, "")

	handle := client.NewHandle(client.HandleConfig{
		URL:            "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/socket",
		ReconnectEvery: 50 * time.Millisecond,
		DialTimeout:    time.Second,
	}, testLogger())
	t.Cleanup(handle.Close)
	require.NoError(t, handle.Connect())

	cache := client.NewCache(testLogger())
	cache.Register("leads", client.Query{
		Tags:  []string{client.TagLeads},
		Fetch: fetchLeads(srv.URL),
	})
	unbind := client.BindInvalidator(handle, cache, testLogger())
	t.Cleanup(unbind)

	// Prime the cache with the empty list.
	v, err := cache.Get(context.Background(), "leads")
	require.NoError(t, err)
	require.Empty(t, v.([]models.Lead))

	// Server-side mutation: the push event must flag the cache stale.
	createLead(t, srv, "Ada Lovelace")
	require.Eventually(t, func() bool { return cache.IsStale("leads") },
		2*time.Second, 10*time.Millisecond, "push invalidation never reached the cache")

	// The next read serves last-known data and converges in the background.
	require.Eventually(t, func() bool {
		v, err := cache.Get(context.Background(), "leads")
		if err != nil {
			return false
		}
		leads := v.([]models.Lead)
		return len(leads) == 1 && leads[0].Name == "Ada Lovelace"
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, cache.IsStale("leads"))
}

func TestOfflineClientConvergesByPolling(t *testing.T) {
	srv, _ := newTestServer(t, "")

	handle := client.NewHandle(client.HandleConfig{
		URL:            "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/socket",
		ReconnectEvery: time.Hour,
		DialTimeout:    time.Second,
	}, testLogger())
	t.Cleanup(handle.Close)

	cache := client.NewCache(testLogger())
	cache.Register("leads", client.Query{
		Tags:    []string{client.TagLeads},
		Fetch:   fetchLeads(srv.URL),
		Refresh: 30 * time.Millisecond,
	})
	unbind := client.BindInvalidator(handle, cache, testLogger())
	t.Cleanup(unbind)

	_, err := cache.Get(context.Background(), "leads")
	require.NoError(t, err)

	// Offline the whole time: the emit is dropped without error and the
	// mutation still lands server-side.
	handle.Emit("client_ping", map[string]string{"from": "test"})
	createLead(t, srv, "Grace Hopper")

	// No push arrives, so only the polling fallback can converge.
	require.Eventually(t, func() bool {
		v, err := cache.Get(context.Background(), "leads")
		if err != nil {
			return false
		}
		return len(v.([]models.Lead)) == 1
	}, 3*time.Second, 20*time.Millisecond, "polling fallback never converged")
}

func TestDeleteBroadcastsIDOnlyPayload(t *testing.T) {
	srv, _ := newTestServer(t, "")
	lead := createLead(t, srv, "Ephemeral")

	handle := client.NewHandle(client.HandleConfig{
		URL:            "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/socket",
		ReconnectEvery: 50 * time.Millisecond,
		DialTimeout:    time.Second,
	}, testLogger())
	t.Cleanup(handle.Close)
	require.NoError(t, handle.Connect())

	payloads := make(chan json.RawMessage, 1)
	handle.On("leads_updated", func(p json.RawMessage) { payloads <- p })

	// Give the subscription a settled connection before mutating.
	time.Sleep(100 * time.Millisecond)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/leads/"+lead.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	select {
	case p := <-payloads:
		var body map[string]string
		require.NoError(t, json.Unmarshal(p, &body))
		assert.Equal(t, lead.ID.String(), body["id"])
		assert.Len(t, body, 1, "delete payload should carry only the id")
	case <-time.After(2 * time.Second):
		t.Fatal("delete event never arrived")
	}
}

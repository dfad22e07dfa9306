package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastetwin/internal/api"
	"wastetwin/internal/catalog"
	"wastetwin/internal/config"
	"wastetwin/internal/logging"
	"wastetwin/internal/testsupport"
	"wastetwin/internal/workflow"
)

type fixture struct {
	cfg    *config.Config
	daemon *Daemon
	wf     *workflow.Manager
	server *httptest.Server
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t)
}

func newDaemon(t *testing.T, cfg *config.Config) (*Daemon, *workflow.Manager) {
	t.Helper()
	facility := testsupport.NewFacility(t, cfg)
	d, err := New(cfg, facility.Manager, facility.Ledger, nil, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d, facility.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig(t)
	d, wf := newDaemon(t, cfg)
	srv := httptest.NewServer(d.api.handler)
	t.Cleanup(srv.Close)
	return &fixture{cfg: cfg, daemon: d, wf: wf, server: srv}
}

func (f *fixture) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestStatsOnIdleFacility(t *testing.T) {
	f := newFixture(t)
	var stats api.Stats
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/stats", nil, &stats))
	assert.Equal(t, "idle", stats.Status)
	assert.Equal(t, 3, stats.MaxConcurrent)
	assert.Len(t, stats.CategoryBreakdown, catalog.Default().Len())
	assert.Contains(t, stats.MaterialTotals, "copper")
}

func TestEnqueueMapsErrors(t *testing.T) {
	f := newFixture(t)

	var created api.EnqueueResponse
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/queue", map[string]any{"category": "cables", "quantity": 2}, &created))
	assert.Len(t, created.IDs, 2)
	assert.Equal(t, 2, created.QueueLength)

	var errResp api.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/queue", map[string]any{"category": "cables", "quantity": 0}, &errResp))
	assert.Contains(t, errResp.Error, "quantity")
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/queue", map[string]any{"category": "toaster", "quantity": 1}, nil))
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/queue", map[string]any{"category": "cables", "qty": 1}, nil))

	var list api.QueueResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/queue", nil, &list))
	require.Len(t, list.Items, 2)
	assert.Equal(t, created.IDs[0], list.Items[0].ID)
}

func TestEnqueueDefaultsToOneItem(t *testing.T) {
	f := newFixture(t)

	var created api.EnqueueResponse
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/queue", map[string]any{"category": "mouse"}, &created))
	assert.Len(t, created.IDs, 1)
	assert.Equal(t, 1, created.QueueLength)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/queue", map[string]any{"category": "mouse", "quantity": -3}, nil))
	assert.Equal(t, 1, f.wf.QueueLength())
}

func TestEnqueueRejectsQuantityAboveLimit(t *testing.T) {
	f := newFixture(t)
	limit := f.cfg.Engine.MaxEnqueue
	require.Positive(t, limit)

	var errResp api.ErrorResponse
	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/queue", map[string]any{"category": "cables", "quantity": limit + 1}, &errResp))
	assert.Contains(t, errResp.Error, "quantity")
	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/queue", map[string]any{"category": "cables", "quantity": math.MaxInt}, nil))
	assert.Zero(t, f.wf.QueueLength())

	var created api.EnqueueResponse
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/queue", map[string]any{"category": "cables", "quantity": limit}, &created))
	assert.Equal(t, limit, created.QueueLength)
}

func TestProcessAndProcessedHistory(t *testing.T) {
	f := newFixture(t)

	var resp api.ProcessResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/process", nil, &resp))
	assert.Empty(t, resp.Started)
	assert.Equal(t, "queue is empty", resp.Message)

	_, err := f.wf.Enqueue("mouse", 4)
	require.NoError(t, err)

	require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/api/process", api.ProcessRequest{All: true}, &resp))
	assert.Len(t, resp.Started, 3)
	f.wf.Wait()

	require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/api/process", nil, &resp))
	require.Len(t, resp.Started, 1)
	f.wf.Wait()

	var page api.ProcessedResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/processed?limit=2", nil, &page))
	assert.Equal(t, 4, page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, "completed", page.Items[0].Status)
	require.NotNil(t, page.Items[0].RecoveryEfficiency)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/processed?status=bogus", nil, nil))
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/processed?limit=-1", nil, nil))
}

func TestConcurrencyEndpoint(t *testing.T) {
	f := newFixture(t)
	var resp api.ConcurrencyResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/concurrency", api.ConcurrencyRequest{MaxConcurrent: 5}, &resp))
	assert.Equal(t, 5, resp.MaxConcurrent)
	assert.Equal(t, 5, f.wf.MaxConcurrent())
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/concurrency", api.ConcurrencyRequest{MaxConcurrent: 0}, nil))
}

func TestCatalogEndpoints(t *testing.T) {
	f := newFixture(t)

	var cats api.CategoriesResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/categories", nil, &cats))
	assert.Len(t, cats.Categories, catalog.Default().Len())

	var comp api.Composition
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/composition/laptop", nil, &comp))
	assert.Equal(t, "laptop", comp.Category)
	assert.NotEmpty(t, comp.Parts)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/composition/toaster", nil, nil))
}

func TestChatEndpoint(t *testing.T) {
	f := newFixture(t)
	_, err := f.wf.Enqueue("cables", 2)
	require.NoError(t, err)

	var reply api.ChatResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/chat", api.ChatRequest{Message: "queue length?"}, &reply))
	assert.Equal(t, "There are currently 2 items waiting in the queue.", reply.Reply)
}

func TestEventsPaging(t *testing.T) {
	f := newFixture(t)
	_, err := f.wf.Enqueue("cables", 1)
	require.NoError(t, err)
	_, err = f.wf.Enqueue("mouse", 1)
	require.NoError(t, err)

	var page api.EventsResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/events?limit=1", nil, &page))
	require.Len(t, page.Events, 1)
	assert.Equal(t, uint64(1), page.Next)
	assert.Equal(t, "queue_changed", page.Events[0].Type)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/events?since=1", nil, &page))
	require.Len(t, page.Events, 1)
	assert.Equal(t, uint64(2), page.Events[0].Sequence)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/events?since=2", nil, &page))
	assert.Empty(t, page.Events)
	assert.Equal(t, uint64(2), page.Next)
}

func TestEventsRewindCursorAfterRestart(t *testing.T) {
	f := newFixture(t)
	_, err := f.wf.Enqueue("cables", 1)
	require.NoError(t, err)

	var page api.EventsResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/events?since=500", nil, &page))
	require.Len(t, page.Events, 1)
	assert.Equal(t, uint64(1), page.Events[0].Sequence)
	assert.Equal(t, uint64(1), page.Next)
}

func TestEventsLongPollWakesOnPublish(t *testing.T) {
	f := newFixture(t)

	type result struct {
		page api.EventsResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := http.Get(f.server.URL + "/api/events?follow=1")
		if err != nil {
			done <- result{err: err}
			return
		}
		defer resp.Body.Close()
		var page api.EventsResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		done <- result{page: page, err: err}
	}()

	time.Sleep(50 * time.Millisecond)
	_, err := f.wf.Enqueue("cables", 1)
	require.NoError(t, err)

	select {
	case res := <-done:
		require.NoError(t, res.err)
		require.Len(t, res.page.Events, 1)
		assert.Equal(t, "queue_changed", res.page.Events[0].Type)
		assert.Equal(t, uint64(1), res.page.Next)
	case <-time.After(5 * time.Second):
		t.Fatal("long poll did not return after publish")
	}
}

func TestWebSocketStream(t *testing.T) {
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var frame api.StreamFrame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, api.FrameSnapshot, frame.Kind)
	require.NotNil(t, frame.Stats)
	assert.Equal(t, "idle", frame.Stats.Status)

	require.Eventually(t, func() bool { return f.wf.Events().Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	ids, err := f.wf.Enqueue("keyboard", 1)
	require.NoError(t, err)

	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, api.FrameEvent, frame.Kind)
	require.NotNil(t, frame.Event)
	assert.Equal(t, "queue_changed", frame.Event.Type)
	require.Len(t, frame.Event.Queue, 1)
	assert.Equal(t, ids[0], frame.Event.Queue[0].ID)
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t)
	var status api.DaemonStatus
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/status", nil, &status))
	assert.False(t, status.Running)
	assert.Equal(t, f.cfg.LockPath(), status.LockFilePath)
	assert.False(t, status.Notifications)

	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/notifications/test", nil, nil))
}

func TestDaemonEnforcesSingleInstance(t *testing.T) {
	cfg := testConfig(t)
	first, _ := newDaemon(t, cfg)
	second, _ := newDaemon(t, cfg)

	require.NoError(t, first.Start(context.Background()))
	assert.True(t, first.Status().Running)
	assert.NotEmpty(t, first.Address())

	err := second.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	first.Stop()
	assert.False(t, first.Status().Running)
	require.NoError(t, second.Start(context.Background()))
	second.Stop()
}

func TestDaemonStartsDriverWhenAutoProcessing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Workflow.AutoProcess = true
	d, wf := newDaemon(t, cfg)

	_, err := wf.Enqueue("cables", 2)
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	assert.True(t, wf.Running())
	require.Eventually(t, func() bool { return wf.Stats().TotalCompleted == 2 }, 5*time.Second, 10*time.Millisecond)
}

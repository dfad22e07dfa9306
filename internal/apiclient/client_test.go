package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"wastetwin/internal/api"
	"wastetwin/internal/apiclient"
)

func TestNewEmptyBind(t *testing.T) {
	client, err := apiclient.New("")
	if !errors.Is(err, apiclient.ErrAPIUnavailable) {
		t.Fatalf("expected ErrAPIUnavailable, got %v", err)
	}
	if client != nil {
		t.Fatal("expected nil client for empty bind")
	}
}

func TestEventsBuildsQueryAndDecodes(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/events" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.EventsResponse{
			Events: []api.Event{{Sequence: 4, Type: "queue_changed"}},
			Next:   4,
		})
	}))
	defer srv.Close()

	client, err := apiclient.New(srv.URL)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	resp, err := client.Events(context.Background(), apiclient.EventsQuery{
		Since:  3,
		Limit:  50,
		Follow: true,
		Types:  []string{"queue_changed", "progress_tick"},
		ItemID: "cables_1_ab",
	})
	if err != nil {
		t.Fatalf("Events error: %v", err)
	}
	if len(resp.Events) != 1 || resp.Next != 4 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	for key, want := range map[string]string{
		"since":  "3",
		"limit":  "50",
		"follow": "1",
		"item":   "cables_1_ab",
	} {
		if got := gotQuery.Get(key); got != want {
			t.Errorf("query %s = %q, want %q", key, got, want)
		}
	}
	if types := gotQuery["type"]; len(types) != 2 {
		t.Errorf("expected two type filters, got %v", types)
	}
}

func TestEnqueueSendsBodyAndDecodesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.EnqueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Category != "toaster" || req.QuantityOrDefault() != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "unknown category: \"toaster\""})
	}))
	defer srv.Close()

	client, err := apiclient.New(srv.URL)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	_, err = client.Enqueue(context.Background(), "toaster", 2)
	var statusErr *apiclient.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusNotFound || statusErr.Message != "unknown category: \"toaster\"" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}

func TestIsAPIUnavailable(t *testing.T) {
	client, err := apiclient.New("127.0.0.1:1")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	_, err = client.Stats(context.Background())
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !apiclient.IsAPIUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if apiclient.IsAPIUnavailable(&apiclient.StatusError{Code: 500}) {
		t.Fatal("status errors are not unavailability")
	}
}

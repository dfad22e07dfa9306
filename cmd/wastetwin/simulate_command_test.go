package main

import (
	"encoding/json"
	"testing"

	"wastetwin/internal/api"
)

func TestSimulateRunsWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"simulate", "--item", "cables=2", "--item", "mouse", "--fast", "--json"}, "", env.configPath)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	var stats api.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v\n%s", err, out)
	}
	if stats.TotalCompleted != 3 {
		t.Fatalf("expected 3 completed, got %d", stats.TotalCompleted)
	}
	if stats.QueueLength != 0 || stats.ActiveCount != 0 || stats.Status != "idle" {
		t.Fatalf("expected drained facility, got %+v", stats)
	}
	if stats.MaterialTotals["copper"] <= 0 {
		t.Fatalf("expected copper to be recovered, got %v", stats.MaterialTotals["copper"])
	}
	if env.manager.Stats().TotalCompleted != 0 {
		t.Fatal("simulate must not touch the running daemon")
	}
}

func TestSimulateHonoursConcurrencyOverride(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"simulate", "--seed", "2", "--concurrency", "1", "--fast"}, "", env.configPath)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	requireContains(t, out, "Simulation finished")
	requireContains(t, out, "completed ")
	requireContains(t, out, "Status:          Idle")
}

func TestSimulateRequiresWork(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"simulate"}, "", env.configPath); err == nil {
		t.Fatal("expected error without --item or --seed")
	}
	if _, _, err := runCLI(t, []string{"simulate", "--item", "toaster"}, "", env.configPath); err == nil {
		t.Fatal("expected unknown category error")
	}
}

func TestParseItemRequest(t *testing.T) {
	tests := []struct {
		in       string
		category string
		quantity int
		wantErr  bool
	}{
		{in: "cables", category: "cables", quantity: 1},
		{in: " laptop = 4 ", category: "laptop", quantity: 4},
		{in: "gpu=x", wantErr: true},
		{in: "=3", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseItemRequest(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tt.in, err)
		}
		if got.category != tt.category || got.quantity != tt.quantity {
			t.Fatalf("%q: got %+v", tt.in, got)
		}
	}
}

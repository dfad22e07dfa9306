package main

import (
	"encoding/json"
	"strings"
	"testing"

	"wastetwin/internal/api"
)

func TestEnqueueProcessAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"enqueue", "cables", "2"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	requireContains(t, out, "Queued 2 item(s); queue length 2")
	requireContains(t, out, "cables_")

	out, _, err = runCLI(t, []string{"stats"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "Status:          Ready")
	requireContains(t, out, "Queue length:    2")

	out, _, err = runCLI(t, []string{"process", "--all"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := strings.Count(out, "Started cables_"); got != 2 {
		t.Fatalf("expected 2 started items, got %d in %q", got, out)
	}
	env.manager.Wait()

	out, _, err = runCLI(t, []string{"process"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("process on empty queue: %v", err)
	}
	requireContains(t, strings.ToLower(out), "queue")

	out, _, err = runCLI(t, []string{"history"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Showing 1-2 of 2")
	requireContains(t, out, "Completed")

	out, _, err = runCLI(t, []string{"history", "--json", "--limit", "1"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var page api.ProcessedResponse
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 1 {
		t.Fatalf("unexpected page: total=%d items=%d", page.Total, len(page.Items))
	}
	requireContains(t, out, "copper")

	out, _, err = runCLI(t, []string{"stats", "--json"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("stats --json: %v", err)
	}
	var stats api.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalCompleted != 2 || stats.Status != "idle" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.CategoryBreakdown["cables"].Count != 2 {
		t.Fatalf("expected 2 cables in breakdown, got %d", stats.CategoryBreakdown["cables"].Count)
	}
}

func TestEnqueueRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"enqueue", "toaster"}, env.apiAddr, env.configPath)
	if err == nil {
		t.Fatal("expected unknown category error")
	}
	requireContains(t, err.Error(), "toaster")

	if _, _, err := runCLI(t, []string{"enqueue", "cables", "0"}, env.apiAddr, env.configPath); err == nil {
		t.Fatal("expected invalid quantity error")
	}
	if _, _, err := runCLI(t, []string{"enqueue", "cables", "many"}, env.apiAddr, env.configPath); err == nil {
		t.Fatal("expected parse error")
	}
	if n := env.manager.Stats().QueueLength; n != 0 {
		t.Fatalf("expected empty queue after rejected enqueues, got %d", n)
	}
}

func TestConcurrencyCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"concurrency"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("concurrency: %v", err)
	}
	requireContains(t, out, "Max concurrent: 3")

	out, _, err = runCLI(t, []string{"concurrency", "1"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("concurrency 1: %v", err)
	}
	requireContains(t, out, "Max concurrent set to 1")
	if got := env.manager.MaxConcurrent(); got != 1 {
		t.Fatalf("expected cap 1, got %d", got)
	}

	if _, _, err := runCLI(t, []string{"concurrency", "0"}, env.apiAddr, env.configPath); err == nil {
		t.Fatal("expected error for zero cap")
	}
}

func TestCatalogCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"categories"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	requireContains(t, out, "cpu_coolers")
	requireContains(t, out, "copper, plastic, rubber")

	out, _, err = runCLI(t, []string{"composition", "cables"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("composition: %v", err)
	}
	requireContains(t, out, "Cables composition")
	requireContains(t, out, "Copper")
	requireContains(t, out, "Hazard score")

	if _, _, err := runCLI(t, []string{"composition", "toaster"}, env.apiAddr, env.configPath); err == nil {
		t.Fatal("expected unknown composition error")
	}
}

func TestChatCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.manager.Enqueue("laptop", 3); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	out, _, err := runCLI(t, []string{"chat", "hello"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	requireContains(t, out, "Hello!")

	out, _, err = runCLI(t, []string{"chat", "what's", "the", "queue", "length?"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	requireContains(t, out, "3 items waiting")
}

func TestEventsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.manager.Enqueue("cables", 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := env.manager.ProcessNext(); err != nil {
		t.Fatalf("process: %v", err)
	}
	env.manager.Wait()

	out, _, err := runCLI(t, []string{"events"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	requireContains(t, out, "#1 ")
	requireContains(t, out, "queue_changed")
	requireContains(t, out, "processing_completed")

	out, _, err = runCLI(t, []string{"events", "--type", "processing_started", "--json"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("events --type: %v", err)
	}
	var evt api.Event
	if err := json.NewDecoder(strings.NewReader(out)).Decode(&evt); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if evt.Type != "processing_started" {
		t.Fatalf("expected processing_started, got %q", evt.Type)
	}
	if strings.Contains(out, "progress_tick") {
		t.Fatalf("type filter leaked other events: %q", out)
	}
}

func TestNotifyTestWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"notify", "test"}, env.apiAddr, env.configPath)
	if err == nil {
		t.Fatal("expected error without an ntfy topic")
	}
	requireContains(t, err.Error(), "ntfy topic not configured")
}

func TestCommandsReportMissingDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	env.daemon.Stop()

	_, _, err := runCLI(t, []string{"stats"}, env.apiAddr, env.configPath)
	if err == nil {
		t.Fatal("expected connection error")
	}
	requireContains(t, err.Error(), "wastetwin daemon")
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Log directory")
	requireContains(t, out, "Composition table")
	requireContains(t, out, "Daemon API")

	env.daemon.Stop()
	out, _, err = runCLI(t, []string{"check"}, env.apiAddr, env.configPath)
	if err == nil {
		t.Fatal("expected check to fail once the daemon stopped")
	}
	requireContains(t, out, "FAIL")
}

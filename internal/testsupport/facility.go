package testsupport

import (
	"context"
	"testing"

	"wastetwin/internal/catalog"
	"wastetwin/internal/config"
	"wastetwin/internal/events"
	"wastetwin/internal/ledger"
	"wastetwin/internal/logging"
	"wastetwin/internal/workflow"
)

// Facility bundles the in-process components a daemon is built from.
type Facility struct {
	Hub     *events.Hub
	Ledger  *ledger.Ledger
	Manager *workflow.Manager
}

// NewFacility wires a hub, a ledger sink and a manager over the default
// catalog. Cleanup stops the manager and closes the hub and ledger.
func NewFacility(t testing.TB, cfg *config.Config) *Facility {
	t.Helper()

	logger := logging.NewNop()
	hub := events.NewHub(cfg.Events.BufferSize, cfg.Events.SubscriberBuffer)
	led, err := ledger.Open(context.Background(), 0, logger)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	hub.AddSink(led)

	mgr, err := workflow.NewManagerFromConfig(cfg, catalog.Default(), hub, logger)
	if err != nil {
		t.Fatalf("workflow.NewManagerFromConfig: %v", err)
	}
	t.Cleanup(func() {
		mgr.Stop()
		hub.Close()
		_ = led.Close()
	})
	return &Facility{Hub: hub, Ledger: led, Manager: mgr}
}

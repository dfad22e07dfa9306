package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wastetwin/internal/catalog"
	"wastetwin/internal/events"
	"wastetwin/internal/logging"
	"wastetwin/internal/recovery"
)

// newTestManager returns a manager whose units never sleep.
func newTestManager(t *testing.T, maxConcurrent int) *Manager {
	t.Helper()
	hub := events.NewHub(4096, 4096)
	t.Cleanup(hub.Close)
	m := NewManager(catalog.Default(), Options{
		MaxConcurrent: maxConcurrent,
		PollInterval:  5 * time.Millisecond,
		Simulator:     recovery.NewSimulator(recovery.Options{Seed: 1, MaxStepDelay: -1}),
		Hub:           hub,
	}, logging.NewNop())
	t.Cleanup(m.Stop)
	return m
}

// gate blocks every unit at its first step until opened.
type gate struct {
	ch chan struct{}
}

func newGate() *gate {
	return &gate{ch: make(chan struct{})}
}

func (g *gate) hook(_ string, step int) {
	if step == 1 {
		<-g.ch
	}
}

func (g *gate) open() {
	close(g.ch)
}

func drain(t *testing.T, sub *events.Subscription) []events.Event {
	t.Helper()
	var out []events.Event
	for {
		select {
		case evt, ok := <-sub.C():
			if !ok {
				return out
			}
			out = append(out, evt)
		default:
			return out
		}
	}
}

func requireEnqueue(t *testing.T, m *Manager, category string, quantity int) []string {
	t.Helper()
	ids, err := m.Enqueue(category, quantity)
	require.NoError(t, err)
	require.Len(t, ids, quantity)
	return ids
}

package workflow

import "wastetwin/internal/logging"

// Seed enqueues between one and three items for each of n distinct random
// categories, drawn from the simulator so a fixed seed repeats the workload.
// It returns the ids created.
func (m *Manager) Seed(n int) ([]string, error) {
	pool := m.catalog.IDs()
	if n > len(pool) {
		n = len(pool)
	}
	var ids []string
	for i := 0; i < n; i++ {
		pick := i + m.sim.Intn(len(pool)-i)
		pool[i], pool[pick] = pool[pick], pool[i]
		created, err := m.Enqueue(pool[i], 1+m.sim.Intn(3))
		if err != nil {
			return ids, err
		}
		ids = append(ids, created...)
	}
	if n > 0 {
		m.logger.Info("seeded queue", logging.Int("categories", n), logging.Int("items", len(ids)))
	}
	return ids, nil
}

package queue

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator issues item ids of the form <category>_<sequence>_<suffix>.
// The sequence makes ids unique for the process lifetime; the random suffix
// keeps ids from separate runs distinct in logs.
type IDGenerator struct {
	seq atomic.Uint64
}

// Next returns a fresh id for category.
func (g *IDGenerator) Next(category string) string {
	n := g.seq.Add(1)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", category, n, suffix)
}

package invoice

import (
	"strconv"
	"sync"
	"time"
)

// NumberGenerator hands out "<prefix><epochMillis>" invoice numbers.
// Numbers are strictly increasing within a process: a call landing in the
// same millisecond as the previous one (or after a clock step back) gets last+1.
type NumberGenerator struct {
	mu     sync.Mutex
	prefix string
	last   int64
	now    func() time.Time
}

func NewNumberGenerator(prefix string) *NumberGenerator {
	return &NumberGenerator{prefix: prefix, now: time.Now}
}

func (g *NumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return g.prefix + strconv.FormatInt(ms, 10)
}

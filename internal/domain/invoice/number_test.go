package invoice

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumberGeneratorFormat(t *testing.T) {
	g := NewNumberGenerator("INV-")
	g.now = func() time.Time { return time.UnixMilli(1700000000123) }

	assert.Equal(t, "INV-1700000000123", g.Next())
	// same millisecond moves forward
	assert.Equal(t, "INV-1700000000124", g.Next())
}

func TestNumberGeneratorClockStepBack(t *testing.T) {
	g := NewNumberGenerator("INV-")
	g.now = func() time.Time { return time.UnixMilli(2000) }
	assert.Equal(t, "INV-2000", g.Next())

	g.now = func() time.Time { return time.UnixMilli(1000) }
	assert.Equal(t, "INV-2001", g.Next())
}

func TestNumberGeneratorConcurrentUnique(t *testing.T) {
	g := NewNumberGenerator("INV-")
	const n = 500

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]struct{}, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num := g.Next()
			mu.Lock()
			seen[num] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	for num := range seen {
		assert.True(t, strings.HasPrefix(num, "INV-"))
	}
}

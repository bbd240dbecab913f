// Package trackcode generates the human-facing tracking numbers ("MTK" + 9 digits).
//
// Codes are derived from the wall clock and a small random suffix, so two codes produced
// in the same millisecond window can collide. Uniqueness is enforced by the storage layer.
package trackcode

import (
	"fmt"
	"math/rand"
	"regexp"
	"sync"
	"time"
)

const Prefix = "MTK"

var pattern = regexp.MustCompile(`^MTK\d{9}$`)

type Rand interface {
	Intn(n int) int
}

// Generate builds a code from the last 6 digits of now in epoch milliseconds
// and a zero-padded random number in [0, 999].
func Generate(now time.Time, r Rand) string {
	return fmt.Sprintf("%s%06d%03d", Prefix, now.UnixMilli()%1_000_000, r.Intn(1000))
}

func Valid(code string) bool {
	return pattern.MatchString(code)
}

type Generator struct {
	mu  sync.Mutex
	now func() time.Time
	r   Rand
}

// NewGenerator returns a Generator. nil arguments fall back to time.Now and a time-seeded source.
func NewGenerator(now func() time.Time, r Rand) *Generator {
	if now == nil {
		now = time.Now
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{now: now, r: r}
}

func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Generate(g.now(), g.r)
}

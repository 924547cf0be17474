// Package color hands out display colours for vehicles and their routes.
package color

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/colornames"

	"github.com/kilianp07/roadsim/core/logger"
)

// Provider draws colour names at random without replacement. Once every
// name was handed out the table is refilled.
type Provider struct {
	mu        sync.Mutex
	rng       *rand.Rand
	log       logger.Logger
	table     []string
	remaining []string
}

// NewProvider creates a provider over names, or over the CSS colour names
// when none are given. A nil rng is replaced by a time seeded one.
func NewProvider(rng *rand.Rand, log logger.Logger, names ...string) *Provider {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if len(names) == 0 {
		names = colornames.Names
	}
	p := &Provider{rng: rng, log: logger.OrNop(log), table: append([]string(nil), names...)}
	p.refill()
	return p
}

func (p *Provider) refill() {
	p.remaining = append(p.remaining[:0], p.table...)
}

// Next returns a colour not handed out since the last refill.
func (p *Provider) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.remaining) == 0 {
		p.log.Warnf("all %d colours used, reusing the table", len(p.table))
		p.refill()
	}
	i := p.rng.Intn(len(p.remaining))
	c := p.remaining[i]
	last := len(p.remaining) - 1
	p.remaining[i] = p.remaining[last]
	p.remaining = p.remaining[:last]
	return c
}

// Remaining returns how many colours can be drawn before a refill.
func (p *Provider) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.remaining)
}

// Hex returns the #rrggbb form of a CSS colour name. Values already in hex
// form are returned unchanged.
func Hex(name string) (string, bool) {
	if strings.HasPrefix(name, "#") {
		return name, len(name) == 7 || len(name) == 4
	}
	c, ok := colornames.Map[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B), true
}

package cardnum

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Length is the number of digits in a card number.
const Length = 16

// ExistsFunc reports whether a candidate number is already taken.
type ExistsFunc func(ctx context.Context, number string) (bool, error)

// Generator produces candidate card numbers from an injected random source.
// Candidates are not unique by construction; Unique retries against an
// existence check until a free number is found.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	log *logrus.Logger
}

// New creates a generator. A nil source falls back to a time-seeded PCG.
func New(src rand.Source, log *logrus.Logger) *Generator {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>32)
	}
	return &Generator{rnd: rand.New(src), log: log}
}

// Generate returns a candidate of exactly 16 decimal digits, each drawn
// uniformly from 0-9. Leading zeros are permitted.
func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b [Length]byte
	for i := range b {
		b[i] = byte('0' + g.rnd.IntN(10))
	}
	return string(b[:])
}

// Unique generates candidates until one passes the existence check. The loop
// has no retry cap; in a 16-digit space collisions are vanishingly rare, but
// repeated collisions are logged so a pathological loop is visible.
func (g *Generator) Unique(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		number := g.Generate()
		taken, err := exists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("failed to check card number: %w", err)
		}
		if !taken {
			return number, nil
		}
		if attempt%10 == 0 {
			g.log.Warnf("Card number generator hit %d consecutive collisions", attempt)
		}
	}
}

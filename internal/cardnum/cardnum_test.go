package cardnum

import (
	"context"
	"io"
	"math/rand/v2"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestGenerateFormat(t *testing.T) {
	g := New(rand.NewPCG(1, 2), testLogger())

	for i := 0; i < 1000; i++ {
		number := g.Generate()
		require.Len(t, number, Length)
		for _, ch := range number {
			require.True(t, ch >= '0' && ch <= '9', "unexpected character %q in %s", ch, number)
		}
	}
}

func TestGenerateVaries(t *testing.T) {
	g := New(rand.NewPCG(3, 4), testLogger())

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		seen[g.Generate()] = struct{}{}
	}
	require.Greater(t, len(seen), 90)
}

func TestUniqueRetriesOnCollision(t *testing.T) {
	g := New(rand.NewPCG(5, 6), testLogger())

	calls := 0
	exists := func(_ context.Context, number string) (bool, error) {
		calls++
		return calls <= 3, nil // first three candidates collide
	}

	number, err := g.Unique(context.Background(), exists)
	require.NoError(t, err)
	require.Len(t, number, Length)
	require.Equal(t, 4, calls)
}

func TestUniqueStopsOnContextCancel(t *testing.T) {
	g := New(rand.NewPCG(7, 8), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	exists := func(_ context.Context, number string) (bool, error) {
		cancel() // every candidate collides, cancellation is the way out
		return true, nil
	}

	_, err := g.Unique(ctx, exists)
	require.ErrorIs(t, err, context.Canceled)
}

func TestUniquePropagatesCheckError(t *testing.T) {
	g := New(rand.NewPCG(9, 10), testLogger())

	exists := func(_ context.Context, number string) (bool, error) {
		return false, io.ErrUnexpectedEOF
	}

	_, err := g.Unique(context.Background(), exists)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

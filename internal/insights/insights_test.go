package insights

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solace/internal/remote"
	"solace/internal/session"
)

type stubBackend struct {
	stats      *remote.Statistics
	statsErr   error
	history    []remote.MoodPoint
	historyErr error

	historyDays int
}

func (b *stubBackend) FetchStatistics(_ context.Context, _, _ string) (*remote.Statistics, error) {
	return b.stats, b.statsErr
}

func (b *stubBackend) FetchMoodHistory(_ context.Context, _, _ string, days int) ([]remote.MoodPoint, error) {
	b.historyDays = days
	return b.history, b.historyErr
}

func newTestLoader(backend Backend) *Loader {
	return NewLoader(backend, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func testSession() session.Session {
	return session.Session{UserID: "u-1", UserName: "alice", Token: "tok-1"}
}

func TestLoad_BothPartsArrive(t *testing.T) {
	backend := &stubBackend{
		stats:   &remote.Statistics{TotalInteractions: 42, AverageEmotion: 0.5},
		history: []remote.MoodPoint{{Timestamp: "2026-08-30", Emotion: 0.4}},
	}

	summary := newTestLoader(backend).Load(context.Background(), testSession())
	require.NotNil(t, summary)
	require.NotNil(t, summary.Stats)
	assert.Equal(t, 42, summary.Stats.TotalInteractions)
	assert.InDelta(t, 100.0, summary.Stability, 1e-9)
	assert.Len(t, summary.History, 1)
	assert.Equal(t, HistoryDays, backend.historyDays)
}

// TestLoad_PartialFailureKeepsOtherPart verifies load failures degrade one
// panel at a time instead of failing the whole summary.
func TestLoad_PartialFailureKeepsOtherPart(t *testing.T) {
	t.Run("statistics failed", func(t *testing.T) {
		backend := &stubBackend{
			statsErr: assert.AnError,
			history:  []remote.MoodPoint{{Timestamp: "2026-08-30", Emotion: 0.4}},
		}
		summary := newTestLoader(backend).Load(context.Background(), testSession())
		assert.Nil(t, summary.Stats)
		assert.Len(t, summary.History, 1)
	})

	t.Run("history failed", func(t *testing.T) {
		backend := &stubBackend{
			stats:      &remote.Statistics{TotalInteractions: 7, AverageEmotion: 0.25},
			historyErr: assert.AnError,
		}
		summary := newTestLoader(backend).Load(context.Background(), testSession())
		require.NotNil(t, summary.Stats)
		assert.Empty(t, summary.History)
	})

	t.Run("both failed yields empty summary", func(t *testing.T) {
		backend := &stubBackend{statsErr: assert.AnError, historyErr: assert.AnError}
		summary := newTestLoader(backend).Load(context.Background(), testSession())
		require.NotNil(t, summary)
		assert.Nil(t, summary.Stats)
		assert.Empty(t, summary.History)
	})
}

// TestStabilityScore verifies the derivation: a 0.5 average is perfectly
// stable and either extreme scores zero.
func TestStabilityScore(t *testing.T) {
	cases := []struct {
		name string
		avg  float64
		want float64
	}{
		{"balanced", 0.5, 100},
		{"floor", 0.0, 0},
		{"ceiling", 1.0, 0},
		{"leaning low", 0.25, 50},
		{"leaning high", 0.75, 50},
		{"rounded to two decimals", 0.123, 24.6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, StabilityScore(tc.avg), 1e-9)
		})
	}
}

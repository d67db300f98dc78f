package repository

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/feeltime/internal/domain"
)

type fixtureLog struct {
	employee string
	et       domain.EventType
	emotion  int
	at       time.Time
}

// fixture spans several weeks, both event types and timestamps near UTC midnight.
func fixture() []fixtureLog {
	r := rand.New(rand.NewSource(42))
	start := time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)

	logs := make([]fixtureLog, 0, 200)
	for day := 0; day < 45; day++ {
		date := start.AddDate(0, 0, day)
		for _, emp := range []string{"E1", "E2"} {
			logs = append(logs,
				fixtureLog{emp, domain.EventIn, 1 + r.Intn(5), date.Add(time.Duration(r.Intn(180)) * time.Minute)},
				fixtureLog{emp, domain.EventOut, 1 + r.Intn(5), date.Add(21*time.Hour + time.Duration(r.Intn(179))*time.Minute + 999*time.Millisecond)},
			)
		}
	}
	return logs
}

func seedFixture(t *testing.T, store domain.EmotionStore, logs []fixtureLog) {
	t.Helper()
	ctx := context.Background()
	for _, l := range logs {
		_, err := store.InsertEmotionLog(ctx, domain.NewEmotionLog{EmployeeID: l.employee, Type: l.et, Emotion: l.emotion, CreatedAt: l.at})
		require.NoError(t, err)
	}
}

func stripIDs(logs []domain.EmotionLog) []domain.EmotionLog {
	out := make([]domain.EmotionLog, len(logs))
	for i, l := range logs {
		l.ID = ""
		out[i] = l
	}
	return out
}

func TestBackendsAgree(t *testing.T) {
	logs := fixture()
	ctx := context.Background()

	type result struct {
		summary domain.Summary
		window  domain.Summary
		trends  domain.Trends
		rng     []domain.EmotionLog
	}
	window := domain.TimeRange{From: ts("2024-01-01T00:00:00Z"), To: ts("2024-01-21T23:59:59.999Z")}

	results := make(map[string]result)
	for name, factory := range backends() {
		name, factory := name, factory
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			seedFixture(t, store, logs)

			var res result
			var err error
			res.summary, err = store.GetSummary(ctx, "E1", domain.TimeRange{})
			require.NoError(t, err)
			res.window, err = store.GetSummary(ctx, "E1", window)
			require.NoError(t, err)
			res.trends, err = store.GetTrends(ctx, "E1", window)
			require.NoError(t, err)
			rng, err := store.GetLogsRange(ctx, "E2", window)
			require.NoError(t, err)
			res.rng = stripIDs(rng)
			results[name] = res
		})
	}

	reference, ok := results["sqlite"]
	require.True(t, ok)
	for name, res := range results {
		assert.Equal(t, reference.summary, res.summary, name)
		assert.Equal(t, reference.window, res.window, name)
		assert.Equal(t, reference.trends, res.trends, name)
		assert.Equal(t, reference.rng, res.rng, name)
	}

	assert.Equal(t, 45, reference.summary.In.Count)
	assert.Len(t, reference.trends.Weekly, 3)
}

package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/feeltime/internal/domain"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name     string
		in       time.Time
		expected string
	}{
		{"monday midnight", at("2024-01-01T00:00:00Z"), "2024-01-01"},
		{"sunday late", at("2024-01-07T23:59:59.999Z"), "2024-01-01"},
		{"sunday before new year", at("2023-12-31T12:00:00Z"), "2023-12-25"},
		{"leap year friday", at("2024-03-01T09:30:00Z"), "2024-02-26"},
		{"offset converted to utc", at("2024-01-01T01:00:00+05:00"), "2023-12-25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WeekStart(tt.in))
		})
	}
}

func TestDayOfWeek(t *testing.T) {
	assert.Equal(t, 1, DayOfWeek(at("2024-01-01T00:00:00Z")))
	assert.Equal(t, 0, DayOfWeek(at("2024-01-07T10:00:00Z")))
	assert.Equal(t, 6, DayOfWeek(at("2024-01-06T10:00:00Z")))
	// 2024-01-01T02:00+03:00 is still Sunday in UTC.
	assert.Equal(t, 0, DayOfWeek(at("2024-01-01T02:00:00+03:00")))
}

func TestTimestampFormatting(t *testing.T) {
	ts := at("2024-01-01T10:00:00.123456+02:00")
	assert.Equal(t, "2024-01-01T08:00:00.123Z", FormatTimestamp(ts))

	parsed, err := ParseTimestamp("2024-01-01T08:00:00.123Z")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(Canonical(ts)))

	parsed, err = ParseTimestamp("2024-01-01 08:00:00")
	require.NoError(t, err)
	assert.Equal(t, at("2024-01-01T08:00:00Z"), parsed)

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestBoundsRoundInward(t *testing.T) {
	sub := at("2024-01-01T00:00:00.0005Z")
	assert.Equal(t, "2024-01-01T00:00:00.001Z", LowerBound(sub))
	assert.Equal(t, "2024-01-01T00:00:00.000Z", UpperBound(sub))

	exact := at("2024-01-01T00:00:00Z")
	assert.Equal(t, "2024-01-01T00:00:00.000Z", LowerBound(exact))
	assert.Equal(t, "2024-01-01T00:00:00.000Z", UpperBound(exact))
}

func TestInRangeIsInclusive(t *testing.T) {
	ts := at("2024-01-01T00:00:00Z")
	assert.True(t, InRange(ts, domain.TimeRange{From: ts, To: ts}))
	assert.True(t, InRange(ts, domain.TimeRange{}))
	assert.False(t, InRange(ts, domain.TimeRange{From: ts.Add(time.Millisecond)}))
	assert.False(t, InRange(ts, domain.TimeRange{To: ts.Add(-time.Millisecond)}))
}

func TestSummaryBuilder(t *testing.T) {
	var b SummaryBuilder
	b.Add(domain.EmotionLog{EventType: domain.EventIn, Emotion: 5})
	b.Add(domain.EmotionLog{EventType: domain.EventIn, Emotion: 2})
	b.Add(domain.EmotionLog{EventType: "lunch", Emotion: 1})

	s := b.Result()
	assert.Equal(t, 2, s.In.Count)
	require.NotNil(t, s.In.Avg)
	assert.Equal(t, 3.5, *s.In.Avg)
	assert.Equal(t, 0, s.Out.Count)
	assert.Nil(t, s.Out.Avg)
}

func TestRowsAndGroupsAgree(t *testing.T) {
	rows := []domain.EmotionLog{
		{EventType: domain.EventIn, Emotion: 1, CreatedAt: at("2024-01-01T09:00:00Z")},
		{EventType: domain.EventIn, Emotion: 2, CreatedAt: at("2024-01-01T09:30:00Z")},
		{EventType: domain.EventIn, Emotion: 2, CreatedAt: at("2024-01-08T09:00:00Z")},
		{EventType: domain.EventOut, Emotion: 4, CreatedAt: at("2024-01-07T18:00:00Z")},
	}

	fromRows := NewTrendsBuilder()
	for _, r := range rows {
		fromRows.Add(r)
	}

	fromGroups := NewTrendsBuilder()
	fromGroups.AddWeekdayGroup(1, domain.EventIn, 3, 5)
	fromGroups.AddWeekdayGroup(0, domain.EventOut, 1, 4)
	fromGroups.AddWeeklyGroup("2024-01-01", domain.EventIn, 2, 3)
	fromGroups.AddWeeklyGroup("2024-01-01", domain.EventOut, 1, 4)
	fromGroups.AddWeeklyGroup("2024-01-08", domain.EventIn, 1, 2)

	assert.Equal(t, fromGroups.Result(), fromRows.Result())

	res := fromRows.Result()
	require.Len(t, res.Weekday, 7)
	for i, d := range res.Weekday {
		assert.Equal(t, i, d.DOW)
	}
	require.Len(t, res.Weekly, 2)
	assert.Equal(t, "2024-01-01", res.Weekly[0].WeekStart)
	assert.Equal(t, "2024-01-08", res.Weekly[1].WeekStart)
	assert.InDelta(t, 5.0/3.0, *res.Weekday[1].In.Avg, 0)
}

func TestEmptyTrendsAreDense(t *testing.T) {
	res := NewTrendsBuilder().Result()
	require.Len(t, res.Weekday, 7)
	for _, d := range res.Weekday {
		assert.Equal(t, domain.Stats{}, d.In)
		assert.Equal(t, domain.Stats{}, d.Out)
	}
	assert.NotNil(t, res.Weekly)
	assert.Empty(t, res.Weekly)
}

// Package aggregate is the shared arithmetic of summaries and trends.
//
// Relational backends feed it per-group {count, sum} rows computed by SQL, the object store
// feeds it raw rows. Both finalize through Accumulator.Stats so every backend rounds the
// same way.
package aggregate

import (
	"sort"

	"github.com/locvowork/feeltime/internal/domain"
)

// Accumulator is a running count and emotion sum of one bucket.
type Accumulator struct {
	Count int64
	Sum   int64
}

// Add folds one emotion score into the bucket.
func (a *Accumulator) Add(emotion int) {
	a.Count++
	a.Sum += int64(emotion)
}

// Merge folds a pre-aggregated group into the bucket.
func (a *Accumulator) Merge(count, sum int64) {
	a.Count += count
	a.Sum += sum
}

// Stats finalizes the bucket. Avg is nil for an empty bucket.
func (a Accumulator) Stats() domain.Stats {
	if a.Count == 0 {
		return domain.Stats{}
	}
	avg := float64(a.Sum) / float64(a.Count)
	return domain.Stats{Count: int(a.Count), Avg: &avg}
}

// byType holds one accumulator per event type.
type byType struct {
	in  Accumulator
	out Accumulator
}

func (b *byType) slot(t domain.EventType) *Accumulator {
	switch t {
	case domain.EventIn:
		return &b.in
	case domain.EventOut:
		return &b.out
	}
	return nil
}

// SummaryBuilder reduces rows or groups into a domain.Summary.
type SummaryBuilder struct {
	b byType
}

// Add folds one row. Unknown event types are ignored.
func (s *SummaryBuilder) Add(log domain.EmotionLog) {
	if acc := s.b.slot(log.EventType); acc != nil {
		acc.Add(log.Emotion)
	}
}

// AddGroup folds a grouped {count, sum} result for one event type.
func (s *SummaryBuilder) AddGroup(t domain.EventType, count, sum int64) {
	if acc := s.b.slot(t); acc != nil {
		acc.Merge(count, sum)
	}
}

// Result returns the summary with both event types present.
func (s *SummaryBuilder) Result() domain.Summary {
	return domain.Summary{In: s.b.in.Stats(), Out: s.b.out.Stats()}
}

// TrendsBuilder reduces rows or groups into domain.Trends.
type TrendsBuilder struct {
	weekday [7]byType
	weekly  map[string]*byType
}

// NewTrendsBuilder returns an empty builder.
func NewTrendsBuilder() *TrendsBuilder {
	return &TrendsBuilder{weekly: make(map[string]*byType)}
}

// Add folds one row into its day-of-week and week buckets.
func (t *TrendsBuilder) Add(log domain.EmotionLog) {
	if !log.EventType.Valid() {
		return
	}
	t.weekday[DayOfWeek(log.CreatedAt)].slot(log.EventType).Add(log.Emotion)
	t.week(WeekStart(log.CreatedAt)).slot(log.EventType).Add(log.Emotion)
}

// AddWeekdayGroup folds a grouped result for one day of week and event type.
func (t *TrendsBuilder) AddWeekdayGroup(dow int, et domain.EventType, count, sum int64) {
	if dow < 0 || dow > 6 || !et.Valid() {
		return
	}
	t.weekday[dow].slot(et).Merge(count, sum)
}

// AddWeeklyGroup folds a grouped result for one week (YYYY-MM-DD Monday) and event type.
func (t *TrendsBuilder) AddWeeklyGroup(weekStart string, et domain.EventType, count, sum int64) {
	if !et.Valid() || count == 0 {
		return
	}
	t.week(weekStart).slot(et).Merge(count, sum)
}

func (t *TrendsBuilder) week(key string) *byType {
	b, ok := t.weekly[key]
	if !ok {
		b = &byType{}
		t.weekly[key] = b
	}
	return b
}

// Result returns 7 dense weekday entries and the weeks that hold data, ascending.
func (t *TrendsBuilder) Result() domain.Trends {
	weekday := make([]domain.WeekdayTrend, 7)
	for dow := range t.weekday {
		weekday[dow] = domain.WeekdayTrend{
			DOW: dow,
			In:  t.weekday[dow].in.Stats(),
			Out: t.weekday[dow].out.Stats(),
		}
	}

	keys := make([]string, 0, len(t.weekly))
	for k := range t.weekly {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	weekly := make([]domain.WeeklyTrend, 0, len(keys))
	for _, k := range keys {
		b := t.weekly[k]
		weekly = append(weekly, domain.WeeklyTrend{
			WeekStart: k,
			In:        b.in.Stats(),
			Out:       b.out.Stats(),
		})
	}
	return domain.Trends{Weekday: weekday, Weekly: weekly}
}

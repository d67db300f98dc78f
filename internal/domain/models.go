package domain

import "time"

// EventType is the kind of clock event an emotion is attached to.
type EventType string

const (
	EventIn  EventType = "in"
	EventOut EventType = "out"
)

// Valid reports whether t is one of the known clock event types.
func (t EventType) Valid() bool {
	return t == EventIn || t == EventOut
}

// ==================== ORGANIZATION ====================

// Department represents the departments table
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Employee represents the employees table
type Employee struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DepartmentID string `json:"department_id"`
}

// ==================== EMOTION LOGS ====================

// EmotionLog represents one clock event tagged with a 1..5 emotion score.
// EmployeeID is free-form and is not required to match an Employee row.
type EmotionLog struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	EventType  EventType `json:"event_type"`
	Emotion    int       `json:"emotion"`
	Note       *string   `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewEmotionLog carries the insert parameters of an emotion log.
// A zero CreatedAt means the store assigns its own insertion time.
type NewEmotionLog struct {
	EmployeeID string
	Type       EventType
	Emotion    int
	Note       *string
	CreatedAt  time.Time
}

// TimeRange is an inclusive created_at window. A zero bound is open.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// ==================== AGGREGATES ====================

// Stats is the count and mean emotion of one bucket. Avg is nil when Count is 0.
type Stats struct {
	Count int      `json:"count"`
	Avg   *float64 `json:"avg"`
}

// Summary holds per event type stats. Both keys are always present.
type Summary struct {
	In  Stats `json:"in"`
	Out Stats `json:"out"`
}

// WeekdayTrend is the bucket of one day of week, 0=Sunday..6=Saturday.
type WeekdayTrend struct {
	DOW int   `json:"dow"`
	In  Stats `json:"in"`
	Out Stats `json:"out"`
}

// WeeklyTrend is the bucket of one week. WeekStart is the Monday as YYYY-MM-DD.
type WeeklyTrend struct {
	WeekStart string `json:"week_start"`
	In        Stats  `json:"in"`
	Out       Stats  `json:"out"`
}

// Trends groups emotion stats by day of week (always 7 entries) and by week (sparse).
type Trends struct {
	Weekday []WeekdayTrend `json:"weekday"`
	Weekly  []WeeklyTrend  `json:"weekly"`
}

package domain

import "context"

// DefaultRecentLimit is used by GetRecent when the caller passes a non-positive limit.
const DefaultRecentLimit = 10

// EmotionStore is the storage contract shared by every backend.
// Implementations must return identical shapes and identical aggregate numbers for identical data.
type EmotionStore interface {
	// ResetAll destroys every department, employee and emotion log. Best effort.
	ResetAll(ctx context.Context) error

	InsertDepartment(ctx context.Context, name string) (string, error)
	InsertEmployee(ctx context.Context, name, departmentID string) (string, error)
	InsertEmotionLog(ctx context.Context, in NewEmotionLog) (string, error)

	// Health is a lightweight liveness probe against the storage medium.
	Health(ctx context.Context) error

	GetSummary(ctx context.Context, employeeID string, r TimeRange) (Summary, error)
	GetRecent(ctx context.Context, employeeID string, limit int) ([]EmotionLog, error)
	GetLogsRange(ctx context.Context, employeeID string, r TimeRange) ([]EmotionLog, error)
	GetDepartments(ctx context.Context) ([]Department, error)
	GetLogsRangeByDepartment(ctx context.Context, departmentID string, r TimeRange) ([]EmotionLog, error)
	GetTrends(ctx context.Context, employeeID string, r TimeRange) (Trends, error)

	Close() error
}

package repository

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/feeltime/internal/database"
	"github.com/locvowork/feeltime/internal/domain"
)

type storeFactory func(t *testing.T) domain.EmotionStore

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"sqlite":   newTestSQLiteStore,
		"object":   newTestObjectStore,
		"postgres": newTestPostgresStore,
	}
}

func newTestSQLiteStore(t *testing.T) domain.EmotionStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewSQLiteDB(ctx, filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	store, err := NewSQLiteStore(ctx, db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestObjectStore(t *testing.T) domain.EmotionStore {
	t.Helper()
	store, err := NewObjectStore(context.Background(), database.NewMemoryBucket())
	require.NoError(t, err)
	return store
}

// newTestPostgresStore needs TEST_DATABASE_URL and wipes that database.
func newTestPostgresStore(t *testing.T) domain.EmotionStore {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, database.Config{URL: url, MaxOpenConns: 5, MaxIdleConns: 5, ConnMaxLifetime: time.Minute})
	require.NoError(t, err)
	store, err := NewPostgresStore(ctx, db)
	require.NoError(t, err)
	require.NoError(t, store.ResetAll(ctx))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string { return &s }

func insertLog(t *testing.T, store domain.EmotionStore, employeeID string, et domain.EventType, emotion int, at string) string {
	t.Helper()
	in := domain.NewEmotionLog{EmployeeID: employeeID, Type: et, Emotion: emotion}
	if at != "" {
		in.CreatedAt = ts(at)
	}
	id, err := store.InsertEmotionLog(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func TestStoreContract(t *testing.T) {
	for name, factory := range backends() {
		factory := factory
		t.Run(name, func(t *testing.T) {
			t.Run("InsertThenRecent", func(t *testing.T) {
				store := factory(t)
				ctx := context.Background()

				at := ts("2024-03-05T08:15:30.123456Z")
				id, err := store.InsertEmotionLog(ctx, domain.NewEmotionLog{
					EmployeeID: "E1", Type: domain.EventIn, Emotion: 4, Note: strPtr("coffee"), CreatedAt: at,
				})
				require.NoError(t, err)

				recent, err := store.GetRecent(ctx, "E1", 1)
				require.NoError(t, err)
				require.Len(t, recent, 1)
				got := recent[0]
				assert.Equal(t, id, got.ID)
				assert.Equal(t, "E1", got.EmployeeID)
				assert.Equal(t, domain.EventIn, got.EventType)
				assert.Equal(t, 4, got.Emotion)
				require.NotNil(t, got.Note)
				assert.Equal(t, "coffee", *got.Note)
				assert.True(t, got.CreatedAt.Equal(ts("2024-03-05T08:15:30.123Z")), got.CreatedAt)
				assert.Equal(t, time.UTC, got.CreatedAt.Location())
			})

			t.Run("DefaultCreatedAt", func(t *testing.T) {
				store := factory(t)
				ctx := context.Background()

				before := time.Now().Add(-2 * time.Second)
				_, err := store.InsertEmotionLog(ctx, domain.NewEmotionLog{EmployeeID: "E1", Type: domain.EventOut, Emotion: 2})
				require.NoError(t, err)

				recent, err := store.GetRecent(ctx, "E1", 0)
				require.NoError(t, err)
				require.Len(t, recent, 1)
				assert.Nil(t, recent[0].Note)
				assert.WithinDuration(t, before, recent[0].CreatedAt, 10*time.Second)
			})

			t.Run("SummaryPerType", func(t *testing.T) {
				store := factory(t)
				ctx := context.Background()

				insertLog(t, store, "E1", domain.EventIn, 5, "2024-01-02T09:00:00Z")
				insertLog(t, store, "E1", domain.EventOut, 1, "2024-01-02T18:00:00Z")
				insertLog(t, store, "E2", domain.EventOut, 3, "2024-01-02T18:00:00Z")

				s, err := store.GetSummary(ctx, "E1", domain.TimeRange{})
				require.NoError(t, err)
				assert.Equal(t, 1, s.In.Count)
				require.NotNil(t, s.In.Avg)
				assert.Equal(t, 5.0, *s.In.Avg)
				assert.Equal(t, 1, s.Out.Count)
				require.NotNil(t, s.Out.Avg)
				assert.Equal(t, 1.0, *s.Out.Avg)
			})

			t.Run("EmptySummaryHasBothKeys", func(t *testing.T) {
				store := factory(t)
				s, err := store.GetSummary(context.Background(), "nobody", domain.TimeRange{})
				require.NoError(t, err)
				assert.Equal(t, domain.Summary{}, s)
			})

			t.Run("InclusiveBounds", func(t *testing.T) {
				store := factory(t)
				ctx := context.Background()

				instant := "2024-01-01T00:00:00Z"
				id := insertLog(t, store, "E1", domain.EventIn, 3, instant)
				insertLog(t, store, "E1", domain.EventIn, 3, "2024-01-01T00:00:00.001Z")

				r := domain.TimeRange{From: ts(instant), To: ts(instant)}
				logs, err := store.GetLogsRange(ctx, "E1", r)
				require.NoError(t, err)
				require.Len(t, logs, 1)
				assert.Equal(t, id, logs[0].ID)

				s, err := store.GetSummary(ctx, "E1", r)
				require.NoError(t, err)
				assert.Equal(t, 1, s.In.Count)
			})

			t.Run("RecentOrderAndLimit", func(t *testing.T) {
				store := factory(t)
				ctx := context.Background()

				base := ts("2024-02-01T08:00:00Z")
				for i := 0; i < 12; i++ {
					_, err := store.InsertEmotionLog(ctx, domain.NewEmotionLog{
						EmployeeID: "E1", Type: domain.EventIn, Emotion: 3, CreatedAt: base.Add(time.Duration(i) * time.Hour),
					})
					require.NoError(t, err)
				}

				recent, err := store.GetRecent(ctx, "E1", 0)
				require.NoError(t, err)
				require.Len(t, recent, domain.DefaultRecentLimit)
				assert.True(t, recent[0].CreatedAt.Equal(base.Add(11*time.Hour)))
				for i := 1; i < len(recent); i++ {
					assert.True(t, recent[i-1].CreatedAt.After(recent[i].CreatedAt))
				}

				recent, err = store.GetRecent(ctx, "E1", 3)
				require.NoError(t, err)
				assert.Len(t, recent, 3)
			})

			t.Run("TiesBrokenByID", func(t *testing.T) {
				store := factory(t)
				ctx := context.Background()

				same := "2024-02-01T08:00:00Z"
				ids := []string{
					insertLog(t, store, "E1", domain.EventIn, 1, same),
					insertLog(t, store, "E1", domain.EventIn, 2, same),
					insertLog(t, store, "E1", domain.EventIn, 3, same),
				}
				sort.Strings(ids)

				asc, err := store.GetLogsRange(ctx, "E1", domain.TimeRange{})
				require.NoError(t, err)
				require.Len(t, asc, 3)
				assert.Equal(t, ids, []string{asc[0].ID, asc[1].ID, asc[2].ID})

				desc, err := store.GetRecent(ctx, "E1", 3)
				require.NoError(t, err)
				assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{desc[0].ID, desc[1].ID, desc[2].ID})
			})

			t.Run("LogsRangeAscendingAndStable", func(t *testing.T) {
				store := factory(t)
				ctx := context.Background()

				insertLog(t, store, "E1", domain.EventOut, 2, "2024-01-03T18:00:00Z")
				insertLog(t, store, "E1", domain.EventIn, 4, "2024-01-01T09:00:00Z")
				insertLog(t, store, "E1", domain.EventIn, 3, "2024-01-02T09:00:00Z")

				r := domain.TimeRange{From: ts("2024-01-01T00:00:00Z"), To: ts("2024-01-02T23:59:59Z")}
				first, err := store.GetLogsRange(ctx, "E1", r)
				require.NoError(t, err)
				require.Len(t, first, 2)
				assert.True(t, first[0].CreatedAt.Before(first[1].CreatedAt))

				second, err := store.GetLogsRange(ctx, "E1", r)
				require.NoError(t, err)
				assert.Equal(t, first, second)

				none, err := store.GetLogsRange(ctx, "E9", r)
				require.NoError(t, err)
				assert.NotNil(t, none)
				assert.Empty(t, none)
			})

			t.Run("Departments", func(t *testing.T) {
				store := factory(t)
				ctx := context.Background()

				for _, name := range []string{"Sales", "Engineering", "HR"} {
					_, err := store.InsertDepartment(ctx, name)
					require.NoError(t, err)
				}
				_, err := store.InsertDepartment(ctx, "Sales")
				assert.ErrorIs(t, err, domain.ErrConstraintViolation)

				first, err := store.GetDepartments(ctx)
				require.NoError(t, err)
				names := make([]string, 0, len(first))
				for _, d := range first {
					names = append(names, d.Name)
				}
				assert.Equal(t, []string{"Engineering", "HR", "Sales"}, names)

				second, err := store.GetDepartments(ctx)
				require.NoError(t, err)
				assert.Equal(t, first, second)
			})

			t.Run("EmployeeNeedsDepartment", func(t *testing.T) {
				store := factory(t)
				ctx := context.Background()

				_, err := store.InsertEmployee(ctx, "Ghost", "missing-department")
				assert.ErrorIs(t, err, domain.ErrConstraintViolation)

				deptID, err := store.InsertDepartment(ctx, "Engineering")
				require.NoError(t, err)
				empID, err := store.InsertEmployee(ctx, "User 1", deptID)
				require.NoError(t, err)
				assert.NotEmpty(t, empID)
			})

			t.Run("LogsByDepartment", func(t *testing.T) {
				store := factory(t)
				ctx := context.Background()

				eng, err := store.InsertDepartment(ctx, "Engineering")
				require.NoError(t, err)
				sales, err := store.InsertDepartment(ctx, "Sales")
				require.NoError(t, err)
				alice, err := store.InsertEmployee(ctx, "Alice", eng)
				require.NoError(t, err)
				bob, err := store.InsertEmployee(ctx, "Bob", eng)
				require.NoError(t, err)
				carol, err := store.InsertEmployee(ctx, "Carol", sales)
				require.NoError(t, err)

				insertLog(t, store, bob, domain.EventIn, 2, "2024-01-02T09:00:00Z")
				insertLog(t, store, alice, domain.EventIn, 4, "2024-01-01T09:00:00Z")
				insertLog(t, store, carol, domain.EventIn, 5, "2024-01-01T10:00:00Z")
				insertLog(t, store, alice, domain.EventOut, 3, "2024-02-01T18:00:00Z")

				logs, err := store.GetLogsRangeByDepartment(ctx, eng, domain.TimeRange{To: ts("2024-01-31T23:59:59Z")})
				require.NoError(t, err)
				require.Len(t, logs, 2)
				assert.Equal(t, alice, logs[0].EmployeeID)
				assert.Equal(t, bob, logs[1].EmployeeID)

				empty, err := store.GetLogsRangeByDepartment(ctx, "unknown", domain.TimeRange{})
				require.NoError(t, err)
				assert.NotNil(t, empty)
				assert.Empty(t, empty)
			})

			t.Run("TrendsShape", func(t *testing.T) {
				store := factory(t)
				ctx := context.Background()

				// Monday, Sunday of the same week, and the next Monday.
				insertLog(t, store, "E1", domain.EventIn, 4, "2024-01-01T09:00:00Z")
				insertLog(t, store, "E1", domain.EventOut, 2, "2024-01-07T18:00:00Z")
				insertLog(t, store, "E1", domain.EventIn, 5, "2024-01-08T09:00:00Z")

				tr, err := store.GetTrends(ctx, "E1", domain.TimeRange{})
				require.NoError(t, err)
				require.Len(t, tr.Weekday, 7)
				for i, d := range tr.Weekday {
					assert.Equal(t, i, d.DOW)
				}
				assert.Equal(t, 2, tr.Weekday[1].In.Count)
				assert.Equal(t, 4.5, *tr.Weekday[1].In.Avg)
				assert.Equal(t, 1, tr.Weekday[0].Out.Count)
				assert.Nil(t, tr.Weekday[3].In.Avg)

				require.Len(t, tr.Weekly, 2)
				assert.Equal(t, "2024-01-01", tr.Weekly[0].WeekStart)
				assert.Equal(t, 1, tr.Weekly[0].In.Count)
				assert.Equal(t, 1, tr.Weekly[0].Out.Count)
				assert.Equal(t, "2024-01-08", tr.Weekly[1].WeekStart)
				assert.Equal(t, 0, tr.Weekly[1].Out.Count)

				empty, err := store.GetTrends(ctx, "nobody", domain.TimeRange{})
				require.NoError(t, err)
				assert.Len(t, empty.Weekday, 7)
				assert.NotNil(t, empty.Weekly)
				assert.Empty(t, empty.Weekly)
			})

			t.Run("StoreRejectsOutOfRange", func(t *testing.T) {
				store := factory(t)
				ctx := context.Background()

				for _, emotion := range []int{0, 6} {
					_, err := store.InsertEmotionLog(ctx, domain.NewEmotionLog{EmployeeID: "E1", Type: domain.EventIn, Emotion: emotion})
					assert.ErrorIs(t, err, domain.ErrConstraintViolation, "emotion %d", emotion)
				}
				_, err := store.InsertEmotionLog(ctx, domain.NewEmotionLog{EmployeeID: "E1", Type: "lunch", Emotion: 3})
				assert.ErrorIs(t, err, domain.ErrConstraintViolation)

				recent, err := store.GetRecent(ctx, "E1", 10)
				require.NoError(t, err)
				assert.Empty(t, recent)
			})

			t.Run("AdHocEmployeeID", func(t *testing.T) {
				store := factory(t)
				insertLog(t, store, "not-an-employee", domain.EventIn, 3, "")
			})

			t.Run("ResetAll", func(t *testing.T) {
				store := factory(t)
				ctx := context.Background()

				dept, err := store.InsertDepartment(ctx, "Engineering")
				require.NoError(t, err)
				emp, err := store.InsertEmployee(ctx, "User 1", dept)
				require.NoError(t, err)
				insertLog(t, store, emp, domain.EventIn, 3, "2024-01-01T09:00:00Z")

				require.NoError(t, store.ResetAll(ctx))

				depts, err := store.GetDepartments(ctx)
				require.NoError(t, err)
				assert.Empty(t, depts)
				logs, err := store.GetLogsRange(ctx, emp, domain.TimeRange{})
				require.NoError(t, err)
				assert.Empty(t, logs)

				// Names are free again after a reset.
				_, err = store.InsertDepartment(ctx, "Engineering")
				assert.NoError(t, err)
			})

			t.Run("Health", func(t *testing.T) {
				store := factory(t)
				assert.NoError(t, store.Health(context.Background()))
			})
		})
	}
}

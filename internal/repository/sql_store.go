package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/locvowork/feeltime/internal/aggregate"
	"github.com/locvowork/feeltime/internal/domain"
	"github.com/locvowork/feeltime/internal/idgen"
	"github.com/locvowork/feeltime/internal/repository/builder"
	"github.com/locvowork/feeltime/internal/schema"
)

type boundKind int

const (
	exactTime boundKind = iota
	lowerBound
	upperBound
)

// dialect carries everything that differs between the relational engines.
type dialect interface {
	schemaDialect() schema.Dialect
	placeholder() builder.Placeholder
	// timeArg converts a created_at value or range bound into a bind argument.
	timeArg(t time.Time, kind boundKind) interface{}
	dayOfWeekExpr(col string) string
	weekStartExpr(col string) string
	// textOrder makes text ordering byte-wise so it matches the other backends.
	textOrder(col string) string
	resetStatements() []string
	health(ctx context.Context, db *sql.DB) error
	// classify maps a driver error to a domain sentinel, or nil when it has no mapping.
	classify(err error) error
}

// SQLStore implements domain.EmotionStore on a relational engine.
type SQLStore struct {
	db    *sql.DB
	d     dialect
	newID idgen.Generator
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, d: d, newID: idgen.New}
	if err := schema.Apply(ctx, db, d.schemaDialect()); err != nil {
		return nil, s.wrapErr("apply schema", err)
	}
	return s, nil
}

func (s *SQLStore) newBuilder() *builder.SQLBuilder {
	return builder.NewSQLBuilderFor(s.d.placeholder())
}

func (s *SQLStore) ResetAll(ctx context.Context) error {
	for _, stmt := range s.d.resetStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return s.wrapErr("reset", err)
		}
	}
	return nil
}

func (s *SQLStore) InsertDepartment(ctx context.Context, name string) (string, error) {
	id := s.newID()
	query, args := s.newBuilder().Insert(schema.TableDepartments, "id", "name").
		Values(id, name).
		Build()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", s.wrapErr("insert department", err)
	}
	return id, nil
}

func (s *SQLStore) InsertEmployee(ctx context.Context, name, departmentID string) (string, error) {
	id := s.newID()
	query, args := s.newBuilder().Insert(schema.TableEmployees, "id", "name", "department_id").
		Values(id, name, departmentID).
		Build()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", s.wrapErr("insert employee", err)
	}
	return id, nil
}

func (s *SQLStore) InsertEmotionLog(ctx context.Context, in domain.NewEmotionLog) (string, error) {
	id := s.newID()
	cols := []string{"id", "employee_id", "event_type", "emotion", "note"}
	vals := []interface{}{id, in.EmployeeID, string(in.Type), in.Emotion, nullableNote(in.Note)}
	if !in.CreatedAt.IsZero() {
		cols = append(cols, "created_at")
		vals = append(vals, s.d.timeArg(in.CreatedAt, exactTime))
	}

	query, args := s.newBuilder().Insert(schema.TableEmotionLogs, cols...).Values(vals...).Build()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", s.wrapErr("insert emotion log", err)
	}
	return id, nil
}

func (s *SQLStore) Health(ctx context.Context) error {
	if err := s.d.health(ctx, s.db); err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *SQLStore) GetSummary(ctx context.Context, employeeID string, r domain.TimeRange) (domain.Summary, error) {
	b := s.newBuilder().Select("event_type", "COUNT(*)", "SUM(emotion)").
		From(schema.TableEmotionLogs).
		Where("employee_id = ?", employeeID)
	s.whereRange(b, "created_at", r)
	query, args := b.GroupBy("event_type").Build()

	var sb aggregate.SummaryBuilder
	err := s.queryGroups(ctx, query, args, func(rows *sql.Rows) error {
		var et string
		var count, sum int64
		if err := rows.Scan(&et, &count, &sum); err != nil {
			return err
		}
		sb.AddGroup(domain.EventType(et), count, sum)
		return nil
	})
	if err != nil {
		return domain.Summary{}, s.wrapErr("get summary", err)
	}
	return sb.Result(), nil
}

func (s *SQLStore) GetRecent(ctx context.Context, employeeID string, limit int) ([]domain.EmotionLog, error) {
	if limit <= 0 {
		limit = domain.DefaultRecentLimit
	}
	query, args := s.newBuilder().Select(schema.EmotionLogColumns...).
		From(schema.TableEmotionLogs).
		Where("employee_id = ?", employeeID).
		OrderBy("created_at DESC", s.d.textOrder("id")+" DESC").
		Limit(limit).
		Build()

	logs, err := s.queryLogs(ctx, query, args)
	if err != nil {
		return nil, s.wrapErr("get recent", err)
	}
	return logs, nil
}

func (s *SQLStore) GetLogsRange(ctx context.Context, employeeID string, r domain.TimeRange) ([]domain.EmotionLog, error) {
	b := s.newBuilder().Select(schema.EmotionLogColumns...).
		From(schema.TableEmotionLogs).
		Where("employee_id = ?", employeeID)
	s.whereRange(b, "created_at", r)
	query, args := b.OrderBy("created_at ASC", s.d.textOrder("id")+" ASC").Build()

	logs, err := s.queryLogs(ctx, query, args)
	if err != nil {
		return nil, s.wrapErr("get logs range", err)
	}
	return logs, nil
}

func (s *SQLStore) GetDepartments(ctx context.Context) ([]domain.Department, error) {
	query, args := s.newBuilder().Select("id", "name").
		From(schema.TableDepartments).
		OrderBy(s.d.textOrder("name")+" ASC", s.d.textOrder("id")+" ASC").
		Build()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.wrapErr("get departments", err)
	}
	defer rows.Close()

	departments := make([]domain.Department, 0)
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, s.wrapErr("scan department", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrapErr("get departments", err)
	}
	return departments, nil
}

func (s *SQLStore) GetLogsRangeByDepartment(ctx context.Context, departmentID string, r domain.TimeRange) ([]domain.EmotionLog, error) {
	cols := make([]string, len(schema.EmotionLogColumns))
	for i, c := range schema.EmotionLogColumns {
		cols[i] = "l." + c
	}
	b := s.newBuilder().Select(cols...).
		From(schema.TableEmotionLogs+" l").
		Join("INNER", schema.TableEmployees+" e", "e.id = l.employee_id").
		Where("e.department_id = ?", departmentID)
	s.whereRange(b, "l.created_at", r)
	query, args := b.OrderBy("l.created_at ASC", s.d.textOrder("l.id")+" ASC").Build()

	logs, err := s.queryLogs(ctx, query, args)
	if err != nil {
		return nil, s.wrapErr("get department logs", err)
	}
	return logs, nil
}

func (s *SQLStore) GetTrends(ctx context.Context, employeeID string, r domain.TimeRange) (domain.Trends, error) {
	tb := aggregate.NewTrendsBuilder()

	weekday := s.newBuilder().Select(s.d.dayOfWeekExpr("created_at")+" AS dow", "event_type", "COUNT(*)", "SUM(emotion)").
		From(schema.TableEmotionLogs).
		Where("employee_id = ?", employeeID)
	s.whereRange(weekday, "created_at", r)
	query, args := weekday.GroupBy("dow", "event_type").Build()

	err := s.queryGroups(ctx, query, args, func(rows *sql.Rows) error {
		var dow, count, sum int64
		var et string
		if err := rows.Scan(&dow, &et, &count, &sum); err != nil {
			return err
		}
		tb.AddWeekdayGroup(int(dow), domain.EventType(et), count, sum)
		return nil
	})
	if err != nil {
		return domain.Trends{}, s.wrapErr("get weekday trends", err)
	}

	weekly := s.newBuilder().Select(s.d.weekStartExpr("created_at")+" AS week_start", "event_type", "COUNT(*)", "SUM(emotion)").
		From(schema.TableEmotionLogs).
		Where("employee_id = ?", employeeID)
	s.whereRange(weekly, "created_at", r)
	query, args = weekly.GroupBy("week_start", "event_type").Build()

	err = s.queryGroups(ctx, query, args, func(rows *sql.Rows) error {
		var week, et string
		var count, sum int64
		if err := rows.Scan(&week, &et, &count, &sum); err != nil {
			return err
		}
		tb.AddWeeklyGroup(week, domain.EventType(et), count, sum)
		return nil
	})
	if err != nil {
		return domain.Trends{}, s.wrapErr("get weekly trends", err)
	}

	return tb.Result(), nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) whereRange(b *builder.SQLBuilder, col string, r domain.TimeRange) {
	if !r.From.IsZero() {
		b.Where(col+" >= ?", s.d.timeArg(r.From, lowerBound))
	}
	if !r.To.IsZero() {
		b.Where(col+" <= ?", s.d.timeArg(r.To, upperBound))
	}
}

func (s *SQLStore) queryGroups(ctx context.Context, query string, args []interface{}, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLStore) queryLogs(ctx context.Context, query string, args []interface{}) ([]domain.EmotionLog, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.EmotionLog, 0)
	for rows.Next() {
		var l domain.EmotionLog
		var et string
		var note sql.NullString
		if err := rows.Scan(&l.ID, &l.EmployeeID, &et, &l.Emotion, &note, timestamp{&l.CreatedAt}); err != nil {
			return nil, err
		}
		l.EventType = domain.EventType(et)
		if note.Valid {
			n := note.String
			l.Note = &n
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *SQLStore) wrapErr(op string, err error) error {
	if sentinel := s.d.classify(err); sentinel != nil {
		return fmt.Errorf("%s: %w: %w", op, sentinel, err)
	}
	if isConnError(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func nullableNote(note *string) interface{} {
	if note == nil {
		return nil
	}
	return *note
}

// timestamp scans created_at from either a text column or a native timestamp column.
type timestamp struct {
	t *time.Time
}

func (ts timestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*ts.t = aggregate.Canonical(v)
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("scan created_at: unsupported type %T", src)
	}
}

func (ts timestamp) parse(s string) error {
	t, err := aggregate.ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts.t = aggregate.Canonical(t)
	return nil
}

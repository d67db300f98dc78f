package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"

	"github.com/locvowork/feeltime/internal/aggregate"
	"github.com/locvowork/feeltime/internal/domain"
	"github.com/locvowork/feeltime/internal/repository/builder"
	"github.com/locvowork/feeltime/internal/schema"
)

// Primary result codes, the low byte of an extended sqlite code.
const (
	sqliteIOErr      = 10
	sqliteCantOpen   = 14
	sqliteConstraint = 19
	sqliteNotADB     = 26
)

// NewSQLiteStore creates the embedded backend on an opened SQLite handle and applies the schema.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	return newSQLStore(ctx, db, sqliteDialect{})
}

type sqliteDialect struct{}

func (sqliteDialect) schemaDialect() schema.Dialect    { return schema.SQLite }
func (sqliteDialect) placeholder() builder.Placeholder { return builder.Question }

// created_at is fixed-width UTC text, so bounds are rounded inward to whole milliseconds.
func (sqliteDialect) timeArg(t time.Time, kind boundKind) interface{} {
	switch kind {
	case lowerBound:
		return aggregate.LowerBound(t)
	case upperBound:
		return aggregate.UpperBound(t)
	default:
		return aggregate.FormatTimestamp(t)
	}
}

func (sqliteDialect) dayOfWeekExpr(col string) string {
	return fmt.Sprintf("CAST(strftime('%%w', %s) AS INTEGER)", col)
}

// Step back six days, then forward to the next Monday: a Monday maps to itself.
func (sqliteDialect) weekStartExpr(col string) string {
	return fmt.Sprintf("date(%s, '-6 days', 'weekday 1')", col)
}

func (sqliteDialect) textOrder(col string) string { return col }

func (sqliteDialect) resetStatements() []string {
	return []string{
		"DELETE FROM " + schema.TableEmotionLogs,
		"DELETE FROM " + schema.TableEmployees,
		"DELETE FROM " + schema.TableDepartments,
	}
}

func (sqliteDialect) health(ctx context.Context, db *sql.DB) error {
	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("sqlite quick_check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: sqlite quick_check: %s", domain.ErrStorageUnavailable, result)
	}
	return nil
}

func (sqliteDialect) classify(err error) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}
	switch sqliteErr.Code() & 0xff {
	case sqliteConstraint:
		return domain.ErrConstraintViolation
	case sqliteIOErr, sqliteCantOpen, sqliteNotADB:
		return domain.ErrStorageUnavailable
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/locvowork/feeltime/internal/aggregate"
	"github.com/locvowork/feeltime/internal/domain"
	"github.com/locvowork/feeltime/internal/repository/builder"
	"github.com/locvowork/feeltime/internal/schema"
)

// NewPostgresStore creates the networked backend on a pooled PostgreSQL handle and applies the schema.
func NewPostgresStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	return newSQLStore(ctx, db, postgresDialect{})
}

type postgresDialect struct{}

func (postgresDialect) schemaDialect() schema.Dialect    { return schema.Postgres }
func (postgresDialect) placeholder() builder.Placeholder { return builder.Dollar }

func (postgresDialect) timeArg(t time.Time, kind boundKind) interface{} {
	if kind == lowerBound {
		return aggregate.CeilMillis(t)
	}
	return aggregate.Canonical(t)
}

func (postgresDialect) dayOfWeekExpr(col string) string {
	return fmt.Sprintf("EXTRACT(DOW FROM %s AT TIME ZONE 'UTC')::int", col)
}

func (postgresDialect) weekStartExpr(col string) string {
	return fmt.Sprintf("to_char(date_trunc('week', %s AT TIME ZONE 'UTC'), 'YYYY-MM-DD')", col)
}

func (postgresDialect) textOrder(col string) string { return col + ` COLLATE "C"` }

func (postgresDialect) resetStatements() []string {
	return []string{
		fmt.Sprintf("TRUNCATE TABLE %s, %s, %s", schema.TableEmotionLogs, schema.TableEmployees, schema.TableDepartments),
	}
}

func (postgresDialect) health(ctx context.Context, db *sql.DB) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("postgres select 1: %w", err)
	}
	return nil
}

func (postgresDialect) classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	switch pqErr.Code.Class() {
	case "23":
		return domain.ErrConstraintViolation
	case "08", "53", "57":
		return domain.ErrStorageUnavailable
	}
	return nil
}

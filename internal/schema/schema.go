// Package schema holds the canonical three-table layout shared by the relational backends.
//
// The DDL is identical for both engines except for the created_at column, which is a
// fixed-width UTC text timestamp on SQLite and a TIMESTAMPTZ on PostgreSQL. The
// object-storage backend emulates the same constraints without any index; its scans
// are full scans.
package schema

import (
	"context"
	"database/sql"
	"fmt"
)

// Dialect selects the engine specific fragments of the schema.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

const (
	TableDepartments = "departments"
	TableEmployees   = "employees"
	TableEmotionLogs = "emotion_logs"
)

// EmotionLogColumns is the select list of an emotion log row, in scan order.
var EmotionLogColumns = []string{"id", "employee_id", "event_type", "emotion", "note", "created_at"}

const createDepartments = `
CREATE TABLE IF NOT EXISTS departments (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
)`

const createEmployees = `
CREATE TABLE IF NOT EXISTS employees (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  department_id TEXT NOT NULL REFERENCES departments(id)
)`

// employee_id deliberately carries no foreign key: ad-hoc employee ids are accepted.
const createEmotionLogs = `
CREATE TABLE IF NOT EXISTS emotion_logs (
  id TEXT PRIMARY KEY,
  employee_id TEXT NOT NULL,
  event_type TEXT NOT NULL CHECK (event_type IN ('in','out')),
  emotion INTEGER NOT NULL CHECK (emotion BETWEEN 1 AND 5),
  note TEXT,
  created_at %s NOT NULL DEFAULT (%s)
)`

const (
	createLogsIndex      = `CREATE INDEX IF NOT EXISTS idx_emotion_logs_employee_created ON emotion_logs(employee_id, created_at)`
	createEmployeesIndex = `CREATE INDEX IF NOT EXISTS idx_employees_department ON employees(department_id)`
)

// Statements returns the DDL statements for d, in execution order.
func Statements(d Dialect) []string {
	var createdType, createdDefault string
	switch d {
	case Postgres:
		createdType = "TIMESTAMPTZ"
		createdDefault = "date_trunc('milliseconds', now())"
	default:
		createdType = "TEXT"
		createdDefault = "strftime('%Y-%m-%dT%H:%M:%fZ', 'now')"
	}
	return []string{
		createDepartments,
		createEmployees,
		fmt.Sprintf(createEmotionLogs, createdType, createdDefault),
		createLogsIndex,
		createEmployeesIndex,
	}
}

// Apply creates the tables and indexes if they do not exist yet.
func Apply(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range Statements(d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply %s schema: %w", d, err)
		}
	}
	return nil
}

package dbstore

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// ColumnKind is a declared scalar kind, mapped to an engine type per
// dialect.
type ColumnKind string

const (
	KindText  ColumnKind = "text"
	KindInt   ColumnKind = "int"
	KindFloat ColumnKind = "float"
	KindBool  ColumnKind = "bool"
	KindTime  ColumnKind = "time"
	KindList  ColumnKind = "list"
)

// Column is one declared column.
type Column struct {
	Name string
	Kind ColumnKind
}

// Schema is an ordered column declaration for one table.
type Schema []Column

// Kind returns the declared kind of a column, or false when the schema
// does not declare it.
func (s Schema) Kind(name string) (ColumnKind, bool) {
	for _, c := range s {
		if c.Name == name {
			return c.Kind, true
		}
	}
	return "", false
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrBadIdentifier, name)
	}
	return nil
}

func (k ColumnKind) sqlType(driver Driver) string {
	switch driver {
	case DriverPostgres:
		switch k {
		case KindInt:
			return "BIGINT"
		case KindFloat:
			return "DOUBLE PRECISION"
		case KindBool:
			return "BOOLEAN"
		case KindTime:
			return "TIMESTAMPTZ"
		default:
			return "TEXT"
		}
	case DriverMySQL:
		switch k {
		case KindInt:
			return "BIGINT"
		case KindFloat:
			return "DOUBLE"
		case KindBool:
			return "BOOLEAN"
		case KindTime:
			return "DATETIME"
		default:
			return "TEXT"
		}
	default:
		switch k {
		case KindInt:
			return "INTEGER"
		case KindFloat:
			return "REAL"
		case KindBool:
			return "BOOLEAN"
		case KindTime:
			return "TIMESTAMP"
		default:
			return "TEXT"
		}
	}
}

// Columns introspects the live table and returns column name to
// declared engine type. A missing table yields an empty map, not an
// error.
func (s *Store) Columns(ctx context.Context, table string) (map[string]string, error) {
	if err := validIdent(table); err != nil {
		return nil, err
	}

	var rows rowScanner
	var err error

	switch s.driver {
	case DriverPostgres:
		rows, err = s.db.QueryContext(ctx,
			"SELECT column_name, data_type FROM information_schema.columns WHERE table_name = $1 ORDER BY ordinal_position",
			table)
	case DriverMySQL:
		rows, err = s.db.QueryContext(ctx,
			"SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position",
			table)
	default:
		return s.sqliteColumns(ctx, table)
	}
	if err != nil {
		return nil, fmt.Errorf("dbstore: failed to introspect %s: %w", table, err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, fmt.Errorf("dbstore: failed to scan column row: %w", err)
		}
		out[name] = strings.ToUpper(typ)
	}
	return out, rows.Err()
}

func (s *Store) sqliteColumns(ctx context.Context, table string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("dbstore: failed to introspect %s: %w", table, err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var cid int
		var name, typ string
		var notNull int
		var dflt any
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("dbstore: failed to scan column row: %w", err)
		}
		out[name] = strings.ToUpper(typ)
	}
	return out, rows.Err()
}

// EnsureTable creates the table when absent. Existing tables are left
// untouched; Reconcile handles drift.
func (s *Store) EnsureTable(ctx context.Context, table string, schema Schema) error {
	if err := validIdent(table); err != nil {
		return err
	}

	defs := make([]string, 0, len(schema))
	for _, c := range schema {
		if err := validIdent(c.Name); err != nil {
			return err
		}
		defs = append(defs, c.Name+" "+c.Kind.sqlType(s.driver))
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("dbstore: failed to create table %s: %w", table, err)
	}
	return nil
}

// ReconcileResult reports a schema reconciliation. Failed is non-empty
// on partial success.
type ReconcileResult struct {
	Added  []string
	Failed map[string]error
}

// Partial reports whether some column additions failed.
func (r ReconcileResult) Partial() bool {
	return len(r.Failed) > 0
}

// Reconcile adds declared columns missing from the live table. It is
// additive only and never drops or alters existing columns. A failed
// addition is recorded and reconciliation continues with the remaining
// columns.
func (s *Store) Reconcile(ctx context.Context, table string, schema Schema) (ReconcileResult, error) {
	result := ReconcileResult{Failed: map[string]error{}}

	live, err := s.Columns(ctx, table)
	if err != nil {
		return result, err
	}
	if len(live) == 0 {
		return result, s.EnsureTable(ctx, table, schema)
	}

	for _, c := range schema {
		if _, exists := live[c.Name]; exists {
			continue
		}
		if err := validIdent(c.Name); err != nil {
			return result, err
		}

		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, c.Name, c.Kind.sqlType(s.driver))
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			slog.Error("Failed to add column", "table", table, "column", c.Name, "error", err)
			result.Failed[c.Name] = err
			continue
		}

		slog.Info("Added column", "table", table, "column", c.Name, "type", c.Kind)
		result.Added = append(result.Added, c.Name)
	}

	return result, nil
}

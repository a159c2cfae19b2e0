package dbstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	// Database drivers registered for Open.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Record is a row as an open mapping of column name to value.
type Record map[string]any

// Store executes schema-driven queries against one database.
type Store struct {
	db     *sql.DB
	driver Driver
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Open connects and verifies the connection. Failures come back
// classified as *ConnError.
func Open(ctx context.Context, cfg ConnConfig) (*Store, error) {
	db, err := sql.Open(cfg.DriverName(), cfg.DSN())
	if err != nil {
		return nil, ClassifyErr(err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, ClassifyErr(err)
	}

	slog.Info("Database connected", "driver", cfg.Driver, "database", cfg.Database)
	return &Store{db: db, driver: cfg.Driver}, nil
}

// NewStore wraps an existing connection.
func NewStore(db *sql.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) numbered() bool {
	return s.driver == DriverPostgres
}

// Query describes a Find call. Zero Limit means no limit. Schema is
// optional; when set, list-kind columns decode back into []any.
type Query struct {
	Table      string
	Conditions []Condition
	Projection []string
	OrderBy    string
	OrderDesc  bool
	Limit      int
	Offset     int
	Schema     Schema
}

// Find returns matching records. Ordering is deterministic only by the
// requested column; callers needing total order must order by a unique
// column.
func (s *Store) Find(ctx context.Context, q Query) ([]Record, error) {
	if err := validIdent(q.Table); err != nil {
		return nil, err
	}

	cols := "*"
	if len(q.Projection) > 0 {
		for _, c := range q.Projection {
			if err := validIdent(c); err != nil {
				return nil, err
			}
		}
		cols = strings.Join(q.Projection, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", cols, q.Table)

	clause, args, err := buildConditionClause(q.Conditions, s.numbered(), 0)
	if err != nil {
		return nil, err
	}
	if clause != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(clause)
	}

	if q.OrderBy != "" {
		if err := validIdent(q.OrderBy); err != nil {
			return nil, err
		}
		dir := "ASC"
		if q.OrderDesc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	} else if q.Offset > 0 {
		// SQLite and MySQL reject OFFSET without LIMIT.
		switch s.driver {
		case DriverSQLite:
			sb.WriteString(" LIMIT -1")
		case DriverMySQL:
			sb.WriteString(" LIMIT 18446744073709551615")
		}
	}
	if q.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("dbstore: query on %s failed: %w", q.Table, err)
	}
	defer rows.Close()

	return scanRecords(rows, q.Schema)
}

// Insert writes one record. Columns are emitted in sorted order so the
// generated SQL is stable.
func (s *Store) Insert(ctx context.Context, table string, rec Record) error {
	if err := validIdent(table); err != nil {
		return err
	}
	if len(rec) == 0 {
		return fmt.Errorf("dbstore: empty record for insert into %s", table)
	}

	cols := make([]string, 0, len(rec))
	for c := range rec {
		if err := validIdent(c); err != nil {
			return err
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)

	holders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		holders[i] = s.placeholder(i + 1)
		v, err := s.encodeValue(rec[c])
		if err != nil {
			return err
		}
		args[i] = v
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(holders, ", "))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("dbstore: insert into %s failed: %w", table, err)
	}
	return nil
}

// Update modifies matching rows and returns the affected count.
func (s *Store) Update(ctx context.Context, table string, set Record, conds []Condition) (int64, error) {
	if err := validIdent(table); err != nil {
		return 0, err
	}
	if len(set) == 0 {
		return 0, fmt.Errorf("dbstore: empty update for %s", table)
	}

	cols := make([]string, 0, len(set))
	for c := range set {
		if err := validIdent(c); err != nil {
			return 0, err
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)

	assigns := make([]string, len(cols))
	args := make([]any, 0, len(cols))
	for i, c := range cols {
		assigns[i] = fmt.Sprintf("%s = %s", c, s.placeholder(i+1))
		v, err := s.encodeValue(set[c])
		if err != nil {
			return 0, err
		}
		args = append(args, v)
	}

	clause, condArgs, err := buildConditionClause(conds, s.numbered(), len(cols))
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("UPDATE %s SET %s", table, strings.Join(assigns, ", "))
	if clause != "" {
		query += " WHERE " + clause
		args = append(args, condArgs...)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("dbstore: update on %s failed: %w", table, err)
	}
	return res.RowsAffected()
}

// Delete removes rows where column equals value and returns the
// affected count.
func (s *Store) Delete(ctx context.Context, table, column string, value any) (int64, error) {
	return s.DeleteWhere(ctx, table, []Condition{Eq(column, value)})
}

// DeleteWhere removes matching rows. An empty condition set fails with
// ErrEmptyCondition; so does a condition set whose every filter was
// skipped as trivial.
func (s *Store) DeleteWhere(ctx context.Context, table string, conds []Condition) (int64, error) {
	if err := validIdent(table); err != nil {
		return 0, err
	}
	if len(conds) == 0 {
		return 0, ErrEmptyCondition
	}

	clause, args, err := buildConditionClause(conds, s.numbered(), 0)
	if err != nil {
		return 0, err
	}
	if clause == "" {
		return 0, ErrEmptyCondition
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", table, clause)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("dbstore: delete on %s failed: %w", table, err)
	}
	return res.RowsAffected()
}

func (s *Store) placeholder(n int) string {
	if s.numbered() {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *Store) encodeValue(v any) (any, error) {
	if list, ok := asList(v); ok {
		return encodeList(s.driver, list)
	}
	return v, nil
}

func scanRecords(rows *sql.Rows, schema Schema) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dbstore: failed to read result columns: %w", err)
	}

	out := []Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("dbstore: failed to scan row: %w", err)
		}

		rec := Record{}
		for i, c := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			if kind, ok := schema.Kind(c); ok && kind == KindList {
				if s, ok := v.(string); ok {
					decoded, err := decodeList(s)
					if err != nil {
						return nil, err
					}
					v = decoded
				}
			}
			rec[c] = v
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}

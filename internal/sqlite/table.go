package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

// columnKind describes how a Go value binds to a column.
type columnKind int

const (
	kindText columnKind = iota
	kindBool
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// table maps one collection to its SQLite table and JSONL file. Per-entity
// behavior (argument binding, hydration, JSONL decoding) is supplied by the
// collection's *_table.go file.
type table struct {
	collection string
	name       string
	file       string
	columns    []string // id first, in DDL order
	kinds      map[string]columnKind
	immutable  map[string]bool

	// prepare assigns id and timestamps when missing and returns the
	// insert arguments aligned with columns.
	prepare func(data any, now time.Time) (id string, args []any, err error)
	scan    func(s scanner) (any, error)
	decode  func(raw json.RawMessage) (any, error)
}

// tables is the collection registry.
var tables = map[string]*table{
	types.CollectionCategories: categoriesTable,
	types.CollectionDataTypes:  dataTypesTable,
	types.CollectionDatasets:   datasetsTable,
	types.CollectionLinks:      linksTable,
}

// loadOrder lists collections so that link endpoints exist before links.
var loadOrder = []string{
	types.CollectionCategories,
	types.CollectionDatasets,
	types.CollectionDataTypes,
	types.CollectionLinks,
}

func tableFor(collection string) (*table, error) {
	t, ok := tables[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownCollection, collection)
	}
	return t, nil
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func (t *table) selectSQL() string {
	return "SELECT " + strings.Join(t.columns, ", ") + " FROM " + t.name
}

func (t *table) insert(ctx context.Context, tx *sql.Tx, data any) (string, error) {
	id, args, err := t.prepare(data, time.Now().UTC())
	if err != nil {
		return "", err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.name, strings.Join(t.columns, ", "), placeholders)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return "", translateError(t, err)
	}
	return id, nil
}

func (t *table) update(ctx context.Context, tx *sql.Tx, id string, fields map[string]any) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: no fields to update", types.ErrInvalidField)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		if t.immutable[k] {
			return fmt.Errorf("%w: %s.%s is immutable", types.ErrInvalidField, t.collection, k)
		}
		v, err := t.bind(k, fields[k])
		if err != nil {
			return err
		}
		sets = append(sets, k+" = ?")
		args = append(args, v)
	}
	args = append(args, id)

	res, err := tx.ExecContext(ctx,
		"UPDATE "+t.name+" SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return translateError(t, err)
	}
	return requireAffected(res, t, id)
}

func (t *table) delete(ctx context.Context, tx *sql.Tx, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM "+t.name+" WHERE id = ?", id)
	if err != nil {
		return translateError(t, err)
	}
	return requireAffected(res, t, id)
}

func (t *table) clear(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+t.name); err != nil {
		return translateError(t, err)
	}
	return nil
}

// selectWhere returns records whose field equals value in insertion order.
// An empty field selects every record.
func (t *table) selectWhere(ctx context.Context, q queryer, field string, value any) ([]any, error) {
	query := t.selectSQL()
	var args []any
	if field != "" {
		v, err := t.bind(field, value)
		if err != nil {
			return nil, err
		}
		query += " WHERE " + field + " = ?"
		args = append(args, v)
	}
	query += " ORDER BY rowid"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.name, err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		rec, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating %s: %w", t.name, err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", t.name, err)
	}
	return results, nil
}

// bind converts a Go value for column col into its SQLite argument.
func (t *table) bind(col string, v any) (any, error) {
	kind, ok := t.kinds[col]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no field %q", types.ErrInvalidField, t.collection, col)
	}
	switch kind {
	case kindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s expects a boolean", types.ErrInvalidField, t.collection, col)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s expects a string", types.ErrInvalidField, t.collection, col)
		}
		return s, nil
	}
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func requireAffected(res sql.Result, t *table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s rows: %w", t.name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", types.ErrNotFound, t.collection, id)
	}
	return nil
}

// translateError maps SQLite constraint failures onto the catalog's
// sentinel errors.
func translateError(t *table, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %s references a missing or still-linked record", types.ErrDanglingLink, t.collection)
	case strings.Contains(msg, "UNIQUE constraint failed: categories.name"):
		return fmt.Errorf("%w: category name", types.ErrDuplicateName)
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %s", types.ErrConflict, msg)
	default:
		return fmt.Errorf("writing %s: %w", t.name, err)
	}
}

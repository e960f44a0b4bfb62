package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("store: not found")

// Filter selects rows whose columns equal the given values.
type Filter map[string]any

// Repository is CRUD access to entities of type T.
type Repository[T any] interface {
	Get(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context) ([]T, error)
	Find(ctx context.Context, filter Filter) ([]T, error)
	First(ctx context.Context, filter Filter) (*T, error)
	Add(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, entity *T) error
}

// Scanner is implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Table maps an entity type onto a table with an integer surrogate key.
type Table[T any] struct {
	Name    string
	Key     string
	Columns []string // every column but Key, in the order Values returns them

	Values func(*T) []any
	// Scan reads Key followed by Columns.
	Scan   func(Scanner) (T, error)
	KeyOf  func(*T) int64
	SetKey func(*T, int64)
}

// SQLRepository implements Repository over database/sql.
type SQLRepository[T any] struct {
	db    *DB
	table Table[T]
}

// NewRepository creates a repository for table.
func NewRepository[T any](db *DB, table Table[T]) *SQLRepository[T] {
	return &SQLRepository[T]{db: db, table: table}
}

func (r *SQLRepository[T]) Get(ctx context.Context, id int64) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		r.selectList(), r.table.Name, r.table.Key, r.db.dialect.placeholder(1))

	entity, err := r.table.Scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get %s %d: %w", r.table.Name, id, err)
	}
	return &entity, nil
}

func (r *SQLRepository[T]) List(ctx context.Context) ([]T, error) {
	return r.Find(ctx, nil)
}

func (r *SQLRepository[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	return r.query(ctx, filter, 0)
}

func (r *SQLRepository[T]) First(ctx context.Context, filter Filter) (*T, error) {
	entities, err := r.query(ctx, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, ErrNotFound
	}
	return &entities[0], nil
}

func (r *SQLRepository[T]) Add(ctx context.Context, entity *T) error {
	placeholders := make([]string, len(r.table.Columns))
	for i := range placeholders {
		placeholders[i] = r.db.dialect.placeholder(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		r.table.Name, strings.Join(r.table.Columns, ", "), strings.Join(placeholders, ", "), r.table.Key)

	var id int64
	if err := r.db.QueryRowContext(ctx, query, r.table.Values(entity)...).Scan(&id); err != nil {
		return fmt.Errorf("store: insert into %s: %w", r.table.Name, err)
	}
	r.table.SetKey(entity, id)
	return nil
}

func (r *SQLRepository[T]) Update(ctx context.Context, entity *T) error {
	assignments := make([]string, len(r.table.Columns))
	for i, column := range r.table.Columns {
		assignments[i] = column + " = " + r.db.dialect.placeholder(i+1)
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		r.table.Name, strings.Join(assignments, ", "), r.table.Key, r.db.dialect.placeholder(len(r.table.Columns)+1))

	args := append(r.table.Values(entity), r.table.KeyOf(entity))
	return r.exec(ctx, "update", query, args...)
}

func (r *SQLRepository[T]) Delete(ctx context.Context, entity *T) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", r.table.Name, r.table.Key, r.db.dialect.placeholder(1))
	return r.exec(ctx, "delete from", query, r.table.KeyOf(entity))
}

func (r *SQLRepository[T]) exec(ctx context.Context, verb, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("store: %s %s: %w", verb, r.table.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: %s %s: %w", verb, r.table.Name, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepository[T]) query(ctx context.Context, filter Filter, limit int) ([]T, error) {
	where, args, err := r.where(filter)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", r.selectList(), r.table.Name, where, r.table.Key)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query %s: %w", r.table.Name, err)
	}
	defer rows.Close()

	var entities []T
	for rows.Next() {
		entity, err := r.table.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", r.table.Name, err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: query %s: %w", r.table.Name, err)
	}
	return entities, nil
}

// where renders filter with columns in a stable order. Column names must belong to the table.
func (r *SQLRepository[T]) where(filter Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	columns := make([]string, 0, len(filter))
	for column := range filter {
		if !r.hasColumn(column) {
			return "", nil, fmt.Errorf("store: unknown column %q in %s", column, r.table.Name)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	conditions := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		conditions[i] = column + " = " + r.db.dialect.placeholder(i+1)
		args[i] = filter[column]
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

func (r *SQLRepository[T]) hasColumn(column string) bool {
	if column == r.table.Key {
		return true
	}
	for _, c := range r.table.Columns {
		if c == column {
			return true
		}
	}
	return false
}

func (r *SQLRepository[T]) selectList() string {
	return r.table.Key + ", " + strings.Join(r.table.Columns, ", ")
}

var _ Repository[struct{}] = (*SQLRepository[struct{}])(nil)

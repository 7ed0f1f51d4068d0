package dataset

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource reads every row of an accident table through a pgx pool.
type PostgresSource struct {
	pool  *pgxpool.Pool
	table string
}

func NewPostgresSource(pool *pgxpool.Pool, table string) *PostgresSource {
	return &PostgresSource{pool: pool, table: table}
}

func (s *PostgresSource) Describe() string { return "postgres:" + s.table }

func (s *PostgresSource) Load(ctx context.Context) (*Frame, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("%w: no database pool", ErrDataUnavailable)
	}

	rows, err := s.pool.Query(ctx, "SELECT * FROM "+pgx.Identifier{s.table}.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", ErrDataUnavailable, s.table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	var data [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan %s row %d: %w", s.table, len(data)+1, err)
		}
		rec := make([]string, len(values))
		for i, v := range values {
			rec[i] = cellString(v)
		}
		data = append(data, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.table, err)
	}
	return NewFrame(columns, data), nil
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case time.Time:
		return t.Format(time.RFC3339)
	case driver.Valuer:
		dv, err := t.Value()
		if err != nil || dv == nil {
			return ""
		}
		return cellString(dv)
	default:
		return fmt.Sprint(t)
	}
}

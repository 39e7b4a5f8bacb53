package repository

import (
	"context"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFn func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.scanFn != nil {
		return m.scanFn(dest...)
	}
	return nil
}

// rowOf returns a row that scans values into the destinations in order.
func rowOf(values ...any) *mockRow {
	return &mockRow{scanFn: func(dest ...any) error {
		assign(dest, values)
		return nil
	}}
}

// errRow returns a row whose Scan fails with err.
func errRow(err error) *mockRow {
	return &mockRow{scanFn: func(dest ...any) error { return err }}
}

// assign copies values into scan destinations. A nil value leaves the zero value.
func assign(dest []any, values []any) {
	for i, v := range values {
		if i >= len(dest) || v == nil {
			continue
		}
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
}

// mockRows implements pgx.Rows over a fixed set of scanned rows.
type mockRows struct {
	rows   [][]any
	pos    int
	err    error
	closed bool
}

func (m *mockRows) Close()                                       { m.closed = true }
func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) Values() ([]any, error)                       { return m.rows[m.pos-1], nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

func (m *mockRows) Next() bool {
	if m.pos >= len(m.rows) {
		return false
	}
	m.pos++
	return true
}

func (m *mockRows) Scan(dest ...any) error {
	assign(dest, m.rows[m.pos-1])
	return nil
}

// mockPool implements PoolInterface for testing.
type mockPool struct {
	execFn     func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (m *mockPool) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, arguments...)
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (m *mockPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}
	return &mockRow{}
}

func (m *mockPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func pgError(code string) error {
	return &pgconn.PgError{Code: code, Message: "constraint violated"}
}

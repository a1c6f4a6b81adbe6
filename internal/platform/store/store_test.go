package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	perr "issuebridge/internal/platform/errors"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// fakeRows iterates a fixed matrix of values
type fakeRows struct {
	data [][]any
	i    int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	cur := r.data[r.i-1]
	for i := range dest {
		switch d := dest[i].(type) {
		case *string:
			*d = cur[i].(string)
		case *int:
			*d = cur[i].(int)
		default:
			return errors.New("unsupported dest")
		}
	}
	return nil
}

func (r *fakeRows) Err() error        { return r.err }
func (r *fakeRows) Close()            {}
func (r *fakeRows) Columns() []string { return nil }

type fakeTag int64

func (t fakeTag) String() string      { return "UPDATE" }
func (t fakeTag) RowsAffected() int64 { return int64(t) }

type fakeQuerier struct {
	rows     [][]any
	affected int64
	err      error
}

func (f *fakeQuerier) Exec(context.Context, string, ...any) (CommandTag, error) {
	return fakeTag(f.affected), f.err
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (Rows, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fakeRows{data: f.rows}, nil
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	rs, _ := f.Query(ctx, sql, args...)
	return singleRow{rs}
}

type singleRow struct{ rs Rows }

func (s singleRow) Scan(dest ...any) error {
	if s.rs == nil || !s.rs.Next() {
		return errors.New("no rows in result set")
	}
	return s.rs.Scan(dest...)
}

func scanKey(r Row) (string, error) {
	var k string
	err := r.Scan(&k)
	return k, err
}

func TestExecHelpers(t *testing.T) {
	ctx := context.Background()
	if err := ExecOne(ctx, &fakeQuerier{affected: 1}, "DELETE"); err != nil {
		t.Fatalf("ExecOne: %v", err)
	}
	if err := ExecOne(ctx, &fakeQuerier{affected: 2}, "DELETE"); err == nil {
		t.Fatalf("ExecOne should reject 2 rows")
	}
	if n, err := Exec(ctx, &fakeQuerier{affected: 7}, "DELETE"); err != nil || n != 7 {
		t.Fatalf("Exec = %d, %v", n, err)
	}
}

func TestOneAndMany(t *testing.T) {
	ctx := context.Background()

	got, err := One(ctx, &fakeQuerier{rows: [][]any{{"ABC-1"}}}, scanKey, "SELECT")
	if err != nil || got != "ABC-1" {
		t.Fatalf("One = %q, %v", got, err)
	}
	if _, err := One(ctx, &fakeQuerier{}, scanKey, "SELECT"); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("One on empty = %v, want ErrNotFound", err)
	}
	if _, err := One(ctx, &fakeQuerier{rows: [][]any{{"a"}, {"b"}}}, scanKey, "SELECT"); err == nil {
		t.Fatalf("One should reject extra rows")
	}

	all, err := Many(ctx, &fakeQuerier{rows: [][]any{{"a"}, {"b"}}}, scanKey, "SELECT")
	if err != nil || len(all) != 2 || all[1] != "b" {
		t.Fatalf("Many = %v, %v", all, err)
	}

	n, err := Scalar[int](ctx, &fakeQuerier{rows: [][]any{{3}}}, "SELECT count(*)")
	if err != nil || n != 3 {
		t.Fatalf("Scalar = %d, %v", n, err)
	}
}

type fakeCH struct {
	inserted any
	pingErr  error
	closed   bool
}

func (f *fakeCH) Insert(_ context.Context, _ string, rows any) error { f.inserted = rows; return nil }
func (f *fakeCH) Query(context.Context, string, ...any) (driver.Rows, error) {
	return nil, errors.New("no query")
}
func (f *fakeCH) Ping(context.Context) error { return f.pingErr }
func (f *fakeCH) Close() error               { f.closed = true; return nil }

func TestGuardAndClose(t *testing.T) {
	inner := &fakeCH{pingErr: errors.New("down")}
	s := &Store{CH: newCHAdapter(inner)}

	if err := s.Guard(context.Background()); err == nil {
		t.Fatalf("Guard should surface ch ping failure")
	}
	inner.pingErr = nil
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("Guard: %v", err)
	}
	if err := s.CH.Insert(context.Background(), "t", []int{1}); err != nil || inner.inserted == nil {
		t.Fatalf("insert not forwarded")
	}
	if _, err := s.CH.Query(context.Background(), "SELECT 1"); err == nil {
		t.Fatalf("query error not forwarded")
	}
	if err := s.Close(context.Background()); err != nil || !inner.closed {
		t.Fatalf("Close did not reach ch")
	}

	var nilStore *Store
	if nilStore.Guard(context.Background()) == nil {
		t.Fatalf("nil store should fail Guard")
	}
}

func TestPingWithBackoff(t *testing.T) {
	var calls atomic.Int32
	err := pingWithBackoff(context.Background(), time.Second, 100*time.Millisecond, func(context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("starting up")
		}
		return nil
	})
	if err != nil || calls.Load() != 3 {
		t.Fatalf("pingWithBackoff = %v after %d calls", err, calls.Load())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = pingWithBackoff(ctx, time.Second, 10*time.Millisecond, func(c context.Context) error { return c.Err() })
	if err == nil {
		t.Fatalf("cancelled ctx should stop retries")
	}
}

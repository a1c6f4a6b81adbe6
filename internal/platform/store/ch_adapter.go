package store

import (
	"context"
	"errors"

	"issuebridge/internal/platform/store/ch"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// chInner is the slice of *ch.CH the adapter drives
type chInner interface {
	Insert(ctx context.Context, table string, rows any) error
	Query(ctx context.Context, sql string, args ...any) (driver.Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

var _ chInner = (*ch.CH)(nil)

func newCHAdapter(c chInner) *clickhouseAdapter { return &clickhouseAdapter{inner: c} }

// clickhouseAdapter exposes a ch client as the Clickhouse seam
type clickhouseAdapter struct {
	inner chInner
}

var _ Clickhouse = (*clickhouseAdapter)(nil)

func (a *clickhouseAdapter) Insert(ctx context.Context, table string, data any) error {
	return a.inner.Insert(ctx, table, data)
}

func (a *clickhouseAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := a.inner.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r: r}, nil
}

func (a *clickhouseAdapter) Ping(ctx context.Context) error {
	if a == nil || a.inner == nil {
		return errors.New("store: nil clickhouse adapter")
	}
	return a.inner.Ping(ctx)
}

func (a *clickhouseAdapter) Close() error { return a.inner.Close() }

type chRows struct{ r driver.Rows }

func (x chRows) Next() bool            { return x.r.Next() }
func (x chRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x chRows) Err() error            { return x.r.Err() }
func (x chRows) Close()                { _ = x.r.Close() }
func (x chRows) Columns() []string     { return x.r.Columns() }

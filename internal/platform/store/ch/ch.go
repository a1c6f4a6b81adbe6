// Package ch wraps clickhouse-go with struct batch inserts
package ch

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures the clickhouse client
type Config struct {
	// URL is a clickhouse:// DSN
	URL     string
	AppName string
	Role    string
}

// CH is a native protocol clickhouse client
type CH struct {
	conn driver.Conn
}

var openConn = clickhouse.Open

// Open parses the DSN, stamps client info and opens a connection pool
func Open(_ context.Context, cfg Config) (*CH, error) {
	if cfg.URL == "" {
		return nil, errors.New("ch: empty URL")
	}
	opt, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ch: parse dsn: %w", err)
	}
	opt.ClientInfo = BuildClientInfo(cfg.AppName, cfg.Role)
	conn, err := openConn(opt)
	if err != nil {
		return nil, fmt.Errorf("ch: open: %w", err)
	}
	return &CH{conn: conn}, nil
}

// Insert appends every element of rows (a slice of structs or struct pointers) to one batch
func (c *CH) Insert(ctx context.Context, table string, rows any) error {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("ch: insert wants a slice, got %T", rows)
	}
	if v.Len() == 0 {
		return nil
	}
	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return fmt.Errorf("ch: prepare %s: %w", table, err)
	}
	for i := 0; i < v.Len(); i++ {
		el := v.Index(i)
		if el.Kind() != reflect.Pointer {
			el = el.Addr()
		}
		if err := batch.AppendStruct(el.Interface()); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("ch: append row %d: %w", i, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("ch: send %s: %w", table, err)
	}
	return nil
}

// Query runs a select
func (c *CH) Query(ctx context.Context, sql string, args ...any) (driver.Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

// Ping checks the server answers
func (c *CH) Ping(ctx context.Context) error { return c.conn.Ping(ctx) }

// Close closes the pool
func (c *CH) Close() error { return c.conn.Close() }

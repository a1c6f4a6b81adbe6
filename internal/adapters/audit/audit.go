// Package audit writes delivery outcomes to ClickHouse in the background
package audit

import (
	"context"
	"sync"
	"time"

	"issuebridge/internal/platform/logger"
	"issuebridge/internal/platform/store"
	"issuebridge/internal/services/tracking/domain"
)

// Table is the ClickHouse table rows are inserted into; see schema.sql
const Table = "delivery_audit"

// Row is one delivery_audit row
type Row struct {
	At           time.Time `ch:"at"`
	Kind         string    `ch:"kind"`
	Tracker      string    `ch:"tracker"`
	RepositoryID string    `ch:"repository_id"`
	IssueKey     string    `ch:"issue_key"`
	ObjectType   string    `ch:"object_type"`
	ObjectID     string    `ch:"object_id"`
	Keyword      string    `ch:"keyword"`
	Error        string    `ch:"error"`
}

func rowOf(ev domain.AuditEvent) Row {
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return Row{
		At:           at,
		Kind:         string(ev.Kind),
		Tracker:      ev.Tracker,
		RepositoryID: ev.RepositoryID,
		IssueKey:     ev.IssueKey,
		ObjectType:   string(ev.ObjectType),
		ObjectID:     ev.ObjectID,
		Keyword:      ev.Keyword,
		Error:        ev.Error,
	}
}

// Options tunes batching
type Options struct {
	Buffer    int           // pending rows before Record starts dropping
	BatchSize int           // rows per insert
	Interval  time.Duration // max delay before a partial batch is flushed
}

func (o Options) withDefaults() Options {
	if o.Buffer <= 0 {
		o.Buffer = 4096
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 500
	}
	if o.Interval <= 0 {
		o.Interval = 2 * time.Second
	}
	return o
}

// ClickHouse is a domain.Auditor batching rows into ClickHouse
// Record never blocks; failed inserts are logged and the rows dropped
type ClickHouse struct {
	ch   store.Clickhouse
	opt  Options
	log  logger.Logger
	rows chan Row

	once sync.Once
	done chan struct{}
}

var _ domain.Auditor = (*ClickHouse)(nil)

// New starts the flusher
func New(ch store.Clickhouse, opt Options, log logger.Logger) *ClickHouse {
	opt = opt.withDefaults()
	a := &ClickHouse{
		ch:   ch,
		opt:  opt,
		log:  log,
		rows: make(chan Row, opt.Buffer),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

// Record queues ev for the next batch
func (a *ClickHouse) Record(_ context.Context, ev domain.AuditEvent) {
	select {
	case a.rows <- rowOf(ev):
	default:
		a.log.Warn().Str("kind", string(ev.Kind)).Str("issue_key", ev.IssueKey).Msg("audit buffer full, event dropped")
	}
}

func (a *ClickHouse) run() {
	defer close(a.done)
	ticker := time.NewTicker(a.opt.Interval)
	defer ticker.Stop()

	batch := make([]Row, 0, a.opt.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.ch.Insert(ctx, Table, batch); err != nil {
			a.log.Error().Err(err).Int("rows", len(batch)).Msg("audit insert failed")
		}
		batch = batch[:0]
	}

	for {
		select {
		case r, ok := <-a.rows:
			if !ok {
				flush()
				return
			}
			batch = append(batch, r)
			if len(batch) >= a.opt.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Close flushes the pending rows; Record must not be called afterwards
func (a *ClickHouse) Close() error {
	a.once.Do(func() { close(a.rows) })
	<-a.done
	return nil
}

// Nop discards every event
type Nop struct{}

// Record implements domain.Auditor
func (Nop) Record(context.Context, domain.AuditEvent) {}

// Log writes every event at debug level, for deployments without ClickHouse
type Log struct{ L logger.Logger }

// Record implements domain.Auditor
func (l Log) Record(_ context.Context, ev domain.AuditEvent) {
	l.L.Debug().
		Str("kind", string(ev.Kind)).
		Str("tracker", ev.Tracker).
		Str("repository", ev.RepositoryID).
		Str("issue_key", ev.IssueKey).
		Str("object_type", string(ev.ObjectType)).
		Str("object_id", ev.ObjectID).
		Str("keyword", ev.Keyword).
		Str("error", ev.Error).
		Msg("delivery")
}

package store

import (
	"context"
	"fmt"
	"time"

	chx "issuebridge/internal/platform/store/ch"
	"issuebridge/internal/platform/store/pg"

	"github.com/cenkalti/backoff/v4"
)

// openPG opens the pool and pings it with exponential backoff until the database accepts connections
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, tracer, nil)
	if err != nil {
		return nil, err
	}

	if err := pingWithBackoff(ctx, cfg.PG.ConnectTimeout, cfg.PG.PingTimeout, p.Pool.Ping); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return newPGAdapter(p), nil
}

func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:     cfg.CH.URL,
		AppName: cfg.AppName,
		Role:    cfg.Role,
	})
	if err != nil {
		return nil, err
	}
	a := newCHAdapter(c)
	if err := pingWithBackoff(ctx, 30*time.Second, 3*time.Second, a.Ping); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	s.Log.Info().Str("role", cfg.Role).Msg("clickhouse connected")
	return a, nil
}

// pingWithBackoff retries ping until it succeeds, ctx ends or budget elapses
func pingWithBackoff(ctx context.Context, budget, each time.Duration, ping func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 150 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = budget
	if each <= 0 {
		each = 3 * time.Second
	}

	return backoff.Retry(func() error {
		pctx, cancel := context.WithTimeout(ctx, each)
		defer cancel()
		err := ping(pctx)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}, backoff.WithContext(bo, ctx))
}

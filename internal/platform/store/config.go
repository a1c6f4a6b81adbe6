package store

import (
	"time"

	"issuebridge/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string
	Role    string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// boot: how long to keep pinging a starting database
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string
}

// ConfigFromEnv reads SERVICE_PGSQL_* and SERVICE_CLICKHOUSE_* under root
func ConfigFromEnv(root config.Conf, appName, role string) Config {
	pg := root.Prefix("SERVICE_PGSQL_")
	ch := root.Prefix("SERVICE_CLICKHOUSE_")
	return Config{
		AppName: appName,
		Role:    role,
		PG: PGConfig{
			Enabled:        pg.MayBool("ENABLED", true),
			URL:            pg.MayString("URL", ""),
			MaxConns:       int32(pg.MayInt("MAX_CONNS", 8)),
			LogSQL:         pg.MayBool("LOG_SQL", false),
			SlowQueryMs:    pg.MayInt("SLOW_MS", 200),
			ConnectTimeout: pg.MayDuration("CONNECT_TIMEOUT", 60*time.Second),
			PingTimeout:    pg.MayDuration("PING_TIMEOUT", 3*time.Second),
		},
		CH: CHConfig{
			Enabled: ch.MayBool("ENABLED", false),
			URL:     ch.MayString("URL", ""),
		},
	}
}

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-tokens/migrations"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

// ClientConfig describes the database a token store runs against. Driver is
// a database/sql driver name: sqlite3 or postgres.
type ClientConfig struct {
	Driver         string        `koanf:"driver" mapstructure:"driver"`
	DSN            string        `koanf:"dsn" mapstructure:"dsn"`
	Debug          bool          `koanf:"debug" mapstructure:"debug"`
	PingTimeout    time.Duration `koanf:"ping_timeout" mapstructure:"ping_timeout"`
	OtelIdentifier string        `koanf:"otel_identifier" mapstructure:"otel_identifier"`
	AutoMigrate    bool          `koanf:"auto_migrate" mapstructure:"auto_migrate"`
}

func (c ClientConfig) GetDebug() bool {
	return c.Debug
}

func (c ClientConfig) GetDriver() string {
	return strings.TrimSpace(c.Driver)
}

func (c ClientConfig) GetServer() string {
	return c.DSN
}

func (c ClientConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

func (c ClientConfig) GetOtelIdentifier() string {
	if trimmed := strings.TrimSpace(c.OtelIdentifier); trimmed != "" {
		return trimmed
	}
	return migrations.DefaultSourceLabel
}

// OpenClient opens a persistence client for cfg and, with AutoMigrate set,
// applies the token schema for the driver's dialect.
func OpenClient(ctx context.Context, cfg ClientConfig) (*persistence.Client, error) {
	dialectName, err := migrations.DialectForDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required")
	}

	var (
		driverName string
		bunDialect schema.Dialect
	)
	switch dialectName {
	case migrations.DialectSQLite:
		driverName = "sqlite3"
		bunDialect = sqlitedialect.New()
	default:
		driverName = "postgres"
		bunDialect = pgdialect.New()
	}

	sqlDB, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driverName, err)
	}
	if dialectName == migrations.DialectSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(cfg, sqlDB, bunDialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}
	if cfg.AutoMigrate {
		if err := migrations.Apply(ctx, client, dialectName); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return client, nil
}

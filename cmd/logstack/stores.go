package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rpattn/logstack/internal/db"
	"github.com/rpattn/logstack/internal/repository"
)

// stores bundles the repositories a command works against.
type stores struct {
	records repository.ErrorRecordRepository
	logs    repository.IngestionLogRepository
	health  func(context.Context) error
	close   func()
}

func memoryStores() stores {
	store := repository.NewMemoryStore()
	return stores{
		records: store,
		logs:    store,
		health:  func(context.Context) error { return nil },
		close:   func() {},
	}
}

// postgresStores connects, optionally migrates, and wires the repositories.
func postgresStores(ctx context.Context, cfg db.Config, migrate bool) (stores, error) {
	if migrate {
		if err := db.RunMigrations(cfg); err != nil {
			return stores{}, err
		}
	}

	conn, err := db.NewConnection(ctx, cfg)
	if err != nil {
		return stores{}, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Str("dbname", cfg.DBName).Msg("connected to database")

	return stores{
		records: repository.NewErrorRecordRepository(conn),
		logs:    repository.NewIngestionLogRepository(conn.Pool),
		health:  conn.Pool.Ping,
		close:   conn.Close,
	}, nil
}

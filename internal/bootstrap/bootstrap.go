// Package bootstrap builds the collaborators shared by the service binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"attendance.service/internal/config"
	"attendance.service/internal/ports/directory"
	"attendance.service/internal/ports/repository"
	"attendance.service/pkg/database"
	"github.com/rs/zerolog/log"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// OpenStore returns the configured store and a func releasing it.
func OpenStore(ctx context.Context, cfg config.Config) (repository.Store, func(), error) {
	switch cfg.StoreDriver {
	case StoreMemory:
		log.Warn().Msg("Using in-memory store, records are lost on restart")
		return repository.NewMemoryRepository(), func() {}, nil
	case StorePostgres, "":
		db, err := OpenDB(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewAttendanceRepository(db), func() { db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// OpenDB connects to PostgreSQL with tracing and applies the schema when DB_MIGRATE is set.
func OpenDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := database.NewInstrumentedConnection(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("host", cfg.DBHost).Msg("Successfully connected to the database.")

	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// OpenDirectory prefers the HR API when DIRECTORY_API_URL is set and falls back to the YAML file.
func OpenDirectory(cfg config.Config) (directory.Directory, error) {
	if cfg.DirectoryAPIURL != "" {
		log.Info().Str("url", cfg.DirectoryAPIURL).Msg("Using HTTP employee directory")
		return directory.NewHTTPDirectory(cfg.DirectoryAPIURL, cfg.DirectoryCacheTTL()), nil
	}
	d, err := directory.LoadStaticDirectory(cfg.DirectoryFile)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", cfg.DirectoryFile).Msg("Using static employee directory")
	return d, nil
}

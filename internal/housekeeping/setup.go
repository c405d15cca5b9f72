package housekeeping

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"vpnserver/internal/config"
	"vpnserver/internal/repository"
	"vpnserver/internal/storage"
)

// NewFromConfig wires a sweeper over the Postgres repositories, archiving to
// object storage when housekeeping.archive is set.
func NewFromConfig(ctx context.Context, cfg *config.AppConfig, db repository.DBTX, log zerolog.Logger) (*Sweeper, error) {
	var archiver Archiver
	if cfg.Housekeeping.Archive {
		store, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("archive store: %w", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("archive store: %w", err)
		}
		archiver = store
	}

	return NewSweeper(
		repository.NewConnectionRepository(db),
		repository.NewTotpRepository(db),
		archiver,
		cfg.Housekeeping,
		log.With().Str("component", "housekeeping").Logger(),
	), nil
}

package bootstrap

import (
	"context"
	"fmt"

	"github.com/kedr891/skin-portfolio/config"
	"github.com/kedr891/skin-portfolio/internal/storage/pgstorage"
	"github.com/kedr891/skin-portfolio/pkg/postgres"
)

// InitPGStorage - пул PostgreSQL и хранилище с применёнными миграциями
func InitPGStorage(ctx context.Context, cfg *config.Config) (*pgstorage.Storage, error) {
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		return nil, err
	}

	storage, err := pgstorage.New(ctx, pg)
	if err != nil {
		pg.Close()
		return nil, fmt.Errorf("init pgstorage: %w", err)
	}

	return storage, nil
}

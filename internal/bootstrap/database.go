package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/newswatch/internal/config"
	"github.com/jonesrussell/north-cloud/newswatch/internal/database"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
)

// StoreComponents holds the database handle and the article store.
type StoreComponents struct {
	DB       *sqlx.DB
	Articles *database.ArticleStore
}

// SetupStore opens the database and ensures the schema exists.
func SetupStore(ctx context.Context, cfg config.StoreConfig, log logger.Logger) (*StoreComponents, error) {
	db, err := database.Open(ctx, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if err = database.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	driver, _ := database.DriverFor(cfg.Path)
	log.Info("Article store ready", logger.String("driver", driver))

	return &StoreComponents{
		DB:       db,
		Articles: database.NewArticleStore(db),
	}, nil
}

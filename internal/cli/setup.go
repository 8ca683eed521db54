package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/config"
	"github.com/kailas-cloud/askdex/internal/db"
	dbMemory "github.com/kailas-cloud/askdex/internal/db/memory"
	dbQdrant "github.com/kailas-cloud/askdex/internal/db/qdrant"
	dbRedis "github.com/kailas-cloud/askdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/askdex/internal/logger"
	openaiEmb "github.com/kailas-cloud/askdex/internal/transport/openai"
)

// loadConfig resolves the environment from the --env flag or $ENV and
// loads the matching config file.
func loadConfig() (config.Config, string, error) {
	env := envName
	if env == "" {
		env = config.GetEnv()
	}
	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, env, fmt.Errorf("load config: %w", err)
	}
	return cfg, env, nil
}

func newLogger(cfg config.Config, env string) (*zap.Logger, error) {
	return logpkg.NewLogger(env, cfg.Logging.Level)
}

// newStore creates the record store for the configured driver and waits
// for it to accept commands.
func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (db.Store, error) {
	var store db.Store
	var err error

	switch cfg.Database.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	case "qdrant":
		store, err = dbQdrant.NewStore(dbQdrant.Config{
			URL:    cfg.Database.URL,
			APIKey: cfg.Database.APIKey,
		})
	case "memory":
		store = dbMemory.NewStore()
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
	}

	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("store not ready: %w", err)
	}
	logger.Info("Connected to record store",
		zap.String("driver", cfg.Database.Driver),
	)
	return store, nil
}

func newEmbedder(cfg config.Config, logger *zap.Logger) *openaiEmb.Embedder {
	return openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
}

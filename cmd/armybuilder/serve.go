package main

import (
	"context"
	"database/sql"
	"fmt"

	"armybuilder/internal/api"
	"armybuilder/internal/blob"
	"armybuilder/internal/config"
	"armybuilder/internal/dataset"
	"armybuilder/internal/docstore"
	"armybuilder/internal/i18n"
	"armybuilder/internal/pg"
	"armybuilder/internal/reference"
	"armybuilder/internal/sqlite"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	datasets, err := dataset.LoadAll(cfg.DatasetsDir)
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}
	logger.Info("datasets loaded", zap.Int("count", len(datasets)), zap.String("dir", cfg.DatasetsDir))

	enums, err := reference.LoadEnumCatalog(cfg.EnumsDir)
	if err != nil {
		return fmt.Errorf("load enum catalog: %w", err)
	}
	logger.Info("enum catalogs loaded", zap.Int("count", len(enums)))

	for _, is := range api.LintDatasets(datasets) {
		logger.Warn("dataset issue",
			zap.String("army", is.Army), zap.String("category", is.Category),
			zap.String("unit", is.Unit), zap.String("field", is.Field), zap.String("code", is.Code))
	}

	bundle, err := i18n.LoadEmbedded()
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}

	storage := api.NewStorage(datasets, enums)
	storage.Log = logger.Named("storage")

	persist, err := openPersistence(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if persist != nil {
		defer persist.Close()
		storage.Persist = persist
		if err := storage.LoadPersisted(ctx); err != nil {
			return fmt.Errorf("load persisted: %w", err)
		}
	}

	blobs, err := openBlob(ctx, cfg)
	if err != nil {
		return err
	}

	srv := &api.Server{
		Storage:     storage,
		Sessions:    api.NewSessions(cfg.SessionTTL),
		Bundle:      bundle,
		Blob:        blobs,
		Metrics:     api.NewMetrics(),
		Log:         logger,
		DefaultLang: cfg.DefaultLang,
		DatasetsDir: cfg.DatasetsDir,
		EnumsDir:    cfg.EnumsDir,
	}
	return api.RunServer(ctx, cfg.Addr(), srv)
}

// openPersistence returns nil for the memory driver.
func openPersistence(ctx context.Context, cfg config.Config, log *zap.Logger) (docstore.Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.DBDriver {
	case config.DBPostgres:
		if db, err = pg.Open(ctx, cfg.DBURL); err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if cfg.AutoMigrate {
			if err := pg.ApplyDDL(ctx, db, pg.Schema(), log); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		log.Info("persistence", zap.String("driver", "postgres"))
		return pg.NewStore(db), nil
	case config.DBSQLite:
		if db, err = sqlite.Open(ctx, cfg.SQLitePath); err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		if cfg.AutoMigrate {
			if err := sqlite.ApplyDDL(ctx, db, sqlite.Schema()); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		log.Info("persistence", zap.String("driver", "sqlite"), zap.String("path", cfg.SQLitePath))
		return sqlite.NewStore(db), nil
	default:
		log.Info("persistence", zap.String("driver", "memory"))
		return nil, nil
	}
}

func openBlob(ctx context.Context, cfg config.Config) (blob.Store, error) {
	if cfg.BlobDriver == config.BlobS3 {
		s, err := blob.NewS3(ctx, blob.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
			Prefix:    cfg.S3Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("s3: %w", err)
		}
		return s, nil
	}
	return &blob.Local{Root: cfg.FilesRoot}, nil
}

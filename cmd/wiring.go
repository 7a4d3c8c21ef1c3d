package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"market-reports/internal/config"
	"market-reports/internal/misoadapter"
	reportsapp "market-reports/internal/reports/application"
	"market-reports/internal/reports/convert"
	reports "market-reports/internal/reports/domain"
	"market-reports/internal/reports/infrastructure/filesystem"
	"market-reports/internal/reports/infrastructure/memory"
	reportspg "market-reports/internal/reports/infrastructure/postgres"
	reportss3 "market-reports/internal/reports/infrastructure/s3"
	seriesapp "market-reports/internal/series/application"
)

type services struct {
	cfg       config.Config
	catalog   reports.Catalog
	store     reportsapp.Store
	fetcher   *reportsapp.Fetcher
	assembler *seriesapp.Assembler
	logger    *log.Logger
	closers   []io.Closer
}

func (rt *services) Close() {
	for _, c := range rt.closers {
		_ = c.Close()
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(cfgFile, config.WithCacheBackend(cacheBackend), config.WithCacheDir(cacheDir))
}

// newServices wires the fetcher and assembler from configuration.
func newServices(ctx context.Context, logger *log.Logger, progress io.Writer) (*services, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	rt := &services{cfg: cfg, catalog: cfg.Catalog(), logger: logger}

	registry := convert.DefaultRegistry()
	if missing := registry.Missing(rt.catalog); len(missing) > 0 {
		if cfg.StrictConverters {
			return nil, fmt.Errorf("no converter for spreadsheet datasets: %s", strings.Join(missing, ", "))
		}
		logger.Printf("no converter for spreadsheet datasets: %s", strings.Join(missing, ", "))
	}

	store, err := rt.openStore(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.store = store

	client := misoadapter.NewClient(
		misoadapter.WithTimeout(cfg.RequestTimeout),
		misoadapter.WithUserAgent(cfg.UserAgent),
	)
	rt.fetcher, err = reportsapp.NewFetcher(rt.catalog, registry, client, store, cfg.BaseURL, reportsapp.WithLogger(logger))
	if err != nil {
		rt.Close()
		return nil, err
	}

	opts := []seriesapp.Option{seriesapp.WithLogger(logger)}
	if progress != nil {
		opts = append(opts, seriesapp.WithProgress(progress))
	}
	rt.assembler, err = seriesapp.NewAssembler(rt.catalog, rt.fetcher, opts...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *services) openStore(ctx context.Context) (reportsapp.Store, error) {
	cfg := rt.cfg
	switch cfg.CacheBackend {
	case config.BackendMemory:
		return memory.NewStore(), nil
	case config.BackendPostgres:
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		rt.closers = append(rt.closers, db)
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("db ping: %w", err)
		}
		store := reportspg.NewStore(db, reportspg.WithTable(cfg.CacheTable))
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("report cache schema: %w", err)
		}
		return store, nil
	case config.BackendS3:
		client, err := reportss3.NewClient(cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			return nil, fmt.Errorf("s3 session: %w", err)
		}
		return reportss3.NewStore(client, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return filesystem.NewStore(cfg.CacheDir)
	}
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "", log.LstdFlags)
}

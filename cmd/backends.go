package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/yunx/internal/models"
	"github.com/desertthunder/yunx/internal/repositories"
	"github.com/desertthunder/yunx/internal/shared"
	"github.com/desertthunder/yunx/internal/storage"
	"github.com/desertthunder/yunx/internal/tasks"
)

// ensureFetcher opens the configured caches and builds the fetcher on first use.
func (r *Runner) ensureFetcher(ctx context.Context) (*tasks.Fetcher, error) {
	if r.fetcher != nil {
		return r.fetcher, nil
	}
	if r.api == nil {
		return nil, fmt.Errorf("%w: remote API client not initialized", shared.ErrServiceUnavailable)
	}

	metadata, err := r.openMetadata(ctx)
	if err != nil {
		return nil, err
	}

	blobs, err := r.openBlobs(ctx)
	if err != nil {
		return nil, err
	}

	var recorder tasks.DownloadRecorder
	if r.downloads != nil {
		recorder = r.downloads
	}

	r.fetcher = tasks.NewFetcher(tasks.FetcherOpts{
		API:         r.api,
		Metadata:    metadata,
		Blobs:       blobs,
		Downloads:   recorder,
		Logger:      r.logger,
		PresignTTL:  r.config.Storage.PresignDuration(),
		Concurrency: r.config.Download.Concurrency,
	})
	return r.fetcher, nil
}

func (r *Runner) openMetadata(ctx context.Context) (models.MetadataCache, error) {
	switch r.config.Database.Driver {
	case shared.DriverMongo:
		r.logger.Debug("connecting to mongo", "database", r.config.Database.MongoDatabase)
		client, err := shared.NewMongoClient(ctx, r.config.Database.MongoURI)
		if err != nil {
			return nil, models.CacheErr("open metadata cache", err)
		}
		r.closers = append(r.closers, func() error { return client.Disconnect(context.Background()) })

		cache, err := repositories.NewMongoCache(ctx, client.Database(r.config.Database.MongoDatabase))
		if err != nil {
			return nil, err
		}
		if r.stats == nil {
			r.stats = cache
		}
		return cache, nil

	default:
		db, err := r.openDatabase(ctx, true)
		if err != nil {
			return nil, models.CacheErr("open metadata cache", err)
		}

		cache := repositories.NewSQLiteCache(db)
		if r.stats == nil {
			r.stats = cache
		}
		if r.downloads == nil {
			r.downloads = repositories.NewDownloadRepository(db)
		}
		return cache, nil
	}
}

// openDatabase opens the SQLite database, running pending migrations when migrate is set.
func (r *Runner) openDatabase(ctx context.Context, migrate bool) (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, db.Close)
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if migrate {
		if err := shared.RunMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return db, nil
}

func (r *Runner) openBlobs(ctx context.Context) (models.BlobCache, error) {
	cfg := r.config.Storage
	switch cfg.Driver {
	case shared.DriverMinio:
		store, err := storage.NewMinioStore(storage.MinioOpts{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Secure:    cfg.Secure,
		})
		if err != nil {
			return nil, models.CacheErr("open blob cache", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil

	default:
		store, err := storage.NewDiskStore(cfg.DiskPath)
		if err != nil {
			return nil, models.CacheErr("open blob cache", err)
		}
		return store, nil
	}
}

// downloadLog returns the download log, opening the caches if needed.
func (r *Runner) downloadLog(ctx context.Context) (DownloadLog, error) {
	if r.downloads == nil {
		if _, err := r.ensureFetcher(ctx); err != nil {
			return nil, err
		}
	}
	if r.downloads == nil {
		return nil, fmt.Errorf("%w: the download log requires the %s database driver", shared.ErrServiceUnavailable, shared.DriverSQLite)
	}
	return r.downloads, nil
}

// cacheStats returns the metadata cache statistics reporter, opening the caches if needed.
func (r *Runner) cacheStats(ctx context.Context) (CacheStats, error) {
	if r.stats == nil {
		if _, err := r.ensureFetcher(ctx); err != nil {
			return nil, err
		}
	}
	if r.stats == nil {
		return nil, fmt.Errorf("%w: cache statistics unavailable", shared.ErrServiceUnavailable)
	}
	return r.stats, nil
}

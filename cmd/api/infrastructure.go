package main

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"skipped/internal/adapter/api/handler"
	"skipped/internal/adapter/api/router"
	"skipped/internal/adapter/repository"
	"skipped/internal/adapter/repository/memory"
	"skipped/internal/adapter/repository/postgres"
	domainrepo "skipped/internal/domain/repository"
	"skipped/internal/domain/service"
	"skipped/internal/infrastructure/cache"
	"skipped/internal/infrastructure/firebase"
	"skipped/internal/infrastructure/ratelimit"
	"skipped/internal/infrastructure/storage"
	"skipped/internal/infrastructure/token"
	"skipped/pkg/config"
	"skipped/pkg/logger"
)

type repositories struct {
	listings     domainrepo.ListingRepository
	offers       domainrepo.OfferRepository
	transactions domainrepo.TransactionRepository
	disputes     domainrepo.DisputeRepository
	files        domainrepo.FileMetadataRepository
}

type infrastructure struct {
	repos        repositories
	verifier     service.TokenVerifier
	jwt          *token.JWTService
	uploader     service.FileUploadService
	limiters     router.Limiters
	healthChecks map[string]handler.HealthCheck
	closers      []func() error
}

func (i *infrastructure) close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		if err := i.closers[j](); err != nil {
			logger.Warn("Shutdown cleanup failed: %v", err)
		}
	}
}

func setupInfrastructure(ctx context.Context, cfg *config.Config) (*infrastructure, error) {
	infra := &infrastructure{healthChecks: map[string]handler.HealthCheck{}}

	var (
		app  *fbapp.App
		opts []option.ClientOption
	)
	if cfg.NeedsFirebase() {
		opts = credentialOptions(cfg)
		var err error
		app, err = fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
		}
	}

	if err := infra.setupStorage(ctx, cfg, opts); err != nil {
		infra.close()
		return nil, err
	}
	if err := infra.setupRedis(ctx, cfg); err != nil {
		infra.close()
		return nil, err
	}
	if err := infra.setupAuth(ctx, cfg, app); err != nil {
		infra.close()
		return nil, err
	}

	if cfg.StorageBucket != "" {
		gcs, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			infra.close()
			return nil, fmt.Errorf("failed to initialize Cloud Storage: %w", err)
		}
		infra.uploader = gcs
		infra.closers = append(infra.closers, gcs.Close)
	} else {
		logger.Warn("STORAGE_BUCKET not set, image and evidence uploads are disabled")
	}

	return infra, nil
}

func credentialOptions(cfg *config.Config) []option.ClientOption {
	switch {
	case cfg.FirebaseServiceAccountJSON != "":
		logger.Info("Using Firebase service account from environment variable")
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON))}
	case cfg.FirebaseServiceAccountPath != "":
		logger.Info("Using Firebase service account from file: %s", cfg.FirebaseServiceAccountPath)
		return []option.ClientOption{option.WithCredentialsFile(cfg.FirebaseServiceAccountPath)}
	default:
		logger.Info("Using application default credentials")
		return nil
	}
}

func (i *infrastructure) setupStorage(ctx context.Context, cfg *config.Config, opts []option.ClientOption) error {
	switch cfg.StorageDriver {
	case config.StorageFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
		if err != nil {
			return fmt.Errorf("failed to create Firestore client: %w", err)
		}
		i.closers = append(i.closers, client.Close)
		i.repos = repositories{
			listings:     repository.NewFirestoreListingRepository(client),
			offers:       repository.NewFirestoreOfferRepository(client),
			transactions: repository.NewFirestoreTransactionRepository(client),
			disputes:     repository.NewFirestoreDisputeRepository(client),
			files:        repository.NewFirestoreFileMetadataRepository(client),
		}
		i.healthChecks["firestore"] = func(ctx context.Context) error {
			_, err := client.Collection("listings").Limit(1).Documents(ctx).Next()
			if err == iterator.Done {
				return nil
			}
			return err
		}

	case config.StoragePostgres:
		db, closeDB, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		i.closers = append(i.closers, closeDB)
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		i.repos = repositories{
			listings:     postgres.NewListingRepository(db),
			offers:       postgres.NewOfferRepository(db),
			transactions: postgres.NewTransactionRepository(db),
			disputes:     postgres.NewDisputeRepository(db),
			files:        postgres.NewFileMetadataRepository(db),
		}
		i.healthChecks["postgres"] = func(ctx context.Context) error { return db.PingContext(ctx) }

	case config.StorageMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		i.repos = repositories{
			listings:     store.Listings(),
			offers:       store.Offers(),
			transactions: store.Transactions(),
			disputes:     store.Disputes(),
			files:        store.Files(),
		}
	}

	logger.Info("Storage driver: %s", cfg.StorageDriver)
	return nil
}

// setupRedis enables the listing cache and shared rate limits. Without Redis
// each instance limits on its own.
func (i *infrastructure) setupRedis(ctx context.Context, cfg *config.Config) error {
	if cfg.RedisAddr == "" {
		apiLimiter := ratelimit.NewMemoryLimiter(cfg.RateLimitPerMinute)
		offerLimiter := ratelimit.NewMemoryLimiter(cfg.OfferRateLimitPerMinute)
		apiLimiter.StartCleanupRoutine(ctx)
		offerLimiter.StartCleanupRoutine(ctx)
		i.limiters = router.Limiters{API: apiLimiter, Offers: offerLimiter}
		return nil
	}

	client, closeRedis, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	i.closers = append(i.closers, closeRedis)

	i.repos.listings = repository.NewCachedListingRepository(i.repos.listings, client, cfg.ListingCacheTTL)
	i.limiters = router.Limiters{
		API:    ratelimit.NewRedisLimiter(client, cfg.RateLimitPerMinute, time.Minute),
		Offers: ratelimit.NewRedisLimiter(client, cfg.OfferRateLimitPerMinute, time.Minute),
	}
	i.healthChecks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }

	logger.Info("Redis enabled at %s: listing cache and shared rate limits", cfg.RedisAddr)
	return nil
}

func (i *infrastructure) setupAuth(ctx context.Context, cfg *config.Config, app *fbapp.App) error {
	switch cfg.AuthProvider {
	case config.AuthFirebase:
		authClient, err := app.Auth(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize Firebase Auth: %w", err)
		}
		i.verifier = firebase.NewFirebaseAuthClient(authClient)
	case config.AuthJWT:
		i.jwt = token.NewJWTService(cfg.JWTSecret, time.Duration(cfg.JWTExpiry)*time.Second)
		i.verifier = i.jwt
	}
	return nil
}

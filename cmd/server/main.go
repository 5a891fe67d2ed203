package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"vidtube/internal/cache"
	"vidtube/internal/config"
	"vidtube/internal/database"
	ds "vidtube/internal/docstore"
	"vidtube/internal/handler"
	"vidtube/internal/logging"
	"vidtube/internal/queue"
	"vidtube/internal/redis"
	"vidtube/internal/repository"
	"vidtube/internal/service"
	transport "vidtube/internal/transport/http"
	"vidtube/internal/transport/http/middleware"
	"vidtube/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

	// 2. Connect to the document store
	mongoClient, err := database.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	store := ds.NewMongoStore(mongoClient, cfg.Mongo.Database)
	defer store.Close(context.Background())

	if err := store.EnsureIndexes(ctx, repository.Indexes()); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}

	// 3. Connect to the refresh-token ledger
	db, err := database.ConnectPostgres(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	// 4. Media storage
	media, err := service.NewMediaService(ctx, cfg.R2, cfg.Upload)
	if err != nil {
		return fmt.Errorf("failed to init media storage: %w", err)
	}

	// 5. Repositories
	userRepo := repository.NewUserRepository(store)
	videoRepo := repository.NewVideoRepository(store)
	commentRepo := repository.NewCommentRepository(store)
	tweetRepo := repository.NewTweetRepository(store)
	likeRepo := repository.NewLikeRepository(store)
	subRepo := repository.NewSubscriptionRepository(store)
	playlistRepo := repository.NewPlaylistRepository(store)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// 6. Events: Redis streams when reachable, inline dispatch otherwise
	var (
		views     cache.ViewTracker
		publisher queue.Publisher
		inline    *worker.InlinePublisher
		health    = map[string]handler.Pinger{"mongo": store}
	)
	rdb, err := redis.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, counting views and running cleanups in-process")
		views = cache.NewMemoryViewTracker(cfg.Worker.ViewWindow)
		inline = worker.NewInlinePublisher()
		publisher = inline
	} else {
		defer rdb.Close()
		views = cache.NewViewTracker(rdb.Client, cfg.Worker.ViewWindow)
		publisher = queue.NewPublisher(rdb.Client)
		health["redis"] = rdb
	}

	// 7. Services
	userService := service.NewUserService(userRepo, media)
	authService := service.NewAuthService(refreshTokenRepo, userRepo, cfg.Auth)
	videoService := service.NewVideoService(videoRepo, userRepo, media, views, publisher)
	commentService := service.NewCommentService(commentRepo, videoRepo, publisher)
	tweetService := service.NewTweetService(tweetRepo, userRepo, publisher)
	likeService := service.NewLikeService(likeRepo, videoRepo, commentRepo, tweetRepo)
	subscriptionService := service.NewSubscriptionService(subRepo, userRepo)
	playlistService := service.NewPlaylistService(playlistRepo, videoRepo, userRepo)
	dashboardService := service.NewDashboardService(videoRepo, subRepo)
	cleanupService := service.NewCleanupService(likeRepo, commentRepo, playlistRepo, media)

	// 8. Background workers
	eventHandler := worker.NewHandler(videoService, cleanupService)
	if inline != nil {
		inline.SetHandler(eventHandler)
	} else {
		manager := worker.NewManager(queue.NewConsumer(rdb.Client), eventHandler, worker.ManagerConfig{
			WorkerCount:  cfg.Worker.Count,
			BatchSize:    cfg.Worker.BatchSize,
			BlockTimeout: cfg.Worker.BlockTimeout,
		})
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer manager.Stop()
	}

	janitor := worker.NewJanitor(authService, cfg.Worker.JanitorInterval)
	janitor.Start(ctx)
	defer janitor.Stop()

	// 9. HTTP
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Events, cfg.RateLimit.Window, cfg.RateLimit.Burst)
	}
	router := transport.NewRouter(transport.RouterConfig{
		AuthHandler:         handler.NewAuthHandler(userService, authService, cfg),
		UserHandler:         handler.NewUserHandler(userService, cfg.Upload),
		VideoHandler:        handler.NewVideoHandler(videoService, cfg.Upload),
		CommentHandler:      handler.NewCommentHandler(commentService),
		TweetHandler:        handler.NewTweetHandler(tweetService),
		LikeHandler:         handler.NewLikeHandler(likeService),
		SubscriptionHandler: handler.NewSubscriptionHandler(subscriptionService),
		PlaylistHandler:     handler.NewPlaylistHandler(playlistService),
		DashboardHandler:    handler.NewDashboardHandler(dashboardService),
		HealthHandler:       handler.NewHealthHandler(health),
		JWTSecret:           cfg.Auth.JWTSecret,
		CORSOrigins:         cfg.Server.CORSOrigins,
		TrustProxy:          cfg.Server.TrustProxy,
		RateLimiter:         limiter,
	})

	return transport.Run(ctx, cfg.Server, router)
}

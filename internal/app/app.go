package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/relive/relive/internal/cache"
	"github.com/relive/relive/internal/config"
	"github.com/relive/relive/internal/db"
	"github.com/relive/relive/internal/platform/redis"
	"github.com/relive/relive/internal/repository"
	"github.com/relive/relive/internal/service"
	"github.com/relive/relive/internal/storage"
	"github.com/relive/relive/internal/validation"
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	Redis            *goredis.Client
	AuthService      *service.AuthService
	UserService      *service.UserService
	EmailService     *service.EmailService
	FileService      *service.FileService
	MemoryService    *service.MemoryService
	TagService       *service.TagService
	StatsService     *service.StatsService
	DashboardService *service.DashboardService
	TimelineService  *service.TimelineService
	GalleryService   *service.GalleryService
	ExportService    *service.ExportService
	Importer         *service.Importer
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	fileRepository := repository.NewFileRepository(database)
	memoryRepository := repository.NewMemoryRepository(database)
	tagRepository := repository.NewTagRepository(database)
	mediaRepository := repository.NewMediaRepository(database)

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Stats cache (optional)
	var statsCache cache.StatsCache = cache.NopStatsCache{}
	var redisClient *goredis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = redis.New(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Warn("redis unavailable, stats cache disabled", "error", err, "addr", cfg.RedisAddr)
		} else {
			slog.Info("stats cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.StatsCacheTTL)
			statsCache = cache.NewRedisStatsCache(redisClient, cfg.StatsCacheTTL)
		}
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	fileService := service.NewFileService(fileRepository, fileStorage,
		validation.MediaConstraints(cfg.MaxImageSize, cfg.MaxVideoSize, cfg.MaxAudioSize))
	authService := service.NewAuthService(
		userRepository,
		tokenRepository,
		emailService,
		cfg.JWTSecret,
		cfg.CookieSecure(),
		cfg.JWTExpiry,
		cfg.TokenPasswordResetExpiry,
	)
	userService := service.NewUserService(userRepository, fileService)
	statsService := service.NewStatsService(memoryRepository, mediaRepository, tagRepository, statsCache)
	memoryService := service.NewMemoryService(memoryRepository, fileService, statsService)

	return &App{
		Cfg:              cfg,
		DB:               database,
		Redis:            redisClient,
		AuthService:      authService,
		UserService:      userService,
		EmailService:     emailService,
		FileService:      fileService,
		MemoryService:    memoryService,
		TagService:       service.NewTagService(tagRepository, statsService),
		StatsService:     statsService,
		DashboardService: service.NewDashboardService(statsService, memoryService),
		TimelineService:  service.NewTimelineService(memoryService),
		GalleryService:   service.NewGalleryService(mediaRepository),
		ExportService:    service.NewExportService(userService, memoryService),
		Importer:         service.NewImporter(memoryService),
	}, nil
}

// MaxUploadSize is the largest size any media kind accepts.
func (a *App) MaxUploadSize() int64 {
	return max(a.Cfg.MaxImageSize, a.Cfg.MaxVideoSize, a.Cfg.MaxAudioSize)
}

func (a *App) Close() error {
	if a.Redis != nil {
		err := a.Redis.Close()
		if err != nil {
			slog.Warn("failed to close redis", "error", err)
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

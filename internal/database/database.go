// Package database opens the configured document store: MongoDB, a relational
// database through GORM, or nothing at all.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"threads/internal/config"
	"threads/internal/middleware"
	"threads/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Kind identifies which backend a Handle is connected to.
type Kind string

const (
	KindDisabled Kind = "disabled"
	KindMongo    Kind = "mongodb"
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
)

// Handle is an open connection to the store. Exactly one of Gorm and Mongo is
// set unless Kind is KindDisabled.
type Handle struct {
	Kind  Kind
	Gorm  *gorm.DB
	Mongo *mongo.Database

	mongoClient *mongo.Client
}

// Disabled reports whether no store is configured.
func (h *Handle) Disabled() bool {
	return h == nil || h.Kind == KindDisabled
}

// CustomGormLogger integrates GORM with slog
type CustomGormLogger struct {
	logger *slog.Logger
	Config logger.Config
}

// LogMode sets the logging level and returns a new interface instance.
func (l *CustomGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newlogger := *l
	newlogger.Config.LogLevel = level
	return &newlogger
}

// Info logs an informational message with context.
func (l *CustomGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Warn logs a warning message with context.
func (l *CustomGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace logs SQL statements that failed or ran slower than the threshold.
func (l *CustomGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.Config.LogLevel >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.ErrorContext(ctx, "GORM query error",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	case elapsed > l.Config.SlowThreshold && l.Config.SlowThreshold != 0 && l.Config.LogLevel >= logger.Warn:
		l.logger.WarnContext(ctx, "GORM slow query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	case l.Config.LogLevel >= logger.Info:
		l.logger.InfoContext(ctx, "GORM query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}

func newGormLogger() *CustomGormLogger {
	return &CustomGormLogger{
		logger: middleware.Logger,
		Config: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	}
}

// KindFor picks the backend from the scheme of a connection string.
func KindFor(url string) (Kind, error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "":
		return KindDisabled, nil
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return KindMongo, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return KindPostgres, nil
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"), url == ":memory:":
		return KindSQLite, nil
	default:
		return "", fmt.Errorf("unsupported DATABASE_URL scheme in %q", redact(url))
	}
}

// Open connects to the store named by cfg.DatabaseURL. An empty URL yields a
// disabled handle and a warning rather than an error.
func Open(ctx context.Context, cfg *config.Config) (*Handle, error) {
	kind, err := KindFor(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindDisabled:
		middleware.Logger.WarnContext(ctx, "DATABASE_URL not set; running with the document store disabled")
		return &Handle{Kind: KindDisabled}, nil
	case KindMongo:
		return openMongo(ctx, cfg)
	case KindPostgres:
		return openPostgres(ctx, cfg)
	default:
		return openSQLite(ctx, cfg)
	}
}

func openMongo(ctx context.Context, cfg *config.Config) (*Handle, error) {
	timeout := time.Duration(cfg.DBConnectTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.DatabaseURL).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	if cfg.DBMaxOpenConns > 0 {
		opts.SetMaxPoolSize(uint64(cfg.DBMaxOpenConns))
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "MongoDB connected successfully", slog.String("database", cfg.DBName))
	return &Handle{Kind: KindMongo, Mongo: client.Database(cfg.DBName), mongoClient: client}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config) (*Handle, error) {
	if err := RunMigrations(cfg.DatabaseURL); err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         newGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "Database connected successfully", slog.String("kind", string(KindPostgres)))
	return &Handle{Kind: KindPostgres, Gorm: db}, nil
}

func openSQLite(ctx context.Context, cfg *config.Config) (*Handle, error) {
	dsn := strings.TrimPrefix(cfg.DatabaseURL, "sqlite://")

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         newGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	// sqlite serialises writers; a single connection avoids SQLITE_BUSY
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	middleware.Logger.InfoContext(ctx, "Database connected successfully", slog.String("kind", string(KindSQLite)))
	return &Handle{Kind: KindSQLite, Gorm: db}, nil
}

// AutoMigrate creates the tables for the GORM backends that do not run SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Community{}, &models.Thread{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	maxOpen := cfg.DBMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.DBMaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := time.Duration(cfg.DBConnMaxLifetimeMinutes) * time.Minute
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	return nil
}

// Ping checks the store is reachable. A disabled handle is always healthy.
func (h *Handle) Ping(ctx context.Context) error {
	switch {
	case h.Disabled():
		return nil
	case h.Mongo != nil:
		return h.mongoClient.Ping(ctx, readpref.Primary())
	default:
		sqlDB, err := h.Gorm.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// Close releases the underlying connections.
func (h *Handle) Close(ctx context.Context) error {
	switch {
	case h.Disabled():
		return nil
	case h.mongoClient != nil:
		return h.mongoClient.Disconnect(ctx)
	default:
		sqlDB, err := h.Gorm.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
}

func redact(url string) string {
	if at := strings.LastIndex(url, "@"); at >= 0 {
		if scheme := strings.Index(url, "://"); scheme >= 0 && scheme < at {
			return url[:scheme+3] + "***" + url[at:]
		}
	}
	return url
}

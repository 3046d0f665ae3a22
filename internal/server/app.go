// Package server initializes and runs the marketplace account server:
// database and migrations, photo storage backend, the users service, and
// the REST endpoint with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ADRPUR/event-driven-marketplace/internal/logging"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/config"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/httpapi"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/photostore"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/products"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/repositories/repomanager"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/users"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	userService    *users.Service
	productService *products.Service
	staticDir      string
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	var photos photostore.Store
	var staticDir string
	switch cfg.PhotoBackend {
	case config.PhotoBackendS3:
		photos, err = photostore.NewS3Store(ctx, photostore.S3Config{
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			BaseEndpoint:  cfg.S3BaseEndpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("photo store error: %w", err)
		}
	case config.PhotoBackendLocal:
		local, err := photostore.NewLocalStore(cfg.UploadDir, cfg.UploadPublicPrefix)
		if err != nil {
			return nil, fmt.Errorf("photo store error: %w", err)
		}
		photos = local
		staticDir = local.Dir()
	default:
		return nil, fmt.Errorf("unknown photo backend %q", cfg.PhotoBackend)
	}

	svc := users.NewService(db, repos, photos, cfg)

	return &App{
		config:         cfg,
		logger:         logger,
		db:             db,
		userService:    svc,
		productService: products.NewService(db, repos),
		staticDir:      staticDir,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.HTTPAddr)
	app.initSignalHandler(cancelFunc)

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err.Error())
		}
	}()

	handler := httpapi.NewHandler(app.userService, app.productService, app.logger)
	engine := httpapi.NewRouter(handler, []byte(app.config.SecretKey), app.logger,
		app.config.UploadPublicPrefix, app.staticDir)
	srv := httpapi.NewServer(app.config.HTTPAddr, engine, app.logger)

	return srv.Run(ctx)
}

// Package server initializes and runs the mirror server: it opens the
// database, applies migrations, wires services, and serves the HTTP API
// until shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/plantfolk/plantkeeper/internal/logging"
	"github.com/plantfolk/plantkeeper/internal/server/config"
	"github.com/plantfolk/plantkeeper/internal/server/httpapi"
	"github.com/plantfolk/plantkeeper/internal/server/repositories/repomanager"
	"github.com/plantfolk/plantkeeper/internal/server/services"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	users     *services.UserService
	documents *services.DocumentService
	closeDB   func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := repomanager.OpenDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresManager()
	us := services.NewUserService(db, rm, cfg)
	ds := services.NewDocumentService(db, rm)

	return &App{
		config:    cfg,
		logger:    logger,
		users:     us,
		documents: ds,
		closeDB:   db.Close,
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

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.Addr)

	app.initSignalHandler(cancelFunc)

	srv := httpapi.NewServer(app.config.Addr, app.logger, app.users, app.documents)
	if err := srv.Run(ctx); err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
	}

	if err := app.closeDB(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}

// Package cli is the interactive PlantKeeper client: a small REPL over the
// local store, the photo locker, and the mirror server.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/plantfolk/plantkeeper/internal/client/archive"
	"github.com/plantfolk/plantkeeper/internal/client/backup"
	"github.com/plantfolk/plantkeeper/internal/client/config"
	"github.com/plantfolk/plantkeeper/internal/client/photos"
	"github.com/plantfolk/plantkeeper/internal/client/remote"
	"github.com/plantfolk/plantkeeper/internal/client/store"
	"github.com/plantfolk/plantkeeper/internal/common"
	"github.com/plantfolk/plantkeeper/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	store        *store.Store
	locker       *photos.Locker
	remote       *remote.Client
	orchestrator *backup.Orchestrator
	userName     string
	Mode         Mode
	reader       *bufio.Reader
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	db, persistence, err := store.InitDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	st := store.New(persistence, logger)

	locker := photos.Probe(ctx, photos.LibraryConfig{
		Endpoint:  cfg.LibraryEndpoint,
		Region:    cfg.LibraryRegion,
		Bucket:    cfg.LibraryBucket,
		AccessKey: cfg.LibraryAccessKey,
		SecretKey: cfg.LibrarySecretKey,
		Album:     cfg.LibraryAlbum,
	}, cfg.PhotoDir, logger)

	rc := remote.NewClient(cfg.ServerURL, logger, remote.CallOptions{
		Timeout:        cfg.RequestTimeout,
		MaxRetries:     uint64(cfg.MaxRetries),
		ThrowOnTimeout: true,
	})

	orch := backup.NewOrchestrator(
		backup.NewStoreSource(st), st, locker, archive.NewCodec(logger), rc, rc, logger)

	app := &App{
		config:       cfg,
		logger:       logger,
		db:           db,
		store:        st,
		locker:       locker,
		remote:       rc,
		orchestrator: orch,
		Mode:         ModeOffline,
		reader:       bufio.NewReader(os.Stdin),
	}
	app.restoreSession(ctx)
	return app, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() {
	a.store.Close()
	_ = a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.remote.IsAuthenticated()
}

type savedSession struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
	UserName     string `json:"userName"`
}

// restoreSession reinstalls a persisted session, if any. A stale access
// token is fine; the remote client refreshes once on first rejection.
func (a *App) restoreSession(ctx context.Context) {
	raw, err := a.store.ReadString(ctx, common.KeySession)
	if err != nil || raw == "" {
		return
	}
	var s savedSession
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return
	}
	a.remote.SetTokens(s.AccessToken, s.RefreshToken)
	a.remote.SetUserID(s.UserID)
	a.userName = s.UserName
}

func (a *App) saveSession(ctx context.Context) {
	access, refresh := a.remote.Tokens()
	raw, err := json.Marshal(savedSession{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       a.remote.UserID(),
		UserName:     a.userName,
	})
	if err != nil {
		return
	}
	if err := a.store.WriteString(ctx, common.KeySession, string(raw)); err != nil {
		a.logger.Warn(ctx, "session not persisted", "error", err)
	}
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		a.logger.Info(ctx, "connectivity changed", "mode", string(mode))
	}
}

// StartOnlineStatusWatcher pings the mirror server on a timer and flips the
// connectivity mode accordingly.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.remote.Ping(pingCtx)
			cancel()

			if err != nil {
				a.setMode(ctx, ModeOffline)
			} else {
				a.setMode(ctx, ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}

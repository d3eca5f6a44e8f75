// Package cli implements the modelscope_downloader commands.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/italolelis/modelscope_downloader/internal/config"
	"github.com/italolelis/modelscope_downloader/internal/dc"
	"github.com/italolelis/modelscope_downloader/internal/dc/modelscope"
	"github.com/italolelis/modelscope_downloader/internal/downloader"
	"github.com/italolelis/modelscope_downloader/internal/downloader/progress"
	"github.com/italolelis/modelscope_downloader/internal/logctx"
	"github.com/italolelis/modelscope_downloader/internal/notifier"
	"github.com/italolelis/modelscope_downloader/internal/registry"
	"github.com/italolelis/modelscope_downloader/internal/storage"
	"github.com/italolelis/modelscope_downloader/internal/storage/sqlite"
	"github.com/italolelis/modelscope_downloader/internal/telemetry"
	"github.com/italolelis/modelscope_downloader/internal/transfer"
)

// Version is set at build time.
var Version = "dev"

const shutdownTimeout = 5 * time.Second

// App holds what every command needs once the configuration is loaded.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
	server    *http.Server
	db        *sql.DB
	errOut    io.Writer

	output string
}

func (a *App) setup(ctx context.Context, errOut io.Writer) (context.Context, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return ctx, fmt.Errorf("config error: %w", err)
	}

	a.cfg = cfg
	a.errOut = errOut
	a.logger = logctx.NewLogger(errOut, cfg.SlogLevel(), cfg.LogFormat)
	slog.SetDefault(a.logger)

	ctx = logctx.WithLogger(ctx, a.logger)

	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		return ctx, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	a.telemetry = tel

	if cfg.Telemetry.Enabled && cfg.Telemetry.MetricsAddr != "" {
		a.server = tel.NewServer(ctx, cfg.Telemetry.MetricsAddr)

		go func() {
			a.logger.Info("serving metrics", "addr", cfg.Telemetry.MetricsAddr)

			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", "err", err)
				a.telemetry.RecordSystemError("metrics_server", "listen")
			}
		}()
	}

	return ctx, nil
}

func (a *App) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func (a *App) cookieStore() *modelscope.CookieStore {
	return modelscope.NewCookieStore(a.cfg.ConfigDir())
}

func (a *App) modelScope() (*modelscope.Client, *http.Client, error) {
	store := a.cookieStore()

	cookie, err := store.Header()
	if err != nil {
		return nil, nil, err
	}

	httpClient := modelscope.NewHTTPClient(modelscope.HTTPClientConfig{
		ConnectTimeout: a.cfg.ConnectTimeout,
		Cookie:         cookie,
		AccessToken:    a.cfg.AccessToken,
	})

	return modelscope.NewClient(a.cfg.BaseURL, httpClient, store), httpClient, nil
}

func (a *App) registry() *registry.Registry {
	return registry.New(a.cfg.ConfigDir())
}

func (a *App) history() (storage.DownloadRepository, error) {
	if !a.cfg.HistoryEnabled {
		return nil, nil
	}

	if a.db == nil {
		db, err := sqlite.InitDB(a.cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open download history: %w", err)
		}

		a.db = db
	}

	return sqlite.NewInstrumentedDownloadRepository(a.db, a.telemetry), nil
}

func (a *App) observer() progress.Observer {
	switch strings.ToLower(a.cfg.Progress) {
	case "log":
		return progress.NewLogObserver(a.logger)
	case "both":
		return progress.Multi{progress.NewBarObserver(a.errOut), progress.NewLogObserver(a.logger)}
	case "none":
		return progress.Nop{}
	default:
		return progress.NewBarObserver(a.errOut)
	}
}

func (a *App) downloader() (*downloader.Downloader, error) {
	client, httpClient, err := a.modelScope()
	if err != nil {
		return nil, err
	}

	source := dc.NewInstrumentedSource(client, a.telemetry, "modelscope")
	engine := transfer.NewEngine(httpClient, source, a.telemetry)

	history, err := a.history()
	if err != nil {
		return nil, err
	}

	return downloader.NewDownloader(source, engine, a.observer(), a.registry(), history, a.cfg.MaxParallel), nil
}

// notify announces the outcome when a webhook is configured. Failures are only logged.
func (a *App) notify(ctx context.Context, outcome notifier.Outcome) {
	if a.cfg.DiscordWebhookURL == "" {
		return
	}

	n := notifier.NewDiscordNotifier(a.cfg.DiscordWebhookURL, nil)
	if err := n.Notify(ctx, outcome); err != nil {
		logctx.LoggerFromContext(ctx).Warn("failed to send notification", "err", err)
	}
}

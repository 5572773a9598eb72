package app

import (
	"context"

	"github.com/google/uuid"

	"log/slog"

	"github.com/profitlens/analytics/config"
	"github.com/profitlens/analytics/internal/ads"
	"github.com/profitlens/analytics/internal/adsync"
	"github.com/profitlens/analytics/internal/analytics"
	httpapi "github.com/profitlens/analytics/internal/api/http"
	"github.com/profitlens/analytics/internal/dependency"
	"github.com/profitlens/analytics/internal/store"
)

// App is the main application
type App struct {
	hs     *httpapi.Server
	db     dependency.Repository
	worker *adsync.Worker
	c      *config.Config
	done   chan struct{}
}

// New returns a new instance of App
func New(c *config.Config) *App {
	return &App{
		c:    c,
		done: make(chan struct{}),
	}
}

// Start starts the app
func (a *App) Start(ctx context.Context) error {
	var err error
	slog.Default().InfoContext(ctx, "starting profitlens analytics")

	a.db, err = store.New(ctx, a.c.DB)
	if err != nil {
		slog.Default().ErrorContext(ctx, "couldn't connect to mysql",
			slog.String("err", err.Error()))
		return err
	}

	svc := analytics.New(&a.c.Analytics, a.db)

	insights := ads.New(&a.c.Ads)
	traffic, err := ads.NewTrafficClient(ctx, &a.c.GA)
	if err != nil {
		slog.Default().ErrorContext(ctx, "failed to create traffic client",
			slog.String("err", err.Error()))
		return err
	}

	if a.c.OrgID != "" {
		orgID, err := uuid.Parse(a.c.OrgID)
		if err != nil {
			slog.Default().ErrorContext(ctx, "invalid org_id",
				slog.String("err", err.Error()))
			return err
		}
		a.worker = adsync.New(insights, traffic, a.db, orgID, &a.c.AdSync)
		if err := a.worker.Start(ctx); err != nil {
			slog.Default().ErrorContext(ctx, "cannot start ad sync worker",
				slog.String("err", err.Error()))
			return err
		}
	}

	// start API server
	a.hs = httpapi.New(&a.c.HTTP)
	if err = a.hs.Start(ctx, svc, a.db); err != nil {
		slog.Default().ErrorContext(ctx, "cannot start http server",
			slog.String("err", err.Error()))
		return err
	}

	return nil
}

// Stop stops the application and waits for all services to exit
func (a *App) Stop(ctx context.Context) {
	if a.worker != nil {
		if err := a.worker.Stop(); err != nil {
			slog.Default().ErrorContext(ctx, "failed to stop ad sync worker",
				slog.String("err", err.Error()))
		}
	}
	if a.hs != nil {
		if err := a.hs.Stop(ctx); err != nil {
			slog.Default().ErrorContext(ctx, "failed to stop http server",
				slog.String("err", err.Error()))
		}
	}
	a.db.Close()
	close(a.done)
}

// Done returns a channel that is closed after the application has exited
func (a *App) Done() chan struct{} {
	return a.done
}

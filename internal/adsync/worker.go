package adsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/profitlens/analytics/internal/ads"
	"github.com/profitlens/analytics/internal/analytics"
	"github.com/profitlens/analytics/internal/dependency"
	"github.com/profitlens/analytics/internal/entity"
)

const (
	syncTypeAdInsights = "ad_insights"
	syncTypeTraffic    = "traffic"
)

// Config holds configuration for the ad insight sync worker.
type Config struct {
	WorkerInterval time.Duration `mapstructure:"worker_interval"`
	LookbackDays   int           `mapstructure:"lookback_days"` // how many days back to sync on each run
	Timezone       string        `mapstructure:"timezone"`
}

// DefaultConfig returns default configuration values.
func DefaultConfig() Config {
	return Config{
		WorkerInterval: 1 * time.Hour,
		LookbackDays:   7,
		Timezone:       "UTC",
	}
}

// Worker periodically pulls ad-platform insights and site traffic into the
// daily snapshot tables.
type Worker struct {
	insights *ads.Client
	traffic  *ads.TrafficClient
	rep      dependency.Repository
	orgID    uuid.UUID
	c        *Config
	ctx      context.Context
	stop     context.CancelFunc
}

// New creates a new ad sync worker. Either client may be nil when the
// corresponding integration is not configured.
func New(insights *ads.Client, traffic *ads.TrafficClient, rep dependency.Repository, orgID uuid.UUID, c *Config) *Worker {
	if c == nil {
		dc := DefaultConfig()
		c = &dc
	}
	if c.WorkerInterval == 0 {
		c.WorkerInterval = 1 * time.Hour
	}
	if c.LookbackDays == 0 {
		c.LookbackDays = 7
	}
	return &Worker{
		insights: insights,
		traffic:  traffic,
		rep:      rep,
		orgID:    orgID,
		c:        c,
	}
}

// Start starts the worker.
func (w *Worker) Start(ctx context.Context) error {
	if w.ctx != nil && w.stop != nil {
		return fmt.Errorf("ad sync worker already started")
	}
	w.ctx, w.stop = context.WithCancel(ctx)
	go w.worker(w.ctx)
	return nil
}

// Stop stops the worker gracefully.
func (w *Worker) Stop() error {
	if w.stop == nil {
		return fmt.Errorf("ad sync worker already stopped or not started")
	}
	w.stop()
	w.stop = nil
	return nil
}

func (w *Worker) worker(ctx context.Context) {
	// Run immediately on startup
	if err := w.syncAll(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "ad sync failed on startup",
			slog.String("err", err.Error()))
	}

	ticker := time.NewTicker(w.c.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncAll(ctx); err != nil {
				slog.Default().ErrorContext(ctx, "ad sync failed",
					slog.String("err", err.Error()))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) syncAll(ctx context.Context) error {
	loc := analytics.Location(w.c.Timezone)
	now := time.Now().In(loc)
	endDate := now.AddDate(0, 0, -1) // yesterday (platform reporting has ~24h delay)
	startDate := endDate.AddDate(0, 0, -w.c.LookbackDays)

	start := startDate.Format("2006-01-02")
	end := endDate.Format("2006-01-02")

	slog.Default().InfoContext(ctx, "starting ad sync",
		slog.String("start_date", start),
		slog.String("end_date", end))

	if err := w.syncAdInsights(ctx, start, end); err != nil {
		slog.Default().ErrorContext(ctx, "failed to sync ad insights",
			slog.String("err", err.Error()))
	}

	if err := w.syncTraffic(ctx, start, end); err != nil {
		slog.Default().ErrorContext(ctx, "failed to sync traffic",
			slog.String("err", err.Error()))
	}

	slog.Default().InfoContext(ctx, "ad sync completed")
	return nil
}

func (w *Worker) syncAdInsights(ctx context.Context, start, end string) error {
	if w.insights == nil {
		return nil
	}

	rows, err := w.insights.FetchDailyInsights(ctx, start, end)
	if err != nil {
		w.recordStatus(ctx, syncTypeAdInsights, end, "error", 0, err.Error())
		return fmt.Errorf("failed to fetch ad insights: %w", err)
	}

	count, err := w.rep.Ads().UpsertAdInsights(ctx, w.orgID, rows)
	if err != nil {
		w.recordStatus(ctx, syncTypeAdInsights, end, "error", 0, err.Error())
		return fmt.Errorf("failed to save ad insights: %w", err)
	}

	w.recordStatus(ctx, syncTypeAdInsights, end, "success", count, "")
	slog.Default().InfoContext(ctx, "synced ad insights",
		slog.Int("count", count))
	return nil
}

func (w *Worker) syncTraffic(ctx context.Context, start, end string) error {
	if w.traffic == nil {
		return nil
	}

	days, err := w.traffic.GetDailyTraffic(ctx, start, end)
	if err != nil {
		w.recordStatus(ctx, syncTypeTraffic, end, "error", 0, err.Error())
		return fmt.Errorf("failed to fetch traffic: %w", err)
	}

	if err := w.rep.Metrics().UpdateDailyTraffic(ctx, w.orgID, days); err != nil {
		w.recordStatus(ctx, syncTypeTraffic, end, "error", 0, err.Error())
		return fmt.Errorf("failed to save traffic: %w", err)
	}

	w.recordStatus(ctx, syncTypeTraffic, end, "success", len(days), "")
	slog.Default().InfoContext(ctx, "synced traffic",
		slog.Int("count", len(days)))
	return nil
}

func (w *Worker) recordStatus(ctx context.Context, syncType, lastSyncDate, status string, count int, errMsg string) {
	err := w.rep.Ads().SetAdSyncStatus(ctx, w.orgID, entity.AdSyncStatus{
		SyncType:      syncType,
		LastSyncDate:  lastSyncDate,
		LastSyncAt:    time.Now(),
		Status:        status,
		ErrorMessage:  errMsg,
		RecordsSynced: count,
	})
	if err != nil {
		slog.Default().ErrorContext(ctx, "failed to record sync status",
			slog.String("sync_type", syncType),
			slog.String("err", err.Error()))
	}
}

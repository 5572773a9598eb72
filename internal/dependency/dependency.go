package dependency

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/profitlens/analytics/internal/entity"
)

//go:generate mockery --all --dir . --output ./mocks

type (
	// Metrics reads the pre-aggregated daily commerce snapshots.
	Metrics interface {
		// GetDailyMetrics returns rows for the inclusive range ordered
		// ascending by date.
		GetDailyMetrics(ctx context.Context, orgID uuid.UUID, r entity.DateRange) ([]entity.DailyMetricRecord, error)
		UpsertDailyMetric(ctx context.Context, orgID uuid.UUID, rec entity.DailyMetricRecord) error
		UpdateDailyTraffic(ctx context.Context, orgID uuid.UUID, days []entity.TrafficDay) error
	}

	// Costs reads and writes merchant-defined cost policies and
	// return-rate overrides.
	Costs interface {
		GetActiveCostPolicies(ctx context.Context, orgID uuid.UUID) ([]entity.CostPolicy, error)
		AddCostPolicy(ctx context.Context, orgID uuid.UUID, p entity.CostPolicy) (int, error)
		DeactivateCostPolicy(ctx context.Context, orgID uuid.UUID, id int) error
		GetManualReturnRateEntries(ctx context.Context, orgID uuid.UUID) ([]entity.ManualReturnRateEntry, error)
		SetManualReturnRate(ctx context.Context, orgID uuid.UUID, rate decimal.Decimal, effectiveFrom, effectiveTo *string) error
	}

	// Ads reads and writes ad-platform insight rows.
	Ads interface {
		// GetAdInsightTotals aggregates spend and performance over the
		// range, preferring account-level rows over sub-entity rows.
		GetAdInsightTotals(ctx context.Context, orgID uuid.UUID, r entity.DateRange) (entity.AdInsightTotals, error)
		UpsertAdInsights(ctx context.Context, orgID uuid.UUID, rows []entity.AdDailyInsight) (int, error)
		GetAdSyncStatus(ctx context.Context, orgID uuid.UUID, syncType string) (*entity.AdSyncStatus, error)
		SetAdSyncStatus(ctx context.Context, orgID uuid.UUID, status entity.AdSyncStatus) error
	}

	// Repository is the storage root handed to the application layer.
	Repository interface {
		Metrics() Metrics
		Costs() Costs
		Ads() Ads
		Tx(ctx context.Context, f func(context.Context, Repository) error) error
		TxBegin(ctx context.Context) (Repository, error)
		TxCommit(ctx context.Context) error
		TxRollback(ctx context.Context) error
		Now() time.Time
		InTx() bool
		Close()
		IsErrUniqueViolation(err error) bool
		IsErrorRepeat(err error) bool
		DB() DB
	}

	// DB represents database interface.
	DB interface {
		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

		// sqlx methods
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
		NamedQuery(query string, arg interface{}) (*sqlx.Rows, error)
		PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
		PreparexContext(ctx context.Context, query string) (*sqlx.Stmt, error)
		QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
		QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}
)

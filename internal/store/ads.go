package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/profitlens/analytics/internal/dependency"
	"github.com/profitlens/analytics/internal/entity"
)

type adsStore struct {
	*MYSQLStore
}

// Ads returns an object implementing Ads interface
func (ms *MYSQLStore) Ads() dependency.Ads {
	return &adsStore{
		MYSQLStore: ms,
	}
}

type adInsightRow struct {
	Date            time.Time            `db:"date"`
	Platform        string               `db:"platform"`
	EntityLevel     entity.AdEntityLevel `db:"entity_level"`
	EntityID        string               `db:"entity_id"`
	Spend           float64              `db:"spend"`
	Impressions     float64              `db:"impressions"`
	Clicks          float64              `db:"clicks"`
	UniqueClicks    float64              `db:"unique_clicks"`
	Conversions     float64              `db:"conversions"`
	ConversionValue float64              `db:"conversion_value"`
}

// GetAdInsightTotals aggregates insight rows over the range. When a
// (platform, day) has account-level rows, sub-entity rows for that pair are
// ignored to avoid double counting.
func (ms *MYSQLStore) GetAdInsightTotals(ctx context.Context, orgID uuid.UUID, r entity.DateRange) (entity.AdInsightTotals, error) {
	query := `
	SELECT date, platform, entity_level, entity_id, spend, impressions,
		clicks, unique_clicks, conversions, conversion_value
	FROM ad_insight_daily
	WHERE org_id = :orgId AND date BETWEEN :start AND :end`

	rows, err := QueryListNamed[adInsightRow](ctx, ms.DB(), query, map[string]any{
		"orgId": orgID.String(),
		"start": r.Start,
		"end":   r.End,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.AdInsightTotals{}, nil
		}
		return entity.AdInsightTotals{}, fmt.Errorf("failed to get ad insights: %w", err)
	}

	hasAccount := make(map[string]bool)
	for _, row := range rows {
		if row.EntityLevel == entity.AdLevelAccount {
			hasAccount[row.Platform+"|"+row.Date.Format("2006-01-02")] = true
		}
	}

	var totals entity.AdInsightTotals
	for _, row := range rows {
		if row.EntityLevel != entity.AdLevelAccount && hasAccount[row.Platform+"|"+row.Date.Format("2006-01-02")] {
			continue
		}
		totals.Spend += row.Spend
		totals.Impressions += row.Impressions
		totals.Clicks += row.Clicks
		totals.UniqueClicks += row.UniqueClicks
		totals.Conversions += row.Conversions
		totals.ConversionValue += row.ConversionValue
	}
	return totals, nil
}

// UpsertAdInsights writes a batch of insight rows in a single statement,
// replacing prior values for the same (platform, entity, day). Returns the
// number of rows written.
func (ms *MYSQLStore) UpsertAdInsights(ctx context.Context, orgID uuid.UUID, rows []entity.AdDailyInsight) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	values := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, map[string]any{
			"org_id":           orgID.String(),
			"date":             row.Date,
			"platform":         row.Platform,
			"entity_level":     row.EntityLevel,
			"entity_id":        row.EntityID,
			"spend":            row.Spend,
			"impressions":      row.Impressions,
			"clicks":           row.Clicks,
			"unique_clicks":    row.UniqueClicks,
			"conversions":      row.Conversions,
			"conversion_value": row.ConversionValue,
		})
	}
	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		return BulkInsert(ctx, rep.DB(), "ad_insight_daily", values,
			"spend", "impressions", "clicks", "unique_clicks",
			"conversions", "conversion_value")
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert ad insights: %w", err)
	}
	return len(rows), nil
}

type adSyncStatusRow struct {
	SyncType      string       `db:"sync_type"`
	LastSyncDate  sql.NullTime `db:"last_sync_date"`
	LastSyncAt    sql.NullTime `db:"last_sync_at"`
	Status        string       `db:"status"`
	ErrorMessage  string       `db:"error_message"`
	RecordsSynced int          `db:"records_synced"`
}

// GetAdSyncStatus returns the last recorded sync outcome for a sync type,
// nil when the type has never synced.
func (ms *MYSQLStore) GetAdSyncStatus(ctx context.Context, orgID uuid.UUID, syncType string) (*entity.AdSyncStatus, error) {
	query := `
	SELECT sync_type, last_sync_date, last_sync_at, status, error_message, records_synced
	FROM ad_sync_status
	WHERE org_id = :orgId AND sync_type = :syncType`

	row, err := QueryNamedOne[adSyncStatusRow](ctx, ms.DB(), query, map[string]any{
		"orgId":    orgID.String(),
		"syncType": syncType,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ad sync status: %w", err)
	}

	status := entity.AdSyncStatus{
		SyncType:      row.SyncType,
		Status:        row.Status,
		ErrorMessage:  row.ErrorMessage,
		RecordsSynced: row.RecordsSynced,
	}
	if row.LastSyncDate.Valid {
		status.LastSyncDate = row.LastSyncDate.Time.Format("2006-01-02")
	}
	if row.LastSyncAt.Valid {
		status.LastSyncAt = row.LastSyncAt.Time
	}
	return &status, nil
}

// SetAdSyncStatus records the outcome of a sync run.
func (ms *MYSQLStore) SetAdSyncStatus(ctx context.Context, orgID uuid.UUID, status entity.AdSyncStatus) error {
	query := `
	INSERT INTO ad_sync_status
		(org_id, sync_type, last_sync_date, last_sync_at, status,
		error_message, records_synced)
	VALUES
		(:orgId, :syncType, :lastSyncDate, :lastSyncAt, :status,
		:errorMessage, :recordsSynced)
	ON DUPLICATE KEY UPDATE
		last_sync_date = VALUES(last_sync_date),
		last_sync_at = VALUES(last_sync_at), status = VALUES(status),
		error_message = VALUES(error_message),
		records_synced = VALUES(records_synced)`

	var lastSyncDate any
	if status.LastSyncDate != "" {
		lastSyncDate = status.LastSyncDate
	}
	if err := ExecNamed(ctx, ms.DB(), query, map[string]any{
		"orgId":         orgID.String(),
		"syncType":      status.SyncType,
		"lastSyncDate":  lastSyncDate,
		"lastSyncAt":    status.LastSyncAt,
		"status":        status.Status,
		"errorMessage":  status.ErrorMessage,
		"recordsSynced": status.RecordsSynced,
	}); err != nil {
		return fmt.Errorf("failed to set ad sync status: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/profitlens/analytics/internal/dependency"
	"github.com/profitlens/analytics/internal/entity"
)

type costsStore struct {
	*MYSQLStore
}

// Costs returns an object implementing Costs interface
func (ms *MYSQLStore) Costs() dependency.Costs {
	return &costsStore{
		MYSQLStore: ms,
	}
}

type costPolicyRow struct {
	ID            int                    `db:"id"`
	Name          string                 `db:"name"`
	Value         decimal.Decimal        `db:"value"`
	Frequency     entity.CostFrequency   `db:"frequency"`
	Calculation   entity.CostCalculation `db:"calculation"`
	Category      entity.CostCategory    `db:"category"`
	EffectiveFrom *time.Time             `db:"effective_from"`
	EffectiveTo   *time.Time             `db:"effective_to"`
	IsActive      bool                   `db:"is_active"`
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// GetActiveCostPolicies retrieves every active cost policy for the
// organization. Effective-window filtering happens in the engine so that
// historical windows still see policies that were active then.
func (ms *MYSQLStore) GetActiveCostPolicies(ctx context.Context, orgID uuid.UUID) ([]entity.CostPolicy, error) {
	query := `
	SELECT id, name, value, frequency, calculation, category,
		effective_from, effective_to, is_active
	FROM cost_policy
	WHERE org_id = :orgId AND is_active = 1
	ORDER BY id ASC`

	rows, err := QueryListNamed[costPolicyRow](ctx, ms.DB(), query, map[string]any{
		"orgId": orgID.String(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []entity.CostPolicy{}, nil
		}
		return nil, fmt.Errorf("failed to get cost policies: %w", err)
	}

	policies := make([]entity.CostPolicy, 0, len(rows))
	for _, row := range rows {
		policies = append(policies, entity.CostPolicy{
			ID:            row.ID,
			Name:          row.Name,
			Value:         row.Value,
			Frequency:     row.Frequency,
			Calculation:   row.Calculation,
			Category:      row.Category,
			EffectiveFrom: dateString(row.EffectiveFrom),
			EffectiveTo:   dateString(row.EffectiveTo),
			IsActive:      row.IsActive,
		})
	}
	return policies, nil
}

// AddCostPolicy inserts a policy and returns its id.
func (ms *MYSQLStore) AddCostPolicy(ctx context.Context, orgID uuid.UUID, p entity.CostPolicy) (int, error) {
	query := `
	INSERT INTO cost_policy
		(org_id, name, value, frequency, calculation, category,
		effective_from, effective_to, is_active)
	VALUES
		(:orgId, :name, :value, :frequency, :calculation, :category,
		:effectiveFrom, :effectiveTo, :isActive)`

	id, err := ExecNamedLastId(ctx, ms.DB(), query, map[string]any{
		"orgId":         orgID.String(),
		"name":          p.Name,
		"value":         p.Value,
		"frequency":     p.Frequency,
		"calculation":   p.Calculation,
		"category":      p.Category,
		"effectiveFrom": p.EffectiveFrom,
		"effectiveTo":   p.EffectiveTo,
		"isActive":      p.IsActive,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add cost policy: %w", err)
	}
	return id, nil
}

// DeactivateCostPolicy flips a policy inactive without deleting its history.
func (ms *MYSQLStore) DeactivateCostPolicy(ctx context.Context, orgID uuid.UUID, id int) error {
	query := `UPDATE cost_policy SET is_active = 0 WHERE org_id = :orgId AND id = :id`
	if err := ExecNamed(ctx, ms.DB(), query, map[string]any{
		"orgId": orgID.String(),
		"id":    id,
	}); err != nil {
		return fmt.Errorf("failed to deactivate cost policy: %w", err)
	}
	return nil
}

type returnRateRow struct {
	ID            int        `db:"id"`
	RatePercent   float64    `db:"rate_percent"`
	EffectiveFrom *time.Time `db:"effective_from"`
	EffectiveTo   *time.Time `db:"effective_to"`
	IsActive      bool       `db:"is_active"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// GetManualReturnRateEntries retrieves all return-rate overrides, active or
// not. The engine decides which apply to a given window.
func (ms *MYSQLStore) GetManualReturnRateEntries(ctx context.Context, orgID uuid.UUID) ([]entity.ManualReturnRateEntry, error) {
	query := `
	SELECT id, rate_percent, effective_from, effective_to, is_active, updated_at
	FROM manual_return_rate
	WHERE org_id = :orgId
	ORDER BY updated_at DESC`

	rows, err := QueryListNamed[returnRateRow](ctx, ms.DB(), query, map[string]any{
		"orgId": orgID.String(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []entity.ManualReturnRateEntry{}, nil
		}
		return nil, fmt.Errorf("failed to get manual return rate entries: %w", err)
	}

	entries := make([]entity.ManualReturnRateEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entity.ManualReturnRateEntry{
			ID:            row.ID,
			RatePercent:   row.RatePercent,
			EffectiveFrom: dateString(row.EffectiveFrom),
			EffectiveTo:   dateString(row.EffectiveTo),
			IsActive:      row.IsActive,
			UpdatedAt:     row.UpdatedAt,
		})
	}
	return entries, nil
}

// SetManualReturnRate records a new override, deactivating prior open-ended
// entries in the same transaction.
func (ms *MYSQLStore) SetManualReturnRate(ctx context.Context, orgID uuid.UUID, rate decimal.Decimal, effectiveFrom, effectiveTo *string) error {
	return ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		deactivate := `
		UPDATE manual_return_rate SET is_active = 0
		WHERE org_id = :orgId AND is_active = 1 AND effective_to IS NULL`
		if err := ExecNamed(ctx, rep.DB(), deactivate, map[string]any{
			"orgId": orgID.String(),
		}); err != nil {
			return fmt.Errorf("failed to deactivate prior return rates: %w", err)
		}

		insert := `
		INSERT INTO manual_return_rate
			(org_id, rate_percent, effective_from, effective_to, is_active)
		VALUES
			(:orgId, :rate, :effectiveFrom, :effectiveTo, 1)`
		if err := ExecNamed(ctx, rep.DB(), insert, map[string]any{
			"orgId":         orgID.String(),
			"rate":          rate,
			"effectiveFrom": effectiveFrom,
			"effectiveTo":   effectiveTo,
		}); err != nil {
			return fmt.Errorf("failed to insert return rate: %w", err)
		}
		return nil
	})
}

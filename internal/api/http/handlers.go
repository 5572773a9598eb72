package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	v "github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"log/slog"

	"github.com/profitlens/analytics/internal/analytics"
	"github.com/profitlens/analytics/internal/entity"
)

type rangeRequest struct {
	Start string `valid:"required"`
	End   string `valid:"required"`
}

func rangeFromQuery(r *http.Request) (entity.DateRange, error) {
	req := rangeRequest{
		Start: r.URL.Query().Get("start"),
		End:   r.URL.Query().Get("end"),
	}
	if _, err := v.ValidateStruct(req); err != nil {
		return entity.DateRange{}, fmt.Errorf("start and end are required: %w", err)
	}
	dr := entity.DateRange{Start: req.Start, End: req.End}
	if err := analytics.ValidateRange(dr); err != nil {
		return entity.DateRange{}, err
	}
	return dr, nil
}

func (s *Server) getOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, err := orgFromContext(ctx)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, err)
		return
	}

	dr, err := rangeFromQuery(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	overview, err := s.svc.LoadOverview(ctx, orgID, dr)
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't load overview",
			slog.String("err", err.Error()))
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, r, http.StatusOK, overview)
}

func (s *Server) getPnLTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, err := orgFromContext(ctx)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, err)
		return
	}

	dr, err := rangeFromQuery(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	g := entity.Granularity(r.URL.Query().Get("granularity"))
	if g == "" {
		g = entity.GranularityDaily
	}
	if !g.Valid() {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("unknown granularity %q", g))
		return
	}

	result, err := s.svc.LoadPnLTable(ctx, orgID, dr, g)
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't load pnl table",
			slog.String("err", err.Error()))
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, r, http.StatusOK, result)
}

func (s *Server) listCostPolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, err := orgFromContext(ctx)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, err)
		return
	}

	policies, err := s.rep.Costs().GetActiveCostPolicies(ctx, orgID)
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't list cost policies",
			slog.String("err", err.Error()))
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"policies": policies})
}

type costPolicyRequest struct {
	Name          string          `json:"name" valid:"required"`
	Value         decimal.Decimal `json:"value"`
	Frequency     string          `json:"frequency" valid:"in(daily|weekly|biweekly|monthly|bimonthly|quarterly|half_yearly|annual|per_order|per_item),optional"`
	Calculation   string          `json:"calculation" valid:"in(fixed|percentage),optional"`
	Category      string          `json:"category" valid:"in(shipping|payment|operational),optional"`
	EffectiveFrom *string         `json:"effectiveFrom"`
	EffectiveTo   *string         `json:"effectiveTo"`
}

func (s *Server) addCostPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, err := orgFromContext(ctx)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, err)
		return
	}

	var req costPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if _, err := v.ValidateStruct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	p := entity.CostPolicy{
		Name:          req.Name,
		Value:         req.Value,
		Frequency:     entity.CostFrequency(req.Frequency),
		Calculation:   entity.CostCalculation(req.Calculation),
		Category:      entity.CostCategory(req.Category),
		EffectiveFrom: req.EffectiveFrom,
		EffectiveTo:   req.EffectiveTo,
		IsActive:      true,
	}
	if p.Frequency == "" {
		p.Frequency = entity.FrequencyMonthly
	}
	if p.Calculation == "" {
		p.Calculation = entity.CalculationFixed
	}
	if p.Category == "" {
		p.Category = entity.CostCategoryOperational
	}

	id, err := s.rep.Costs().AddCostPolicy(ctx, orgID, p)
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't add cost policy",
			slog.String("err", err.Error()))
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) deactivateCostPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, err := orgFromContext(ctx)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, err)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("invalid policy id: %w", err))
		return
	}

	if err := s.rep.Costs().DeactivateCostPolicy(ctx, orgID, id); err != nil {
		slog.Default().ErrorContext(ctx, "can't deactivate cost policy",
			slog.String("err", err.Error()))
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, r, http.StatusOK, nil)
}

func (s *Server) listReturnRateEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, err := orgFromContext(ctx)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, err)
		return
	}

	entries, err := s.rep.Costs().GetManualReturnRateEntries(ctx, orgID)
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't list return rate entries",
			slog.String("err", err.Error()))
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"entries": entries})
}

type returnRateRequest struct {
	RatePercent   float64 `json:"ratePercent"`
	EffectiveFrom *string `json:"effectiveFrom"`
	EffectiveTo   *string `json:"effectiveTo"`
}

func (s *Server) setReturnRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, err := orgFromContext(ctx)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, err)
		return
	}

	var req returnRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.RatePercent < 0 || req.RatePercent > 100 {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("ratePercent must be between 0 and 100"))
		return
	}

	rate := decimal.NewFromFloat(req.RatePercent)
	if err := s.rep.Costs().SetManualReturnRate(ctx, orgID, rate, req.EffectiveFrom, req.EffectiveTo); err != nil {
		slog.Default().ErrorContext(ctx, "can't set manual return rate",
			slog.String("err", err.Error()))
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, r, http.StatusOK, nil)
}

func (s *Server) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, err := orgFromContext(ctx)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, err)
		return
	}

	statuses := map[string]*entity.AdSyncStatus{}
	for _, syncType := range []string{"ad_insights", "traffic"} {
		status, err := s.rep.Ads().GetAdSyncStatus(ctx, orgID, syncType)
		if err != nil {
			slog.Default().ErrorContext(ctx, "can't get sync status",
				slog.String("sync_type", syncType),
				slog.String("err", err.Error()))
			respondError(w, r, http.StatusInternalServerError, err)
			return
		}
		statuses[syncType] = status
	}

	respondJSON(w, r, http.StatusOK, statuses)
}

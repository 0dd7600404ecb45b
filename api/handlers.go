/*
handlers.go - HTTP API handlers for the worklog planning service

PURPOSE:
  Exposes the planning engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the core.

ENDPOINTS:
  Planning:
    POST   /api/allocation/preview   Revenue delta -> per-role hour quotas
    POST   /api/assignments/expand   Role quotas -> per-member, per-item targets
    POST   /api/schedule/preview     Assignments -> day-by-day schedule
    POST   /api/schedule/submit      Preview + persist worklogs + audit run

  Settings:
    GET    /api/settings/{period}    Period target and role configs
    PUT    /api/settings/{period}    Upsert period settings

  Audit:
    GET    /api/runs                 Recent plan runs, newest first
    GET    /api/runs/{id}            One run

REQUEST FLOW:
  1. Decode and validate the typed request struct
  2. Call the planning core (pure; all inputs explicit)
  3. Record metrics and, for submits, the audit run
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid range
  - 404: Unknown period or run
  - 500: Storage failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Background recalculation job
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/worklog-engine/metrics"
	"github.com/warp/worklog-engine/planning"
	"github.com/warp/worklog-engine/store/sqlite"
	"github.com/warp/worklog-engine/tracker"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store

	// Source provides the existing-worklog snapshot seeding the capacity
	// map. Defaults to the store itself; a Tempo/Jira-style client can be
	// plugged in without touching the handlers.
	Source tracker.WorklogSource

	Log zerolog.Logger

	// Now is injectable for tests; it drives wall-clock seeds.
	Now func() time.Time
}

// NewHandler creates a handler backed by the given store.
func NewHandler(store *sqlite.Store, log zerolog.Logger) *Handler {
	return &Handler{
		Store:  store,
		Source: store,
		Log:    log,
		Now:    time.Now,
	}
}

// =============================================================================
// ALLOCATION
// =============================================================================

// PreviewAllocation computes per-role hour quotas for a revenue delta.
func (h *Handler) PreviewAllocation(w http.ResponseWriter, r *http.Request) {
	var req AllocationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	start := time.Now()
	result := planning.Allocate(req.toInput())
	metrics.AllocationDurationSeconds.Observe(time.Since(start).Seconds())
	metrics.PlanRunsTotal.WithLabelValues("allocation", "ok").Inc()

	writeJSON(w, http.StatusOK, toAllocationDTO(result))
}

// ExpandAssignments spreads role quotas across members' work items by
// complexity weight.
func (h *Handler) ExpandAssignments(w http.ResponseWriter, r *http.Request) {
	var req ExpandRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	roles := make([]planning.RoleResult, len(req.Roles))
	for i, dto := range req.Roles {
		roles[i] = planning.RoleResult{
			RoleInput:      planning.RoleInput{RoleID: dto.RoleID, RoleName: dto.RoleName},
			HoursPerMember: decimal.NewFromFloat(dto.HoursPerMember),
		}
	}
	members := make([]planning.MemberWorkItems, len(req.Members))
	for i, m := range req.Members {
		member := planning.MemberWorkItems{AccountID: m.AccountID, RoleID: m.RoleID}
		for _, item := range m.Items {
			member.Items = append(member.Items, planning.WeightedItem{
				WorkItemID: item.WorkItemID,
				Weight:     decimal.NewFromFloat(item.Weight),
			})
		}
		members[i] = member
	}

	assignments := planning.ExpandAssignments(roles, members)
	dtos := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = AssignmentDTO{
			AccountID:  a.AccountID,
			WorkItemID: a.WorkItemID,
			TotalHours: a.TotalHours.InexactFloat64(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SCHEDULING
// =============================================================================

// PreviewSchedule computes a distribution without persisting anything.
func (h *Handler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, seed, err := h.distribute(r, req)
	if err != nil {
		metrics.PlanRunsTotal.WithLabelValues(sqlite.RunKindPreview, outcomeOf(err)).Inc()
		writeDistributionError(w, err)
		return
	}
	metrics.PlanRunsTotal.WithLabelValues(sqlite.RunKindPreview, "ok").Inc()

	writeJSON(w, http.StatusOK, toScheduleDTO(result, seed))
}

// SubmitSchedule computes a distribution, persists the resulting
// worklogs and records an audit run. Persisted hours count as existing
// capacity on subsequent runs.
func (h *Handler) SubmitSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, seed, err := h.distribute(r, req)
	if err != nil {
		metrics.PlanRunsTotal.WithLabelValues(sqlite.RunKindSubmit, outcomeOf(err)).Inc()
		writeDistributionError(w, err)
		return
	}

	runID := uuid.NewString()
	logs := make([]tracker.Worklog, len(result.Schedule))
	for i, e := range result.Schedule {
		logs[i] = tracker.Worklog{
			ID:         uuid.NewString(),
			AccountID:  e.AccountID,
			WorkItemID: e.WorkItemID,
			Date:       e.Date,
			Hours:      e.Hours,
			Overflow:   e.Overflow,
		}
	}
	if err := h.Store.SaveRunWorklogs(r.Context(), runID, logs); err != nil {
		h.Log.Error().Err(err).Str("run_id", runID).Msg("failed to persist worklogs")
		metrics.PlanRunsTotal.WithLabelValues(sqlite.RunKindSubmit, "error").Inc()
		writeError(w, http.StatusInternalServerError, "Failed to persist worklogs", err)
		return
	}

	if err := h.recordRun(r, sqlite.RunKindSubmit, runID, req, result, seed); err != nil {
		h.Log.Error().Err(err).Str("run_id", runID).Msg("failed to record plan run")
		writeError(w, http.StatusInternalServerError, "Failed to record run", err)
		return
	}
	metrics.PlanRunsTotal.WithLabelValues(sqlite.RunKindSubmit, "ok").Inc()

	dto := toScheduleDTO(result, seed)
	dto.RunID = runID
	h.Log.Info().
		Str("run_id", runID).
		Int("entries", len(result.Schedule)).
		Int64("seed", seed).
		Msg("schedule submitted")
	writeJSON(w, http.StatusCreated, dto)
}

// distribute runs the core distributor against the current worklog
// snapshot. The seed is the request's when given, otherwise wall-clock
// derived (and returned so the caller can reproduce the result).
func (h *Handler) distribute(r *http.Request, req ScheduleRequest) (planning.DistributionResult, int64, error) {
	from, _ := planning.ParseDate(req.From) // validated upstream
	to, _ := planning.ParseDate(req.To)

	seed := h.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	existing, err := h.Source.WorklogsInRange(r.Context(), from, to)
	if err != nil {
		return planning.DistributionResult{}, seed, fmt.Errorf("fetch worklogs: %w", err)
	}

	in := planning.DistributionInput{
		From:     from,
		To:       to,
		Existing: tracker.ExistingWorklogs(existing),
		Seed:     seed,
	}
	for _, a := range req.Assignments {
		in.Assignments = append(in.Assignments, planning.Assignment{
			AccountID:  a.AccountID,
			WorkItemID: a.WorkItemID,
			TotalHours: decimal.NewFromFloat(a.TotalHours),
		})
	}

	start := time.Now()
	result, err := planning.Distribute(in)
	if err != nil {
		return planning.DistributionResult{}, seed, err
	}
	metrics.DistributionDurationSeconds.Observe(time.Since(start).Seconds())
	metrics.AssignmentsPerRun.Observe(float64(len(in.Assignments)))
	metrics.ObserveEntries(len(result.Schedule), countOverflow(result.Schedule))
	return result, seed, nil
}

func (h *Handler) recordRun(r *http.Request, kind, runID string, req ScheduleRequest, result planning.DistributionResult, seed int64) error {
	from, _ := planning.ParseDate(req.From)
	to, _ := planning.ParseDate(req.To)
	params, _ := json.Marshal(req)

	return h.Store.SaveRun(r.Context(), sqlite.PlanRun{
		ID:            runID,
		Kind:          kind,
		Period:        planning.PeriodFor(from).String(),
		Seed:          seed,
		From:          from,
		To:            to,
		ParamsJSON:    string(params),
		EntryCount:    len(result.Schedule),
		OverflowCount: countOverflow(result.Schedule),
		// Schedule requests carry hours, not billing rates, so there is
		// no revenue figure to record; only allocation-bearing runs
		// (kind "scheduled") populate AchievedRevenue.
		AchievedRevenue: decimal.Zero,
	})
}

func countOverflow(entries []planning.ScheduleEntry) int {
	n := 0
	for _, e := range entries {
		if e.Overflow {
			n++
		}
	}
	return n
}

// =============================================================================
// SETTINGS
// =============================================================================

// GetSettings returns a billing period's stored configuration.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	period, err := planning.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period (use YYYY-MM)", err)
		return
	}

	settings, err := h.Store.GetSettings(r.Context(), period)
	if err != nil {
		if errors.Is(err, planning.ErrPeriodNotFound) {
			writeError(w, http.StatusNotFound, "No settings for period", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

// PutSettings upserts a billing period's target and roles.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	period, err := planning.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period (use YYYY-MM)", err)
		return
	}

	var req SettingsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	settings := sqlite.PeriodSettings{
		Period:        period,
		TargetRevenue: decimal.NewFromFloat(req.TargetRevenue),
	}
	for _, role := range req.Roles {
		settings.Roles = append(settings.Roles, role.toInput())
	}

	if err := h.Store.SaveSettings(r.Context(), settings); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	h.Log.Info().Str("period", period.String()).Msg("period settings updated")
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

func toSettingsDTO(settings sqlite.PeriodSettings) SettingsDTO {
	dto := SettingsDTO{
		Period:        settings.Period.String(),
		TargetRevenue: settings.TargetRevenue.InexactFloat64(),
	}
	if !settings.UpdatedAt.IsZero() {
		dto.UpdatedAt = settings.UpdatedAt.Format(time.RFC3339)
	}
	for _, role := range settings.Roles {
		dto.Roles = append(dto.Roles, RoleConfigDTO{
			RoleID:      role.RoleID,
			RoleName:    role.RoleName,
			BillingRate: role.BillingRate.InexactFloat64(),
			MemberCount: role.MemberCount,
		})
	}
	return dto
}

// =============================================================================
// AUDIT RUNS
// =============================================================================

// ListRuns returns recent plan runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns a single plan run.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load run", err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run))
}

func toRunDTO(run sqlite.PlanRun) RunDTO {
	return RunDTO{
		ID:              run.ID,
		Kind:            run.Kind,
		Period:          run.Period,
		Seed:            run.Seed,
		From:            run.From.String(),
		To:              run.To.String(),
		EntryCount:      run.EntryCount,
		OverflowCount:   run.OverflowCount,
		AchievedRevenue: run.AchievedRevenue.InexactFloat64(),
		CreatedAt:       run.CreatedAt.Format(time.RFC3339),
	}
}

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

type validatable interface {
	Validate() error
}

// decodeAndValidate decodes the JSON body into req and runs its
// validation, writing a 400 and returning false on any failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req validatable) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := req.Validate(); err != nil {
		resp := ErrorResponse{Error: "Validation failed"}
		var fields ValidationErrors
		if errors.As(err, &fields) {
			resp.Fields = fields
		} else {
			resp.Details = err.Error()
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return false
	}
	return true
}

func writeDistributionError(w http.ResponseWriter, err error) {
	if planning.IsClientError(err) {
		writeError(w, http.StatusBadRequest, "Cannot distribute over this range", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "Distribution failed", err)
}

func outcomeOf(err error) string {
	if planning.IsClientError(err) {
		return "invalid"
	}
	return "error"
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

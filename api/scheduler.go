/*
scheduler.go - Background allocation recalculation

PURPOSE:
  Periodically recomputes the current billing period's hour allocation
  from the stored settings and the hours already logged, and records
  the result as an audit run. This keeps the "how far are we from
  target" view fresh without anyone pressing a button.

DESIGN:
  - Cron-driven (robfig/cron), spec comes from config (default nightly)
  - Each tick: load current period settings, price logged hours by
    role rate, allocate the remaining revenue gap, record a run
  - Periods without settings are skipped quietly
  - Recorded runs are kind "scheduled" so the UI can tell them apart
    from user-triggered previews and submits

USAGE:
  sched := NewPlanScheduler(store, team, log, cfg.RecalcCron)
  sched.Start()
  // ... later
  sched.Stop()

SEE ALSO:
  - handlers.go: Manual allocation preview endpoint
  - store/sqlite: Run persistence
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/worklog-engine/metrics"
	"github.com/warp/worklog-engine/planning"
	"github.com/warp/worklog-engine/store/sqlite"
	"github.com/warp/worklog-engine/tracker"
)

// PlanScheduler recomputes the current period's allocation on a cron
// schedule.
type PlanScheduler struct {
	Store *sqlite.Store

	// Team maps accounts to roles so logged hours can be priced.
	// Optional: without it, logged hours are priced at zero and the
	// allocation covers the full period target.
	Team tracker.TeamSource

	Log  zerolog.Logger
	Spec string

	// Today is injectable for tests.
	Today func() planning.Date

	c *cron.Cron
}

// NewPlanScheduler creates a scheduler; spec is a standard 5-field
// cron expression.
func NewPlanScheduler(store *sqlite.Store, team tracker.TeamSource, log zerolog.Logger, spec string) *PlanScheduler {
	return &PlanScheduler{
		Store: store,
		Team:  team,
		Log:   log,
		Spec:  spec,
		Today: planning.Today,
	}
}

// Start registers the cron job and begins ticking.
func (ps *PlanScheduler) Start() error {
	ps.c = cron.New()
	if _, err := ps.c.AddFunc(ps.Spec, func() { ps.RunOnce(context.Background()) }); err != nil {
		return err
	}
	ps.c.Start()
	ps.Log.Info().Str("spec", ps.Spec).Msg("plan scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (ps *PlanScheduler) Stop() {
	if ps.c == nil {
		return
	}
	<-ps.c.Stop().Done()
	ps.Log.Info().Msg("plan scheduler stopped")
}

// RunOnce performs a single recalculation pass. Exposed so tests and
// admin tooling can trigger it directly.
func (ps *PlanScheduler) RunOnce(ctx context.Context) {
	period := planning.PeriodFor(ps.Today())

	settings, err := ps.Store.GetSettings(ctx, period)
	if err != nil {
		if errors.Is(err, planning.ErrPeriodNotFound) {
			ps.Log.Debug().Str("period", period.String()).Msg("no settings for period, skipping recalc")
			return
		}
		ps.Log.Error().Err(err).Msg("recalc: failed to load settings")
		metrics.PlanRunsTotal.WithLabelValues(sqlite.RunKindScheduled, "error").Inc()
		return
	}

	billed, err := ps.billedToDate(ctx, period, settings.Roles)
	if err != nil {
		ps.Log.Error().Err(err).Msg("recalc: failed to price logged hours")
		metrics.PlanRunsTotal.WithLabelValues(sqlite.RunKindScheduled, "error").Inc()
		return
	}

	start := time.Now()
	result := planning.Allocate(planning.AllocationInput{
		TargetRevenue:  settings.TargetRevenue,
		CurrentRevenue: billed,
		Roles:          settings.Roles,
	})
	metrics.AllocationDurationSeconds.Observe(time.Since(start).Seconds())

	params, _ := json.Marshal(map[string]any{
		"target_revenue":  settings.TargetRevenue,
		"billed_revenue":  billed,
		"hours_remaining": result,
	})
	run := sqlite.PlanRun{
		ID:              uuid.NewString(),
		Kind:            sqlite.RunKindScheduled,
		Period:          period.String(),
		From:            period.Start(),
		To:              period.End(),
		ParamsJSON: string(params),
		// Allocate's AchievedRevenue already includes CurrentRevenue
		// (the billed figure), so it is recorded as-is.
		AchievedRevenue: result.AchievedRevenue,
	}
	if err := ps.Store.SaveRun(ctx, run); err != nil {
		ps.Log.Error().Err(err).Msg("recalc: failed to record run")
		metrics.PlanRunsTotal.WithLabelValues(sqlite.RunKindScheduled, "error").Inc()
		return
	}

	metrics.PlanRunsTotal.WithLabelValues(sqlite.RunKindScheduled, "ok").Inc()
	ps.Log.Info().
		Str("period", period.String()).
		Str("billed", billed.String()).
		Str("gap", result.TotalDeltaRevenue.String()).
		Msg("allocation recalculated")
}

// billedToDate prices the period's logged hours at each account's role
// rate. Hours from accounts with no known role are priced at zero.
func (ps *PlanScheduler) billedToDate(ctx context.Context, period planning.Period, roles []planning.RoleInput) (decimal.Decimal, error) {
	logs, err := ps.Store.WorklogsInRange(ctx, period.Start(), period.End())
	if err != nil {
		return decimal.Zero, err
	}
	if len(logs) == 0 || ps.Team == nil {
		return decimal.Zero, nil
	}

	members, err := ps.Team.ListMembers(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	rateByRole := make(map[string]decimal.Decimal, len(roles))
	for _, r := range roles {
		rateByRole[r.RoleID] = r.BillingRate
	}
	rateByAccount := make(map[string]decimal.Decimal, len(members))
	for _, m := range members {
		rateByAccount[m.AccountID] = rateByRole[m.RoleID]
	}

	billed := decimal.Zero
	for _, wl := range logs {
		billed = billed.Add(wl.Hours.Mul(rateByAccount[wl.AccountID]))
	}
	return billed, nil
}

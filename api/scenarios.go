/*
scenarios.go - Demo data loader for testing and demonstrations

PURPOSE:

	Populates the store and team source with realistic data so the API
	can be exercised against something that looks like a real month:
	a revenue target, two billing roles, a small team, and a backlog
	of weighted work items.

USAGE:

	Started via the -demo flag on the server binary. Only use in
	development/demo environments; seeding overwrites the current
	period's settings.

SEE ALSO:
  - handlers.go: Endpoints the demo data feeds
  - cmd/server/main.go: -demo flag wiring
*/
package api

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/worklog-engine/planning"
	"github.com/warp/worklog-engine/store/sqlite"
	"github.com/warp/worklog-engine/tracker"
)

// SeedDemo installs a sample billing period and team roster: a senior
// and a junior role against a monthly target, each member holding a
// handful of weighted work items.
func SeedDemo(ctx context.Context, store *sqlite.Store, team *tracker.Memory, log zerolog.Logger) error {
	period := planning.PeriodFor(planning.Today())

	settings := sqlite.PeriodSettings{
		Period:        period,
		TargetRevenue: decimal.NewFromInt(48000),
		Roles: []planning.RoleInput{
			{RoleID: "senior", RoleName: "Senior Engineer", BillingRate: decimal.NewFromInt(120), MemberCount: 2},
			{RoleID: "junior", RoleName: "Junior Engineer", BillingRate: decimal.NewFromInt(65), MemberCount: 3},
		},
	}
	if err := store.SaveSettings(ctx, settings); err != nil {
		return err
	}

	team.SeedMembers([]tracker.TeamMember{
		{AccountID: "acc-ada", DisplayName: "Ada", RoleID: "senior"},
		{AccountID: "acc-grace", DisplayName: "Grace", RoleID: "senior"},
		{AccountID: "acc-alan", DisplayName: "Alan", RoleID: "junior"},
		{AccountID: "acc-edsger", DisplayName: "Edsger", RoleID: "junior"},
		{AccountID: "acc-barbara", DisplayName: "Barbara", RoleID: "junior"},
	})
	team.SeedWorkItems([]tracker.WorkItem{
		{ID: 101, Key: "CORE-101", Summary: "Billing export pipeline", Complexity: decimal.NewFromInt(3)},
		{ID: 102, Key: "CORE-102", Summary: "Invoice rounding fixes", Complexity: decimal.NewFromInt(1)},
		{ID: 103, Key: "CORE-103", Summary: "Rate card migration", Complexity: decimal.NewFromInt(2)},
		{ID: 104, Key: "CORE-104", Summary: "Timesheet review UI", Complexity: decimal.NewFromInt(2)},
		{ID: 105, Key: "CORE-105", Summary: "Client portal SSO", Complexity: decimal.NewFromInt(5)},
	})

	log.Info().Str("period", period.String()).Msg("demo data seeded")
	return nil
}

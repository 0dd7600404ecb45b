package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/worklog-engine/planning"
	"github.com/warp/worklog-engine/store/sqlite"
	"github.com/warp/worklog-engine/tracker"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// =============================================================================
// PERIOD SETTINGS
// =============================================================================

func TestSettings_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	period := planning.Period{Year: 2025, Month: time.March}
	settings := sqlite.PeriodSettings{
		Period:        period,
		TargetRevenue: dec(42000.50),
		Roles: []planning.RoleInput{
			{RoleID: "dev", RoleName: "Developer", BillingRate: dec(110), MemberCount: 3},
			{RoleID: "qa", RoleName: "QA", BillingRate: dec(85.5), MemberCount: 1},
		},
	}
	require.NoError(t, store.SaveSettings(ctx, settings))

	loaded, err := store.GetSettings(ctx, period)
	require.NoError(t, err)
	assert.True(t, loaded.TargetRevenue.Equal(dec(42000.50)))
	require.Len(t, loaded.Roles, 2)
	assert.Equal(t, "dev", loaded.Roles[0].RoleID)
	assert.True(t, loaded.Roles[1].BillingRate.Equal(dec(85.5)))
	assert.Equal(t, 1, loaded.Roles[1].MemberCount)
}

func TestSettings_Upsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	period := planning.Period{Year: 2025, Month: time.March}

	require.NoError(t, store.SaveSettings(ctx, sqlite.PeriodSettings{
		Period: period, TargetRevenue: dec(1000),
	}))
	require.NoError(t, store.SaveSettings(ctx, sqlite.PeriodSettings{
		Period: period, TargetRevenue: dec(2000),
	}))

	loaded, err := store.GetSettings(ctx, period)
	require.NoError(t, err)
	assert.True(t, loaded.TargetRevenue.Equal(dec(2000)))
}

func TestSettings_MissingPeriod(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetSettings(context.Background(), planning.Period{Year: 1999, Month: time.May})
	assert.True(t, errors.Is(err, planning.ErrPeriodNotFound))
}

// =============================================================================
// PLAN RUNS
// =============================================================================

func TestRuns_SaveListGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	base := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, store.SaveRun(ctx, sqlite.PlanRun{
			ID:              id,
			Kind:            sqlite.RunKindPreview,
			Period:          "2025-03",
			Seed:            42,
			From:            planning.NewDate(2025, time.March, 3),
			To:              planning.NewDate(2025, time.March, 28),
			EntryCount:      5,
			OverflowCount:   1,
			AchievedRevenue: dec(9500),
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].ID, "newest first")
	assert.Equal(t, "run-2", runs[1].ID)

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, int64(42), run.Seed)
	assert.Equal(t, 1, run.OverflowCount)
	assert.True(t, run.AchievedRevenue.Equal(dec(9500)))
	assert.Equal(t, "2025-03-03", run.From.String())

	missing, err := store.GetRun(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// =============================================================================
// WORKLOGS
// =============================================================================

func TestWorklogs_RoundTripThroughTrackerInterfaces(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// The store must satisfy the tracker boundary.
	var _ tracker.WorklogSource = store
	var _ tracker.WorklogWriter = store

	logs := []tracker.Worklog{
		{ID: "wl-1", AccountID: "A", WorkItemID: 7, Date: planning.NewDate(2025, time.March, 3), Hours: dec(4.5)},
		{ID: "wl-2", AccountID: "B", WorkItemID: 7, Date: planning.NewDate(2025, time.March, 4), Hours: dec(8), Overflow: true},
		{ID: "wl-3", AccountID: "A", WorkItemID: 9, Date: planning.NewDate(2025, time.April, 1), Hours: dec(2)},
	}
	require.NoError(t, store.SaveRunWorklogs(ctx, "run-1", logs))

	march, err := store.WorklogsInRange(ctx,
		planning.NewDate(2025, time.March, 1), planning.NewDate(2025, time.March, 31))
	require.NoError(t, err)
	require.Len(t, march, 2)
	assert.Equal(t, "A", march[0].AccountID)
	assert.True(t, march[0].Hours.Equal(dec(4.5)))
	assert.False(t, march[0].Overflow)
	assert.True(t, march[1].Overflow)
}

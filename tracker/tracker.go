/*
Package tracker defines the boundary to the external time-tracking system.

PURPOSE:
  The planning engine never talks to Jira/Tempo-style APIs directly. It
  consumes read-only snapshots of worklogs, team members and work items
  through the interfaces in this package, and hands finished schedules to
  a WorklogWriter. Real API clients live outside this repository; this
  package ships an in-memory implementation for tests and local runs,
  and store/sqlite implements the same interfaces for persistence.

KEY CONCEPTS:
  - Worklog: hours logged by a member against a work item on a date
  - TeamMember: a participating person, tagged with a role
  - WorkItem: a billable issue with a user-supplied complexity weight

SEE ALSO:
  - memory.go: In-memory implementation (tests, demo seeding)
  - store/sqlite: Persisted implementation
*/
package tracker

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/worklog-engine/planning"
)

// Worklog is one logged (or to-be-logged) block of hours.
type Worklog struct {
	ID         string
	AccountID  string
	WorkItemID int64
	Date       planning.Date
	Hours      decimal.Decimal
	Overflow   bool
}

// TeamMember is a participating person.
type TeamMember struct {
	AccountID   string
	DisplayName string
	RoleID      string
}

// WorkItem is a billable issue. Complexity is the user-supplied weight
// used when spreading a member's quota across their items.
type WorkItem struct {
	ID         int64
	Key        string
	Summary    string
	Complexity decimal.Decimal
}

// WorklogSource provides read-only worklog snapshots.
type WorklogSource interface {
	// WorklogsInRange returns all worklogs with dates in [from, to].
	WorklogsInRange(ctx context.Context, from, to planning.Date) ([]Worklog, error)
}

// WorklogWriter accepts finished schedule entries.
type WorklogWriter interface {
	CreateWorklogs(ctx context.Context, logs []Worklog) error
}

// TeamSource lists participating members.
type TeamSource interface {
	ListMembers(ctx context.Context) ([]TeamMember, error)
}

// WorkItemSource lists billable work items.
type WorkItemSource interface {
	ListWorkItems(ctx context.Context) ([]WorkItem, error)
}

// ExistingWorklogs converts a worklog snapshot into the shape the
// distributor's capacity map consumes.
func ExistingWorklogs(logs []Worklog) []planning.ExistingWorklog {
	existing := make([]planning.ExistingWorklog, len(logs))
	for i, wl := range logs {
		existing[i] = planning.ExistingWorklog{
			AccountID: wl.AccountID,
			Date:      wl.Date,
			Hours:     wl.Hours,
		}
	}
	return existing
}

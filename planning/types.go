/*
Package planning provides the core planning engine.

PURPOSE:
  This package contains the two pure computations at the heart of the
  system: the hour allocator, which converts a revenue shortfall into
  per-role hour quotas, and the calendar distributor, which spreads those
  hours across working days without exceeding the daily capacity cap.

KEY CONCEPTS IN THIS FILE (types.go):
  - RoleInput/RoleResult: A role's participation in closing a revenue gap
  - Assignment: Hours to schedule for one (member, work item) pair
  - ExistingWorklog: Hours already committed for a member on a date
  - ScheduleEntry: One day's worth of scheduled hours (the output unit)

DESIGN PRINCIPLES:
  1. Purity: Every computation takes all inputs explicitly and holds no
     process-wide state. Two calls with the same inputs and seed produce
     identical output.
  2. Precision: Uses decimal.Decimal so half-hour snapping and revenue
     math never drift.
  3. Graceful degradation: Numeric edge cases (zero rates, zero members,
     negative deltas) resolve to zero-valued results, never panics.

USAGE:
  result := planning.Allocate(planning.AllocationInput{
      TargetRevenue:  decimal.NewFromInt(10000),
      CurrentRevenue: decimal.NewFromInt(8000),
      Roles: []planning.RoleInput{
          {RoleID: "dev", BillingRate: decimal.NewFromInt(100), MemberCount: 2},
      },
  })

SEE ALSO:
  - allocator.go: Revenue-to-hours allocation with reconciliation
  - distributor.go: Capacity-aware day-by-day scheduling
  - calendar.go: Date and billing-period helpers
  - rand.go: Seedable generator driving the distributor's choices
*/
package planning

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ALLOCATION TYPES
// =============================================================================

// RoleInput describes one role's participation in the revenue-gap effort.
type RoleInput struct {
	RoleID      string
	RoleName    string
	BillingRate decimal.Decimal // currency per hour, >= 0
	MemberCount int             // >= 0
}

// Weight returns the role's revenue-generating weight (rate x members).
func (r RoleInput) Weight() decimal.Decimal {
	return r.BillingRate.Mul(decimal.NewFromInt(int64(r.MemberCount)))
}

// RoleResult extends RoleInput with the computed hour quota.
type RoleResult struct {
	RoleInput
	HoursPerMember      decimal.Decimal // half-hour multiple, >= 0
	TotalHours          decimal.Decimal // HoursPerMember x MemberCount
	RevenueContribution decimal.Decimal // TotalHours x BillingRate
}

// recompute refreshes the derived fields after HoursPerMember changes.
func (r *RoleResult) recompute() {
	r.TotalHours = r.HoursPerMember.Mul(decimal.NewFromInt(int64(r.MemberCount)))
	r.RevenueContribution = r.TotalHours.Mul(r.BillingRate)
}

// AllocationInput carries the revenue figures and role configs.
type AllocationInput struct {
	TargetRevenue  decimal.Decimal
	CurrentRevenue decimal.Decimal
	Roles          []RoleInput
}

// AllocationResult is the allocator's output. TotalDeltaRevenue is the
// revenue the computed hours actually generate; AchievedRevenue is
// CurrentRevenue plus that delta.
type AllocationResult struct {
	Roles             []RoleResult
	TotalDeltaRevenue decimal.Decimal
	AchievedRevenue   decimal.Decimal
}

// =============================================================================
// DISTRIBUTION TYPES
// =============================================================================

// Assignment asks the distributor to schedule TotalHours for one
// (member, work item) pair. TotalHours is a target, not a guarantee: it
// rounds to the nearest half hour before placement, and beyond that the
// distributor deviates only via the explicit overflow path.
type Assignment struct {
	AccountID  string
	WorkItemID int64
	TotalHours decimal.Decimal
}

// ExistingWorklog represents hours already committed for a member on a
// date. Read-only input; used only to compute remaining daily capacity.
type ExistingWorklog struct {
	AccountID string
	Date      Date
	Hours     decimal.Decimal
}

// ScheduleEntry is the distributor's output unit: hours actually placed
// on one business day for one (member, work item) pair. Overflow marks
// hours scheduled in violation of the daily cap, used only when every
// day in range is already fully booked.
type ScheduleEntry struct {
	AccountID  string
	WorkItemID int64
	Date       Date
	Hours      decimal.Decimal // half-hour multiple, > 0
	Overflow   bool
}

// DistributionInput carries everything a distribution run needs. Seed
// drives the deterministic generator: same seed and inputs, same output.
type DistributionInput struct {
	Assignments []Assignment
	From        Date
	To          Date
	Existing    []ExistingWorklog
	Seed        int64
}

// DistributionResult holds the per-day schedule.
//
// Entries appear in assignment order: each assignment is processed
// independently and sees capacity already consumed by earlier ones.
// Callers needing fairness across assignments should pre-shuffle the
// assignment list themselves.
type DistributionResult struct {
	Schedule []ScheduleEntry
}

// =============================================================================
// HALF-HOUR SNAPPING
// =============================================================================

var (
	two      = decimal.NewFromInt(2)
	oneHour  = decimal.NewFromInt(1)
	dailyCap = decimal.NewFromInt(8)
	halfHour = decimal.New(5, -1)
)

// SnapToHalf rounds to the nearest 0.5 increment, half away from zero:
// 0.25 -> 0.5, 0.75 -> 1.0, -0.25 -> -0.5.
func SnapToHalf(d decimal.Decimal) decimal.Decimal {
	return d.Mul(two).Round(0).Div(two)
}

// floorToHalf rounds down to a 0.5 increment. Used when capping against
// remaining capacity so snapping never rounds above the cap.
func floorToHalf(d decimal.Decimal) decimal.Decimal {
	return d.Mul(two).RoundFloor(0).Div(two)
}

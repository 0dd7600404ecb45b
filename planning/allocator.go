/*
allocator.go - Revenue-to-hours allocation

PURPOSE:
  Converts a revenue delta (target minus current) plus a set of roles into
  per-role, per-member hour quotas snapped to half-hour units.

ALGORITHM:
  1. Split the delta across roles proportionally to their weight
     (billing rate x member count).
  2. Convert each role's revenue share back into hours and snap twice:
     once for the role total, once per member.
  3. Reconcile: per-role snapping drifts from the exact target, so a
     greedy local search tries +/-0.5h per member across all paid roles
     and applies whichever single step most reduces the error, repeating
     until no step improves. Bounded steps keep this cheap; a global
     optimum is not needed because deltas are typically a few steps.

EDGE SEMANTICS:
  No error conditions. Zero total weight, zero rates, zero members,
  empty role lists and negative deltas all degrade to zero-valued
  results rather than failing.
*/
package planning

import (
	"github.com/shopspring/decimal"
)

// Allocate converts a revenue delta into per-role hour quotas.
func Allocate(in AllocationInput) AllocationResult {
	delta := in.TargetRevenue.Sub(in.CurrentRevenue)

	totalWeight := decimal.Zero
	for _, role := range in.Roles {
		totalWeight = totalWeight.Add(role.Weight())
	}

	results := make([]RoleResult, len(in.Roles))
	for i, role := range in.Roles {
		results[i] = allocateRole(role, delta, totalWeight)
	}

	reconcile(results, delta)

	achievedDelta := decimal.Zero
	for _, r := range results {
		achievedDelta = achievedDelta.Add(r.RevenueContribution)
	}

	return AllocationResult{
		Roles:             results,
		TotalDeltaRevenue: achievedDelta,
		AchievedRevenue:   in.CurrentRevenue.Add(achievedDelta),
	}
}

// allocateRole computes the initial proportional quota for one role.
func allocateRole(role RoleInput, delta, totalWeight decimal.Decimal) RoleResult {
	result := RoleResult{RoleInput: role}

	// Unpaid roles and a zero-weight pool get no hours. This also avoids
	// dividing by zero.
	if totalWeight.IsZero() || !role.BillingRate.IsPositive() || role.MemberCount <= 0 {
		result.recompute()
		return result
	}

	share := delta.Mul(role.Weight()).Div(totalWeight)
	rawTotal := share.Div(role.BillingRate)
	roundedTotal := SnapToHalf(rawTotal)
	perMember := SnapToHalf(roundedTotal.Div(decimal.NewFromInt(int64(role.MemberCount))))

	// Negative deltas yield negative raw hours; quotas are never negative.
	if perMember.IsNegative() {
		perMember = decimal.Zero
	}

	result.HoursPerMember = perMember
	result.recompute()
	return result
}

// reconcile greedily searches for the single half-hour-per-member step
// (up or down, across all paid roles) that most reduces the gap between
// achieved and requested delta revenue, applies it, and repeats until no
// step improves. Quotas never go negative.
func reconcile(roles []RoleResult, targetDelta decimal.Decimal) {
	steps := []decimal.Decimal{halfHour, halfHour.Neg()}

	for {
		achieved := decimal.Zero
		for _, r := range roles {
			achieved = achieved.Add(r.RevenueContribution)
		}
		bestErr := achieved.Sub(targetDelta).Abs()

		bestRole := -1
		var bestStep decimal.Decimal
		for i, r := range roles {
			if !r.BillingRate.IsPositive() || r.MemberCount <= 0 {
				continue
			}
			// Revenue change per half-hour step for this role.
			stepRevenue := r.Weight().Mul(halfHour)
			for _, step := range steps {
				if r.HoursPerMember.Add(step).IsNegative() {
					continue
				}
				adjusted := achieved
				if step.IsPositive() {
					adjusted = adjusted.Add(stepRevenue)
				} else {
					adjusted = adjusted.Sub(stepRevenue)
				}
				err := adjusted.Sub(targetDelta).Abs()
				if err.LessThan(bestErr) {
					bestErr = err
					bestRole = i
					bestStep = step
				}
			}
		}

		if bestRole < 0 {
			return
		}
		roles[bestRole].HoursPerMember = roles[bestRole].HoursPerMember.Add(bestStep)
		roles[bestRole].recompute()
	}
}

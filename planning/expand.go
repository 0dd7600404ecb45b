package planning

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ASSIGNMENT EXPANSION - Role quotas to per-member, per-work-item targets
// =============================================================================

// WeightedItem is one work item a member should log against, with a
// user-supplied complexity weight. Non-positive weights count as 1.
type WeightedItem struct {
	WorkItemID int64
	Weight     decimal.Decimal
}

// MemberWorkItems lists the work items one member will spread their role
// quota across.
type MemberWorkItems struct {
	AccountID string
	RoleID    string
	Items     []WeightedItem
}

// ExpandAssignments turns per-role quotas into the flat assignment list
// the distributor consumes. Each member's HoursPerMember is split across
// their work items proportionally to complexity weight, half-hour
// snapped, with the rounding remainder folded into the heaviest item so
// the member's total is preserved exactly.
func ExpandAssignments(roles []RoleResult, members []MemberWorkItems) []Assignment {
	quotas := make(map[string]decimal.Decimal, len(roles))
	for _, r := range roles {
		quotas[r.RoleID] = r.HoursPerMember
	}

	var assignments []Assignment
	for _, m := range members {
		quota, ok := quotas[m.RoleID]
		if !ok || !quota.IsPositive() || len(m.Items) == 0 {
			continue
		}

		weights := make([]decimal.Decimal, len(m.Items))
		totalWeight := decimal.Zero
		heaviest := 0
		for i, item := range m.Items {
			w := item.Weight
			if !w.IsPositive() {
				w = decimal.NewFromInt(1)
			}
			weights[i] = w
			totalWeight = totalWeight.Add(w)
			if w.GreaterThan(weights[heaviest]) {
				heaviest = i
			}
		}

		// Snap every item except the heaviest, which absorbs the
		// remainder so the snapped parts still sum to the quota.
		allocated := decimal.Zero
		hours := make([]decimal.Decimal, len(m.Items))
		for i := range m.Items {
			if i == heaviest {
				continue
			}
			h := SnapToHalf(quota.Mul(weights[i]).Div(totalWeight))
			hours[i] = h
			allocated = allocated.Add(h)
		}
		rest := quota.Sub(allocated)
		if rest.IsNegative() {
			rest = decimal.Zero
		}
		hours[heaviest] = rest

		for i, item := range m.Items {
			if !hours[i].IsPositive() {
				continue
			}
			assignments = append(assignments, Assignment{
				AccountID:  m.AccountID,
				WorkItemID: item.WorkItemID,
				TotalHours: hours[i],
			})
		}
	}
	return assignments
}

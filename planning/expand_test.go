package planning_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/worklog-engine/planning"
)

func weightedItem(id int64, weight float64) planning.WeightedItem {
	return planning.WeightedItem{WorkItemID: id, Weight: dec(weight)}
}

func TestExpandAssignments_SplitsByComplexity(t *testing.T) {
	// GIVEN: a member with 10h quota across items weighted 3:1
	// THEN: 7.5h and 2.5h, snapped, summing exactly to the quota

	roles := []planning.RoleResult{{
		RoleInput:      planning.RoleInput{RoleID: "dev", BillingRate: dec(100), MemberCount: 1},
		HoursPerMember: dec(10),
	}}
	members := []planning.MemberWorkItems{{
		AccountID: "A",
		RoleID:    "dev",
		Items:     []planning.WeightedItem{weightedItem(1, 3), weightedItem(2, 1)},
	}}

	assignments := planning.ExpandAssignments(roles, members)
	if len(assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(assignments))
	}

	byItem := make(map[int64]decimal.Decimal)
	total := decimal.Zero
	for _, a := range assignments {
		byItem[a.WorkItemID] = a.TotalHours
		total = total.Add(a.TotalHours)
		if !isHalfMultiple(a.TotalHours) {
			t.Errorf("item %d: %v not half-hour snapped", a.WorkItemID, a.TotalHours)
		}
	}
	if !byItem[2].Equal(dec(2.5)) {
		t.Errorf("light item got %v, want 2.5", byItem[2])
	}
	if !byItem[1].Equal(dec(7.5)) {
		t.Errorf("heavy item got %v, want 7.5", byItem[1])
	}
	if !total.Equal(dec(10)) {
		t.Errorf("member total %v, want 10", total)
	}
}

func TestExpandAssignments_RemainderFoldsIntoHeaviest(t *testing.T) {
	// 9.5h over weights 1:1:1 cannot split evenly in half-hour units; the
	// heaviest (here: first) item absorbs the rounding remainder.
	roles := []planning.RoleResult{{
		RoleInput:      planning.RoleInput{RoleID: "dev", BillingRate: dec(100), MemberCount: 3},
		HoursPerMember: dec(9.5),
	}}
	members := []planning.MemberWorkItems{{
		AccountID: "A",
		RoleID:    "dev",
		Items: []planning.WeightedItem{
			weightedItem(1, 1), weightedItem(2, 1), weightedItem(3, 1),
		},
	}}

	assignments := planning.ExpandAssignments(roles, members)
	total := decimal.Zero
	for _, a := range assignments {
		total = total.Add(a.TotalHours)
		if !isHalfMultiple(a.TotalHours) {
			t.Errorf("item %d: %v not half-hour snapped", a.WorkItemID, a.TotalHours)
		}
	}
	if !total.Equal(dec(9.5)) {
		t.Errorf("member total %v, want 9.5", total)
	}
}

func TestExpandAssignments_SkipsUnmatchedAndIdleMembers(t *testing.T) {
	roles := []planning.RoleResult{
		{RoleInput: planning.RoleInput{RoleID: "dev"}, HoursPerMember: dec(0)},
	}
	members := []planning.MemberWorkItems{
		{AccountID: "A", RoleID: "dev", Items: []planning.WeightedItem{weightedItem(1, 1)}},
		{AccountID: "B", RoleID: "unknown", Items: []planning.WeightedItem{weightedItem(2, 1)}},
		{AccountID: "C", RoleID: "dev"},
	}
	if got := planning.ExpandAssignments(roles, members); len(got) != 0 {
		t.Errorf("expected no assignments, got %d", len(got))
	}
}

func TestExpandAssignments_NonPositiveWeightsCountAsOne(t *testing.T) {
	roles := []planning.RoleResult{{
		RoleInput:      planning.RoleInput{RoleID: "dev"},
		HoursPerMember: dec(4),
	}}
	members := []planning.MemberWorkItems{{
		AccountID: "A",
		RoleID:    "dev",
		Items:     []planning.WeightedItem{weightedItem(1, 0), weightedItem(2, -3)},
	}}

	assignments := planning.ExpandAssignments(roles, members)
	total := decimal.Zero
	for _, a := range assignments {
		total = total.Add(a.TotalHours)
	}
	if !total.Equal(dec(4)) {
		t.Errorf("member total %v, want 4", total)
	}
	if len(assignments) != 2 {
		t.Errorf("expected an even 2/2 split, got %d assignments", len(assignments))
	}
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types validate themselves via a Validate() method returning a
  field-level error list. Handlers reject invalid bodies with 400 before
  anything reaches the planning core; the core never sees non-finite
  numbers or malformed dates.

SEE ALSO:
  - handlers.go: Uses these types
  - planning: The types these map onto
*/
package api

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/worklog-engine/planning"
)

// =============================================================================
// VALIDATION
// =============================================================================

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors aggregates every invalid field in a request body.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// =============================================================================
// ALLOCATION
// =============================================================================

// RoleConfigDTO is one role's rate and headcount.
type RoleConfigDTO struct {
	RoleID      string  `json:"role_id"`
	RoleName    string  `json:"role_name,omitempty"`
	BillingRate float64 `json:"billing_rate"`
	MemberCount int     `json:"member_count"`
}

func (r RoleConfigDTO) validate(prefix string) ValidationErrors {
	var errs ValidationErrors
	if r.RoleID == "" {
		errs = append(errs, FieldError{prefix + ".role_id", "required"})
	}
	if !finite(r.BillingRate) || r.BillingRate < 0 {
		errs = append(errs, FieldError{prefix + ".billing_rate", "must be a finite number >= 0"})
	}
	if r.MemberCount < 0 {
		errs = append(errs, FieldError{prefix + ".member_count", "must be >= 0"})
	}
	return errs
}

func (r RoleConfigDTO) toInput() planning.RoleInput {
	return planning.RoleInput{
		RoleID:      r.RoleID,
		RoleName:    r.RoleName,
		BillingRate: decimal.NewFromFloat(r.BillingRate),
		MemberCount: r.MemberCount,
	}
}

// AllocationRequest asks for a revenue-to-hours breakdown.
type AllocationRequest struct {
	TargetRevenue  float64         `json:"target_revenue"`
	CurrentRevenue float64         `json:"current_revenue"`
	Roles          []RoleConfigDTO `json:"roles"`
}

func (r AllocationRequest) Validate() error {
	var errs ValidationErrors
	if !finite(r.TargetRevenue) {
		errs = append(errs, FieldError{"target_revenue", "must be a finite number"})
	}
	if !finite(r.CurrentRevenue) {
		errs = append(errs, FieldError{"current_revenue", "must be a finite number"})
	}
	for i, role := range r.Roles {
		errs = append(errs, role.validate(fmt.Sprintf("roles[%d]", i))...)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r AllocationRequest) toInput() planning.AllocationInput {
	in := planning.AllocationInput{
		TargetRevenue:  decimal.NewFromFloat(r.TargetRevenue),
		CurrentRevenue: decimal.NewFromFloat(r.CurrentRevenue),
	}
	for _, role := range r.Roles {
		in.Roles = append(in.Roles, role.toInput())
	}
	return in
}

// RoleResultDTO is one role's computed quota.
type RoleResultDTO struct {
	RoleID              string  `json:"role_id"`
	RoleName            string  `json:"role_name,omitempty"`
	BillingRate         float64 `json:"billing_rate"`
	MemberCount         int     `json:"member_count"`
	HoursPerMember      float64 `json:"hours_per_member"`
	TotalHours          float64 `json:"total_hours"`
	RevenueContribution float64 `json:"revenue_contribution"`
}

// AllocationDTO is the allocator response.
type AllocationDTO struct {
	Roles             []RoleResultDTO `json:"roles"`
	TotalDeltaRevenue float64         `json:"total_delta_revenue"`
	AchievedRevenue   float64         `json:"achieved_revenue"`
}

func toAllocationDTO(result planning.AllocationResult) AllocationDTO {
	dto := AllocationDTO{
		Roles:             make([]RoleResultDTO, len(result.Roles)),
		TotalDeltaRevenue: result.TotalDeltaRevenue.InexactFloat64(),
		AchievedRevenue:   result.AchievedRevenue.InexactFloat64(),
	}
	for i, r := range result.Roles {
		dto.Roles[i] = RoleResultDTO{
			RoleID:              r.RoleID,
			RoleName:            r.RoleName,
			BillingRate:         r.BillingRate.InexactFloat64(),
			MemberCount:         r.MemberCount,
			HoursPerMember:      r.HoursPerMember.InexactFloat64(),
			TotalHours:          r.TotalHours.InexactFloat64(),
			RevenueContribution: r.RevenueContribution.InexactFloat64(),
		}
	}
	return dto
}

// =============================================================================
// SCHEDULING
// =============================================================================

// AssignmentDTO is one (member, work item, hours) target.
type AssignmentDTO struct {
	AccountID  string  `json:"account_id"`
	WorkItemID int64   `json:"work_item_id"`
	TotalHours float64 `json:"total_hours"`
}

// ScheduleRequest asks for a calendar distribution. Seed is optional;
// when omitted the server derives one from the wall clock (and reports
// it back so the result can still be reproduced).
type ScheduleRequest struct {
	Assignments []AssignmentDTO `json:"assignments"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Seed        *int64          `json:"seed,omitempty"`
}

func (r ScheduleRequest) Validate() error {
	var errs ValidationErrors
	if _, err := planning.ParseDate(r.From); err != nil {
		errs = append(errs, FieldError{"from", "must be a YYYY-MM-DD date"})
	}
	if _, err := planning.ParseDate(r.To); err != nil {
		errs = append(errs, FieldError{"to", "must be a YYYY-MM-DD date"})
	}
	if len(r.Assignments) == 0 {
		errs = append(errs, FieldError{"assignments", "at least one assignment is required"})
	}
	for i, a := range r.Assignments {
		if a.AccountID == "" {
			errs = append(errs, FieldError{fmt.Sprintf("assignments[%d].account_id", i), "required"})
		}
		if !finite(a.TotalHours) || a.TotalHours < 0 {
			errs = append(errs, FieldError{fmt.Sprintf("assignments[%d].total_hours", i), "must be a finite number >= 0"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ScheduleEntryDTO is one scheduled block of hours.
type ScheduleEntryDTO struct {
	AccountID  string  `json:"account_id"`
	WorkItemID int64   `json:"work_item_id"`
	Date       string  `json:"date"`
	Hours      float64 `json:"hours"`
	Overflow   bool    `json:"overflow"`
}

// ScheduleDTO is the distribution response. Seed echoes the seed
// actually used so both "reroll" and "reproduce" are possible.
type ScheduleDTO struct {
	RunID         string             `json:"run_id,omitempty"`
	Seed          int64              `json:"seed"`
	Schedule      []ScheduleEntryDTO `json:"schedule"`
	TotalHours    float64            `json:"total_hours"`
	OverflowHours float64            `json:"overflow_hours"`
}

func toScheduleDTO(result planning.DistributionResult, seed int64) ScheduleDTO {
	dto := ScheduleDTO{Seed: seed, Schedule: make([]ScheduleEntryDTO, len(result.Schedule))}
	total := decimal.Zero
	overflow := decimal.Zero
	for i, e := range result.Schedule {
		dto.Schedule[i] = ScheduleEntryDTO{
			AccountID:  e.AccountID,
			WorkItemID: e.WorkItemID,
			Date:       e.Date.String(),
			Hours:      e.Hours.InexactFloat64(),
			Overflow:   e.Overflow,
		}
		total = total.Add(e.Hours)
		if e.Overflow {
			overflow = overflow.Add(e.Hours)
		}
	}
	dto.TotalHours = total.InexactFloat64()
	dto.OverflowHours = overflow.InexactFloat64()
	return dto
}

// =============================================================================
// EXPANSION
// =============================================================================

// WeightedItemDTO is one work item plus complexity weight.
type WeightedItemDTO struct {
	WorkItemID int64   `json:"work_item_id"`
	Weight     float64 `json:"weight"`
}

// MemberItemsDTO lists the work items one member spreads their quota over.
type MemberItemsDTO struct {
	AccountID string            `json:"account_id"`
	RoleID    string            `json:"role_id"`
	Items     []WeightedItemDTO `json:"items"`
}

// ExpandRequest turns an allocation result plus member/item listings
// into the flat assignment list the scheduler endpoints consume.
type ExpandRequest struct {
	Roles   []RoleResultDTO  `json:"roles"`
	Members []MemberItemsDTO `json:"members"`
}

func (r ExpandRequest) Validate() error {
	var errs ValidationErrors
	if len(r.Roles) == 0 {
		errs = append(errs, FieldError{"roles", "at least one role is required"})
	}
	for i, m := range r.Members {
		if m.AccountID == "" {
			errs = append(errs, FieldError{fmt.Sprintf("members[%d].account_id", i), "required"})
		}
		for j, item := range m.Items {
			if !finite(item.Weight) {
				errs = append(errs, FieldError{fmt.Sprintf("members[%d].items[%d].weight", i, j), "must be a finite number"})
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// SETTINGS AND RUNS
// =============================================================================

// SettingsRequest sets a billing period's target and roles.
type SettingsRequest struct {
	TargetRevenue float64         `json:"target_revenue"`
	Roles         []RoleConfigDTO `json:"roles"`
}

func (r SettingsRequest) Validate() error {
	var errs ValidationErrors
	if !finite(r.TargetRevenue) || r.TargetRevenue < 0 {
		errs = append(errs, FieldError{"target_revenue", "must be a finite number >= 0"})
	}
	for i, role := range r.Roles {
		errs = append(errs, role.validate(fmt.Sprintf("roles[%d]", i))...)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SettingsDTO is a period's stored configuration.
type SettingsDTO struct {
	Period        string          `json:"period"`
	TargetRevenue float64         `json:"target_revenue"`
	Roles         []RoleConfigDTO `json:"roles"`
	UpdatedAt     string          `json:"updated_at,omitempty"`
}

// RunDTO is one audit-trail record.
type RunDTO struct {
	ID              string  `json:"id"`
	Kind            string  `json:"kind"`
	Period          string  `json:"period,omitempty"`
	Seed            int64   `json:"seed"`
	From            string  `json:"from"`
	To              string  `json:"to"`
	EntryCount      int     `json:"entry_count"`
	OverflowCount   int     `json:"overflow_count"`
	AchievedRevenue float64 `json:"achieved_revenue"`
	CreatedAt       string  `json:"created_at"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details string       `json:"details,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

/*
distributor.go - Capacity-aware calendar distribution

PURPOSE:
  Takes a flat list of (member, work item, total hours) assignments plus
  a date window and a snapshot of already-logged hours, and produces a
  day-by-day schedule that spreads each assignment across business days
  without exceeding the 8h/day cap per member.

SHAPE OF THE OUTPUT:
  The goal is a human-plausible spread, not an even division. Hours
  cluster into a small number of calendar weeks (biased toward the
  minimum that can absorb them), and each day gets an uneven 20-80%
  slice of what remains. A seeded generator drives every choice, so a
  given seed reproduces the exact same schedule.

PLACEMENT ORDER per assignment:
  1. Days within the randomly selected weeks (chronological).
  2. Remaining good days outside those weeks (random sweep).
  3. Days with under an hour of capacity left (random sweep).
  4. A single overflow entry, the only point where the cap is knowingly
     violated, and only because every day in range is fully booked.

ORDER DEPENDENCE:
  Assignments are processed in list order and each one sees capacity
  consumed by earlier ones. That is load-bearing, documented behavior;
  callers wanting fairness across assignments pre-shuffle the list.
*/
package planning

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Distribute spreads each assignment's hours across the business days in
// [from, to]. It returns ErrInvalidRange when to < from or when the
// range contains no business day at all; every other input resolves to
// a schedule, via the overflow path if need be.
func Distribute(in DistributionInput) (DistributionResult, error) {
	if in.To.Before(in.From) {
		return DistributionResult{}, ErrInvalidRange
	}
	days := BusinessDaysBetween(in.From, in.To)
	if len(days) == 0 {
		return DistributionResult{}, ErrInvalidRange
	}

	caps := newCapacityMap(in.Existing)
	rng := NewRand(in.Seed)

	var schedule []ScheduleEntry
	for _, a := range in.Assignments {
		if !a.TotalHours.IsPositive() {
			continue // no zero-hour rows
		}
		schedule = append(schedule, distributeOne(a, days, caps, rng)...)
	}
	return DistributionResult{Schedule: schedule}, nil
}

// distributeOne places a single assignment, consuming capacity as it goes.
func distributeOne(a Assignment, days []Date, caps capacityMap, rng *Rand) []ScheduleEntry {
	// Entries land on the half-hour grid, so a fractional target rounds
	// to the nearest half hour up front (at most 0.25h deviation from
	// the request). From here on every remainder stays on the grid and
	// the target is only ever exceeded via the overflow path.
	remaining := SnapToHalf(a.TotalHours)
	if !remaining.IsPositive() {
		return nil
	}

	var good, tiny []Date
	for _, d := range days {
		c := caps.remaining(a.AccountID, d)
		switch {
		case c.GreaterThanOrEqual(oneHour):
			good = append(good, d)
		case c.IsPositive():
			tiny = append(tiny, d)
		}
	}

	// Everything booked solid: one overflow entry on the first business
	// day, regardless of that day's actual capacity.
	if len(good) == 0 && len(tiny) == 0 {
		return []ScheduleEntry{{
			AccountID:  a.AccountID,
			WorkItemID: a.WorkItemID,
			Date:       days[0],
			Hours:      remaining,
			Overflow:   true,
		}}
	}

	var entries []ScheduleEntry
	selected := make(map[Date]bool)

	if len(good) > 0 {
		weekDays := selectWeekDays(a, remaining, good, caps, rng)
		for _, d := range weekDays {
			selected[d] = true
		}
		for i, d := range weekDays {
			if !remaining.IsPositive() {
				break
			}
			last := i == len(weekDays)-1
			remaining = placeOnDay(&entries, a, d, remaining, caps, rng, last)
		}
	}

	// Capacity ran out faster than expected: sweep the good days outside
	// the selected weeks in random order.
	if remaining.IsPositive() {
		var others []Date
		for _, d := range good {
			if !selected[d] {
				others = append(others, d)
			}
		}
		remaining = sweepDays(&entries, a, others, remaining, caps, rng)
	}

	// Then the sub-hour days.
	if remaining.IsPositive() {
		remaining = sweepDays(&entries, a, tiny, remaining, caps, rng)
	}

	// Last resort: one overflow entry. Random ordering, first day whose
	// tracked capacity has not been driven negative, else the first
	// business day overall. The remainder is already a half-hour
	// multiple: it started snapped and every placement subtracted one.
	if hours := remaining; hours.IsPositive() {
		target := days[0]
		shuffled := append([]Date(nil), days...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		for _, d := range shuffled {
			if !caps.remaining(a.AccountID, d).IsNegative() {
				target = d
				break
			}
		}
		entries = append(entries, ScheduleEntry{
			AccountID:  a.AccountID,
			WorkItemID: a.WorkItemID,
			Date:       target,
			Hours:      hours,
			Overflow:   true,
		})
	}

	return entries
}

// =============================================================================
// WEEK SELECTION
// =============================================================================

type week struct {
	start    Date
	days     []Date
	capacity decimal.Decimal
}

const maxSpreadWeeks = 3

// selectWeekDays groups the good days into Monday-anchored calendar
// weeks, picks a target week count between the minimum that can absorb
// the assignment and three, and returns the chosen weeks' days in
// chronological order.
//
// The week count draw is squared (rand x rand) so it favors small
// values: most assignments cluster into few weeks instead of spreading
// maximally thin.
func selectWeekDays(a Assignment, total decimal.Decimal, good []Date, caps capacityMap, rng *Rand) []Date {
	byStart := make(map[Date]*week)
	var weeks []*week
	for _, d := range good {
		start := d.WeekStart()
		w, ok := byStart[start]
		if !ok {
			w = &week{start: start}
			byStart[start] = w
			weeks = append(weeks, w)
		}
		w.days = append(w.days, d)
		w.capacity = w.capacity.Add(caps.remaining(a.AccountID, d))
	}

	maxWeekCap := decimal.Zero
	for _, w := range weeks {
		if w.capacity.GreaterThan(maxWeekCap) {
			maxWeekCap = w.capacity
		}
	}

	// Enough weeks that the single highest-capacity week alone could not
	// always absorb everything.
	minWeeks := 1
	if maxWeekCap.IsPositive() {
		minWeeks = int(total.Div(maxWeekCap).Ceil().IntPart())
		if minWeeks < 1 {
			minWeeks = 1
		}
	}
	upper := maxSpreadWeeks
	if upper > len(weeks) {
		upper = len(weeks)
	}
	if minWeeks > upper {
		minWeeks = upper
	}

	t := rng.Next() * rng.Next()
	count := minWeeks + int(t*float64(upper-minWeeks+1))
	if count > upper {
		count = upper
	}

	rng.Shuffle(len(weeks), func(i, j int) {
		weeks[i], weeks[j] = weeks[j], weeks[i]
	})

	var chosen []Date
	for _, w := range weeks[:count] {
		chosen = append(chosen, w.days...)
	}
	sort.Slice(chosen, func(i, j int) bool { return chosen[i].Before(chosen[j]) })
	return chosen
}

// =============================================================================
// DAY FILLING
// =============================================================================

// placeOnDay logs a slice of the remaining hours on one day and returns
// the new remainder. For every day except the last (or once the
// remainder drops to an hour or less) the slice is a random 20-80%
// fraction of the remainder with a 1-hour floor; the last day takes
// whatever remains. Everything is capped by the day's capacity and
// snapped to the half hour.
func placeOnDay(entries *[]ScheduleEntry, a Assignment, d Date, remaining decimal.Decimal, caps capacityMap, rng *Rand, last bool) decimal.Decimal {
	capacity := floorToHalf(caps.remaining(a.AccountID, d))
	if !capacity.IsPositive() {
		return remaining
	}

	var want decimal.Decimal
	if last || remaining.LessThanOrEqual(oneHour) {
		want = remaining
	} else {
		frac := 0.2 + 0.6*rng.Next()
		want = remaining.Mul(decimal.NewFromFloat(frac))
		if want.LessThan(oneHour) {
			want = oneHour
		}
	}

	logged := SnapToHalf(want)
	if logged.GreaterThan(capacity) {
		logged = capacity
	}
	if !logged.IsPositive() {
		return remaining
	}

	*entries = append(*entries, ScheduleEntry{
		AccountID:  a.AccountID,
		WorkItemID: a.WorkItemID,
		Date:       d,
		Hours:      logged,
	})
	caps.consume(a.AccountID, d, logged)

	// Round after every subtraction so float-derived fractions never
	// leave a spurious non-zero remainder behind.
	return remaining.Sub(logged).Round(2)
}

// sweepDays greedily fills the given days in random order until the
// remainder hits zero or the days run out.
func sweepDays(entries *[]ScheduleEntry, a Assignment, days []Date, remaining decimal.Decimal, caps capacityMap, rng *Rand) decimal.Decimal {
	if len(days) == 0 {
		return remaining
	}
	shuffled := append([]Date(nil), days...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for _, d := range shuffled {
		if !remaining.IsPositive() {
			break
		}
		capacity := floorToHalf(caps.remaining(a.AccountID, d))
		if !capacity.IsPositive() {
			continue
		}
		logged := SnapToHalf(remaining)
		if logged.GreaterThan(capacity) {
			logged = capacity
		}
		if !logged.IsPositive() {
			continue
		}
		*entries = append(*entries, ScheduleEntry{
			AccountID:  a.AccountID,
			WorkItemID: a.WorkItemID,
			Date:       d,
			Hours:      logged,
		})
		caps.consume(a.AccountID, d, logged)
		remaining = remaining.Sub(logged).Round(2)
	}
	return remaining
}

// =============================================================================
// CAPACITY MAP
// =============================================================================

// capacityMap tracks remaining loggable hours per member per date.
// Built fresh per distribution call, mutated in place as hours are
// committed, discarded when the call returns. Never negative.
type capacityMap map[string]map[Date]decimal.Decimal

// newCapacityMap seeds capacities from already-logged hours: default 8
// minus existing, floored at zero.
func newCapacityMap(existing []ExistingWorklog) capacityMap {
	m := make(capacityMap)
	for _, wl := range existing {
		days, ok := m[wl.AccountID]
		if !ok {
			days = make(map[Date]decimal.Decimal)
			m[wl.AccountID] = days
		}
		current, ok := days[wl.Date]
		if !ok {
			current = dailyCap
		}
		current = current.Sub(wl.Hours)
		if current.IsNegative() {
			current = decimal.Zero
		}
		days[wl.Date] = current
	}
	return m
}

func (m capacityMap) remaining(accountID string, d Date) decimal.Decimal {
	if days, ok := m[accountID]; ok {
		if c, ok := days[d]; ok {
			return c
		}
	}
	return dailyCap
}

func (m capacityMap) consume(accountID string, d Date, hours decimal.Decimal) {
	days, ok := m[accountID]
	if !ok {
		days = make(map[Date]decimal.Decimal)
		m[accountID] = days
	}
	left := m.remaining(accountID, d).Sub(hours)
	if left.IsNegative() {
		left = decimal.Zero
	}
	days[d] = left
}

package tracker

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/worklog-engine/planning"
)

// =============================================================================
// MEMORY - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements all tracker interfaces in memory. Safe for
// concurrent use; reads return copies.
type Memory struct {
	mu       sync.RWMutex
	worklogs []Worklog
	members  []TeamMember
	items    []WorkItem
}

func NewMemory() *Memory {
	return &Memory{}
}

// SeedMembers replaces the member list.
func (m *Memory) SeedMembers(members []TeamMember) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members = append([]TeamMember(nil), members...)
}

// SeedWorkItems replaces the work item list.
func (m *Memory) SeedWorkItems(items []WorkItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]WorkItem(nil), items...)
}

func (m *Memory) CreateWorklogs(_ context.Context, logs []Worklog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.worklogs = append(m.worklogs, logs...)
	return nil
}

func (m *Memory) WorklogsInRange(_ context.Context, from, to planning.Date) ([]Worklog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Worklog
	for _, wl := range m.worklogs {
		if wl.Date.AfterOrEqual(from) && wl.Date.BeforeOrEqual(to) {
			result = append(result, wl)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].AccountID < result[j].AccountID
	})
	return result, nil
}

func (m *Memory) ListMembers(_ context.Context) ([]TeamMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]TeamMember(nil), m.members...), nil
}

func (m *Memory) ListWorkItems(_ context.Context) ([]WorkItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]WorkItem(nil), m.items...), nil
}

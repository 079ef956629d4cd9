package schedule

import (
	"time"

	"github.com/projectledger/projectledger/internal/domain/milestone"
	"github.com/projectledger/projectledger/internal/types"
)

// MilestoneVarianceDays compares actual against planned duration. A milestone that has not
// started has no variance; one still running is measured up to now.
func MilestoneVarianceDays(m *milestone.Milestone, now time.Time) (int, bool) {
	if m.ActualStart == nil {
		return 0, false
	}
	end := now
	if m.ActualEnd != nil {
		end = *m.ActualEnd
	}
	actual := types.CeilDays(*m.ActualStart, end)
	return actual - m.PlannedDurationDays(), true
}

// DurationVariance sums the per-milestone variance along the critical path. Positive values mean
// the path is running late.
func DurationVariance(milestones []*milestone.Milestone, path CriticalPath, now time.Time) int {
	byID := make(map[string]*milestone.Milestone, len(milestones))
	for _, m := range milestones {
		byID[m.ID] = m
	}

	total := 0
	for _, id := range path.PathIDs {
		m, ok := byID[id]
		if !ok {
			continue
		}
		if v, started := MilestoneVarianceDays(m, now); started {
			total += v
		}
	}
	return total
}

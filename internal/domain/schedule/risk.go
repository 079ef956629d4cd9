package schedule

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/projectledger/projectledger/internal/domain/milestone"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/shopspring/decimal"
)

const (
	delayHighThresholdDays   = 7
	delayMediumThresholdDays = 3
	startingSoonWindow       = 7 * 24 * time.Hour
)

var lowProgressThreshold = decimal.NewFromInt(30)

// RiskAssessment is the outcome for one milestone that triggered at least one rule.
type RiskAssessment struct {
	MilestoneID string          `json:"milestone_id"`
	Name        string          `json:"name"`
	Level       types.RiskLevel `json:"level"`
	Reasons     []string        `json:"reasons"`
}

// AssessRisk evaluates every milestone against the risk rules in order. The level only escalates
// within a milestone; milestones that trigger nothing are left out. Results are ordered HIGH,
// MEDIUM, LOW and keep input order within a level.
func AssessRisk(milestones []*milestone.Milestone, path CriticalPath, now time.Time) []RiskAssessment {
	byID := make(map[string]*milestone.Milestone, len(milestones))
	for _, m := range milestones {
		byID[m.ID] = m
	}

	results := make([]RiskAssessment, 0)
	for _, m := range milestones {
		a := RiskAssessment{MilestoneID: m.ID, Name: m.Name}
		raise := func(level types.RiskLevel, reason string) {
			a.Level = a.Level.Escalate(level)
			a.Reasons = append(a.Reasons, reason)
		}

		if path.Contains(m.ID) {
			raise(types.RiskLevelHigh, "on critical path")
		}

		if m.PlannedEnd.Before(now) && !m.Status.IsDone() {
			raise(types.RiskLevelHigh, fmt.Sprintf("overdue: planned end %s has passed", m.PlannedEnd.Format(time.DateOnly)))
		}

		if m.DelayDays != nil {
			switch days := *m.DelayDays; {
			case days > delayHighThresholdDays:
				raise(types.RiskLevelHigh, fmt.Sprintf("delayed %d days", days))
			case days > delayMediumThresholdDays:
				raise(types.RiskLevelMedium, fmt.Sprintf("delayed %d days", days))
			}
		}

		if m.Status == types.MilestoneStatusPending {
			untilStart := m.PlannedStart.Sub(now)
			if untilStart >= 0 && untilStart < startingSoonWindow {
				raise(types.RiskLevelMedium, fmt.Sprintf("starts in %d days and is still pending", int(math.Ceil(untilStart.Hours()/24))))
			}
		}

		if m.HasPredecessor() {
			if pred, ok := byID[*m.PredecessorID]; ok && !pred.Status.IsDone() {
				raise(types.RiskLevelMedium, fmt.Sprintf("blocked by predecessor %s (%s)", pred.ID, pred.Status))
			}
		}

		if m.Status == types.MilestoneStatusInProgress && m.CompletionPercentage.LessThan(lowProgressThreshold) {
			raise(types.RiskLevelMedium, fmt.Sprintf("low progress: %s%% complete", m.CompletionPercentage.String()))
		}

		if len(a.Reasons) > 0 {
			results = append(results, a)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Level.Rank() > results[j].Level.Rank()
	})
	return results
}

package schedule

import (
	"time"

	"github.com/projectledger/projectledger/internal/domain/milestone"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/samber/lo"
)

// Analysis is the full derived schedule view of one project.
type Analysis struct {
	ProjectID             string           `json:"project_id"`
	GeneratedAt           time.Time        `json:"generated_at"`
	Levels                map[string]int   `json:"levels"`
	Roots                 []string         `json:"roots"`
	CriticalPath          CriticalPath     `json:"critical_path"`
	OverallSpanDays       int              `json:"overall_span_days"`
	BufferDays            int              `json:"buffer_days"`
	DurationVarianceDays  int              `json:"duration_variance_days"`
	Risks                 []RiskAssessment `json:"risks"`
	MissingPredecessorIDs []string         `json:"missing_predecessor_ids,omitempty"`
}

// HighRisks returns the HIGH assessments.
func (a *Analysis) HighRisks() []RiskAssessment {
	return lo.Filter(a.Risks, func(r RiskAssessment, _ int) bool {
		return r.Level == types.RiskLevelHigh
	})
}

// Analyze builds the forest once and derives every schedule figure from it.
func Analyze(projectID string, milestones []*milestone.Milestone, now time.Time) (*Analysis, error) {
	forest, err := BuildForest(milestones)
	if err != nil {
		return nil, err
	}

	path := longestChain(forest, durationsByID(milestones))
	missing := lo.Filter(forest.Order(), func(id string, _ int) bool {
		return forest.Nodes[id].MissingPredecessor
	})

	return &Analysis{
		ProjectID:             projectID,
		GeneratedAt:           now,
		Levels:                forest.Levels(),
		Roots:                 forest.Roots,
		CriticalPath:          path,
		OverallSpanDays:       OverallSpanDays(milestones),
		BufferDays:            BufferDays(milestones, path),
		DurationVarianceDays:  DurationVariance(milestones, path, now),
		Risks:                 AssessRisk(milestones, path, now),
		MissingPredecessorIDs: missing,
	}, nil
}

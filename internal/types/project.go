package types

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "PLANNING"
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusOnHold    ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusCancelled ProjectStatus = "CANCELLED"
)

// IsSchedulable reports whether the project's milestones are still being scheduled and should be
// included in risk scans.
func (s ProjectStatus) IsSchedulable() bool {
	return s == ProjectStatusPlanning || s == ProjectStatusActive || s == ProjectStatusOnHold
}

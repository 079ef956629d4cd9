package types

import (
	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/samber/lo"
)

type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "PENDING"
	MilestoneStatusInProgress MilestoneStatus = "IN_PROGRESS"
	MilestoneStatusCompleted  MilestoneStatus = "COMPLETED"
	MilestoneStatusAccepted   MilestoneStatus = "ACCEPTED"
	MilestoneStatusBilled     MilestoneStatus = "BILLED"
	MilestoneStatusCancelled  MilestoneStatus = "CANCELLED"
)

var MilestoneStatuses = []MilestoneStatus{
	MilestoneStatusPending,
	MilestoneStatusInProgress,
	MilestoneStatusCompleted,
	MilestoneStatusAccepted,
	MilestoneStatusBilled,
	MilestoneStatusCancelled,
}

func (s MilestoneStatus) String() string {
	return string(s)
}

func (s MilestoneStatus) Validate() error {
	if !lo.Contains(MilestoneStatuses, s) {
		return ierr.NewErrorf("invalid milestone status %q", s).
			WithHintf("Milestone status must be one of %v", MilestoneStatuses).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal reports whether no further lifecycle transition is driven by this core.
func (s MilestoneStatus) IsTerminal() bool {
	return s == MilestoneStatusAccepted || s == MilestoneStatusBilled || s == MilestoneStatusCancelled
}

// IsDone reports whether the work behind the milestone is finished. Successors waiting on a
// milestone that is not done are blocked.
func (s MilestoneStatus) IsDone() bool {
	return s == MilestoneStatusCompleted || s == MilestoneStatusAccepted || s == MilestoneStatusBilled
}

package milestone

import (
	"time"

	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Milestone is a billable unit of project work recognized by percentage of completion.
type Milestone struct {
	ID             string    `db:"id" json:"id"`
	ProjectID      string    `db:"project_id" json:"project_id"`
	SequenceNumber int       `db:"sequence_number" json:"sequence_number"`
	Name           string    `db:"name" json:"name"`
	PlannedStart   time.Time `db:"planned_start" json:"planned_start"`
	PlannedEnd     time.Time `db:"planned_end" json:"planned_end"`

	ActualStart *time.Time `db:"actual_start" json:"actual_start,omitempty"`
	ActualEnd   *time.Time `db:"actual_end" json:"actual_end,omitempty"`
	DelayDays   *int       `db:"delay_days" json:"delay_days,omitempty"`
	DelayReason *string    `db:"delay_reason" json:"delay_reason,omitempty"`

	PlannedRevenue       decimal.Decimal  `db:"planned_revenue" json:"planned_revenue"`
	RecognizedRevenue    decimal.Decimal  `db:"recognized_revenue" json:"recognized_revenue"`
	RemainingRevenue     decimal.Decimal  `db:"remaining_revenue" json:"remaining_revenue"`
	EstimatedCost        *decimal.Decimal `db:"estimated_cost" json:"estimated_cost,omitempty"`
	ActualCost           decimal.Decimal  `db:"actual_cost" json:"actual_cost"`
	CompletionPercentage decimal.Decimal  `db:"completion_percentage" json:"completion_percentage"`
	Currency             string           `db:"currency" json:"currency"`

	PredecessorID *string               `db:"predecessor_id" json:"predecessor_id,omitempty"`
	Status        types.MilestoneStatus `db:"milestone_status" json:"milestone_status"`

	AcceptedBy         *string    `db:"accepted_by" json:"accepted_by,omitempty"`
	AcceptedAt         *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`

	LastRecognizedAt   *time.Time `db:"last_recognized_at" json:"last_recognized_at,omitempty"`
	LastJournalEntryID *string    `db:"last_journal_entry_id" json:"last_journal_entry_id,omitempty"`

	types.BaseModel
}

// Validate checks the fields a caller supplies when creating a milestone.
func (m *Milestone) Validate() error {
	if m.ProjectID == "" {
		return ierr.NewError("project_id is required").
			WithHint("Milestone must belong to a project").
			Mark(ierr.ErrValidation)
	}
	if m.SequenceNumber <= 0 {
		return ierr.NewError("sequence_number must be positive").
			WithHint("Sequence number is assigned per project starting at 1").
			WithReportableDetails(map[string]interface{}{"sequence_number": m.SequenceNumber}).
			Mark(ierr.ErrValidation)
	}
	if m.PlannedEnd.Before(m.PlannedStart) {
		return ierr.NewError("planned_end is before planned_start").
			WithHint("Planned end must not be earlier than planned start").
			WithReportableDetails(map[string]interface{}{
				"planned_start": m.PlannedStart,
				"planned_end":   m.PlannedEnd,
			}).
			Mark(ierr.ErrValidation)
	}
	if m.PlannedRevenue.IsNegative() {
		return ierr.NewError("planned_revenue must not be negative").
			WithHint("Planned revenue must be zero or more").
			WithReportableDetails(map[string]interface{}{"planned_revenue": m.PlannedRevenue.String()}).
			Mark(ierr.ErrValidation)
	}
	if !types.FitsCurrencyPrecision(m.PlannedRevenue, m.Currency) {
		return ierr.NewError("planned_revenue is finer than the currency allows").
			WithHintf("Planned revenue in %s takes at most %d decimals", m.Currency, types.GetCurrencyPrecision(m.Currency)).
			WithReportableDetails(map[string]interface{}{
				"planned_revenue": m.PlannedRevenue.String(),
				"currency":        m.Currency,
			}).
			Mark(ierr.ErrValidation)
	}
	if m.EstimatedCost != nil && m.EstimatedCost.IsNegative() {
		return ierr.NewError("estimated_cost must not be negative").
			WithHint("Estimated cost must be zero or more").
			Mark(ierr.ErrValidation)
	}
	if m.PredecessorID != nil && *m.PredecessorID == m.ID && m.ID != "" {
		return ierr.NewError("milestone cannot precede itself").
			WithHint("Choose a different predecessor").
			Mark(ierr.ErrCycleDetected)
	}
	return nil
}

// PlannedDurationDays is ceil(plannedEnd - plannedStart) in days.
func (m *Milestone) PlannedDurationDays() int {
	return types.CeilDays(m.PlannedStart, m.PlannedEnd)
}

// HasPredecessor reports a non-empty predecessor link.
func (m *Milestone) HasPredecessor() bool {
	return m.PredecessorID != nil && *m.PredecessorID != ""
}

// EarnedAt returns plannedRevenue * pct / 100 rounded to the currency's minor unit. The result
// never exceeds planned revenue, and a full percentage earns planned revenue exactly.
func (m *Milestone) EarnedAt(pct decimal.Decimal) decimal.Decimal {
	if types.IsFullPercentage(pct) {
		return m.PlannedRevenue
	}
	earned := types.RoundToCurrencyPrecision(types.PercentOf(m.PlannedRevenue, pct), m.Currency)
	return decimal.Min(earned, m.PlannedRevenue)
}

// CheckRecognizable verifies the milestone can take a progress update at pct and returns the
// incremental revenue to recognize.
func (m *Milestone) CheckRecognizable(pct decimal.Decimal) (decimal.Decimal, error) {
	if !types.IsValidPercentage(pct) {
		return decimal.Zero, ierr.NewError("completion percentage out of range").
			WithHint("Completion percentage must be between 0 and 100").
			WithReportableDetails(map[string]interface{}{"completion_percentage": pct.String()}).
			Mark(ierr.ErrValidation)
	}

	if m.Status == types.MilestoneStatusCancelled {
		return decimal.Zero, ierr.NewError("milestone is cancelled").
			WithHint("Cancelled milestones cannot recognize revenue").
			WithReportableDetails(map[string]interface{}{"milestone_id": m.ID}).
			Mark(ierr.ErrInvalidOperation)
	}

	delta := m.EarnedAt(pct).Sub(m.RecognizedRevenue)
	if delta.LessThan(types.RecognitionEpsilon) {
		return decimal.Zero, ierr.NewError("nothing to recognize").
			WithHint("Completion percentage does not increase earned revenue").
			WithReportableDetails(map[string]interface{}{
				"milestone_id":          m.ID,
				"completion_percentage": pct.String(),
				"recognized_revenue":    m.RecognizedRevenue.String(),
			}).
			Mark(ierr.ErrNoOp)
	}

	return delta, nil
}

// CheckActualCost rejects an actual cost lower than the one already recorded.
func (m *Milestone) CheckActualCost(actualCost *decimal.Decimal) error {
	if actualCost == nil {
		return nil
	}
	if actualCost.IsNegative() || actualCost.LessThan(m.ActualCost) {
		return ierr.NewError("actual cost cannot decrease").
			WithHint("Actual cost only accumulates").
			WithReportableDetails(map[string]interface{}{
				"current_actual_cost": m.ActualCost.String(),
				"new_actual_cost":     actualCost.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ApplyRecognition books delta and moves the status forward for pct. Callers must have passed
// CheckRecognizable and CheckActualCost first.
func (m *Milestone) ApplyRecognition(pct, delta decimal.Decimal, actualCost *decimal.Decimal, at time.Time) {
	m.RecognizedRevenue = m.RecognizedRevenue.Add(delta)
	m.RemainingRevenue = m.PlannedRevenue.Sub(m.RecognizedRevenue)
	m.CompletionPercentage = pct
	if actualCost != nil {
		m.ActualCost = *actualCost
	}
	m.LastRecognizedAt = lo.ToPtr(at)

	if m.Status != types.MilestoneStatusPending && m.Status != types.MilestoneStatusInProgress {
		return
	}

	if m.ActualStart == nil && pct.IsPositive() {
		m.ActualStart = lo.ToPtr(at)
	}

	switch {
	case types.IsFullPercentage(pct):
		m.Status = types.MilestoneStatusCompleted
		if m.ActualEnd == nil {
			m.ActualEnd = lo.ToPtr(at)
		}
	case pct.IsPositive():
		m.Status = types.MilestoneStatusInProgress
	}
}

// Accept moves a COMPLETED milestone to ACCEPTED.
func (m *Milestone) Accept(acceptedBy string, acceptedAt time.Time) error {
	if m.Status != types.MilestoneStatusCompleted {
		return ierr.NewErrorf("milestone in status %s cannot be accepted", m.Status).
			WithHint("Only completed milestones can be accepted").
			WithReportableDetails(map[string]interface{}{
				"milestone_id": m.ID,
				"status":       m.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if acceptedBy == "" {
		return ierr.NewError("accepted_by is required").
			WithHint("Record who accepted the milestone").
			Mark(ierr.ErrValidation)
	}

	m.Status = types.MilestoneStatusAccepted
	m.AcceptedBy = lo.ToPtr(acceptedBy)
	m.AcceptedAt = lo.ToPtr(acceptedAt)
	return nil
}

// Cancel moves any non-terminal milestone to CANCELLED.
func (m *Milestone) Cancel(reason string, at time.Time) error {
	if m.Status.IsTerminal() {
		return ierr.NewErrorf("milestone in status %s cannot be cancelled", m.Status).
			WithHint("Accepted, billed or cancelled milestones are final").
			WithReportableDetails(map[string]interface{}{
				"milestone_id": m.ID,
				"status":       m.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	m.Status = types.MilestoneStatusCancelled
	m.CancelledAt = lo.ToPtr(at)
	if reason != "" {
		m.CancellationReason = lo.ToPtr(reason)
	}
	return nil
}

// RecordDelay sets the delay in days and its reason.
func (m *Milestone) RecordDelay(days int, reason string) error {
	if days < 0 {
		return ierr.NewError("delay days must not be negative").
			WithHint("Delay is measured in whole days, zero or more").
			WithReportableDetails(map[string]interface{}{"delay_days": days}).
			Mark(ierr.ErrValidation)
	}
	if m.Status.IsTerminal() {
		return ierr.NewErrorf("milestone in status %s cannot be delayed", m.Status).
			WithHint("Accepted, billed or cancelled milestones are final").
			Mark(ierr.ErrInvalidOperation)
	}

	m.DelayDays = lo.ToPtr(days)
	if reason != "" {
		m.DelayReason = lo.ToPtr(reason)
	} else {
		m.DelayReason = nil
	}
	return nil
}

// Copy returns a deep copy so that stores never hand out shared pointers.
func (m *Milestone) Copy() *Milestone {
	if m == nil {
		return nil
	}
	c := *m
	c.ActualStart = copyPtr(m.ActualStart)
	c.ActualEnd = copyPtr(m.ActualEnd)
	c.DelayDays = copyPtr(m.DelayDays)
	c.DelayReason = copyPtr(m.DelayReason)
	c.EstimatedCost = copyPtr(m.EstimatedCost)
	c.PredecessorID = copyPtr(m.PredecessorID)
	c.AcceptedBy = copyPtr(m.AcceptedBy)
	c.AcceptedAt = copyPtr(m.AcceptedAt)
	c.CancelledAt = copyPtr(m.CancelledAt)
	c.CancellationReason = copyPtr(m.CancellationReason)
	c.LastRecognizedAt = copyPtr(m.LastRecognizedAt)
	c.LastJournalEntryID = copyPtr(m.LastJournalEntryID)
	return &c
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

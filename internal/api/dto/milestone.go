package dto

import (
	"context"
	"strings"
	"time"

	"github.com/projectledger/projectledger/internal/domain/milestone"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/projectledger/projectledger/internal/validator"
	"github.com/shopspring/decimal"
)

type CreateMilestoneRequest struct {
	ProjectID      string           `json:"project_id" validate:"required"`
	SequenceNumber int              `json:"sequence_number" validate:"required,min=1"`
	Name           string           `json:"name" validate:"required"`
	PlannedStart   time.Time        `json:"planned_start" validate:"required"`
	PlannedEnd     time.Time        `json:"planned_end" validate:"required"`
	PlannedRevenue decimal.Decimal  `json:"planned_revenue" validate:"decimal_gte0"`
	EstimatedCost  *decimal.Decimal `json:"estimated_cost,omitempty"`
	PredecessorID  *string          `json:"predecessor_id,omitempty"`
	Currency       string           `json:"currency,omitempty" validate:"omitempty,len=3"`
}

func (r *CreateMilestoneRequest) Validate() error {
	r.Currency = strings.ToLower(r.Currency)
	if r.PredecessorID != nil && *r.PredecessorID == "" {
		r.PredecessorID = nil
	}
	return validator.ValidateRequest(r)
}

// ToMilestone builds a PENDING milestone with nothing recognized.
func (r *CreateMilestoneRequest) ToMilestone(ctx context.Context, defaultCurrency string) *milestone.Milestone {
	currency := r.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	return &milestone.Milestone{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MILESTONE),
		ProjectID:            r.ProjectID,
		SequenceNumber:       r.SequenceNumber,
		Name:                 r.Name,
		PlannedStart:         r.PlannedStart,
		PlannedEnd:           r.PlannedEnd,
		PlannedRevenue:       r.PlannedRevenue,
		RecognizedRevenue:    decimal.Zero,
		RemainingRevenue:     r.PlannedRevenue,
		EstimatedCost:        r.EstimatedCost,
		ActualCost:           decimal.Zero,
		CompletionPercentage: decimal.Zero,
		Currency:             currency,
		PredecessorID:        r.PredecessorID,
		Status:               types.MilestoneStatusPending,
		BaseModel:            types.GetDefaultBaseModel(ctx),
	}
}

type RecognizeMilestoneRevenueRequest struct {
	CompletionPercentage decimal.Decimal  `json:"completion_percentage" validate:"percentage"`
	RecognitionDate      time.Time        `json:"recognition_date" validate:"required"`
	ActualCost           *decimal.Decimal `json:"actual_cost,omitempty"`
}

func (r *RecognizeMilestoneRevenueRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type AcceptMilestoneRequest struct {
	AcceptedBy string `json:"accepted_by" validate:"required"`
	// AcceptedAt defaults to now when zero
	AcceptedAt time.Time `json:"accepted_at"`
}

func (r *AcceptMilestoneRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type CancelMilestoneRequest struct {
	Reason string `json:"reason"`
}

type RecordMilestoneDelayRequest struct {
	DelayDays int    `json:"delay_days" validate:"min=0"`
	Reason    string `json:"reason"`
}

func (r *RecordMilestoneDelayRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type MilestoneResponse struct {
	*milestone.Milestone
}

package dto

import (
	"time"

	"github.com/projectledger/projectledger/internal/domain/wip"
	"github.com/projectledger/projectledger/internal/validator"
	"github.com/shopspring/decimal"
)

type AccumulateCostsRequest struct {
	ProjectID   string          `json:"project_id" validate:"required"`
	PeriodDate  time.Time       `json:"period_date" validate:"required"`
	Material    decimal.Decimal `json:"material" validate:"decimal_gte0"`
	Labor       decimal.Decimal `json:"labor" validate:"decimal_gte0"`
	OtherDirect decimal.Decimal `json:"other_direct" validate:"decimal_gte0"`
	Overhead    decimal.Decimal `json:"overhead" validate:"decimal_gte0"`
}

func (r *AccumulateCostsRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.ToCostDeltas().Validate()
}

func (r *AccumulateCostsRequest) ToCostDeltas() wip.CostDeltas {
	return wip.CostDeltas{
		Material:    r.Material,
		Labor:       r.Labor,
		OtherDirect: r.OtherDirect,
		Overhead:    r.Overhead,
	}
}

type WorkInProgressResponse struct {
	*wip.WorkInProgress
}

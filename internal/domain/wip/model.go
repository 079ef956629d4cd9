package wip

import (
	"time"

	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/shopspring/decimal"
)

// CostDeltas are the increments added to a period's cost buckets.
type CostDeltas struct {
	Material    decimal.Decimal `json:"material"`
	Labor       decimal.Decimal `json:"labor"`
	OtherDirect decimal.Decimal `json:"other_direct"`
	Overhead    decimal.Decimal `json:"overhead"`
}

func (d CostDeltas) Total() decimal.Decimal {
	return d.Material.Add(d.Labor).Add(d.OtherDirect).Add(d.Overhead)
}

// Validate rejects negative buckets and an all-zero delta. Costs only ever accumulate.
func (d CostDeltas) Validate() error {
	buckets := map[string]decimal.Decimal{
		"material":     d.Material,
		"labor":        d.Labor,
		"other_direct": d.OtherDirect,
		"overhead":     d.Overhead,
	}
	for name, v := range buckets {
		if v.IsNegative() {
			return ierr.NewErrorf("%s cost delta is negative", name).
				WithHint("Cost deltas must be zero or more; reversals are posted separately").
				WithReportableDetails(map[string]interface{}{name: v.String()}).
				Mark(ierr.ErrValidation)
		}
	}
	if d.Total().IsZero() {
		return ierr.NewError("cost deltas are all zero").
			WithHint("Provide at least one non-zero cost bucket").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// WorkInProgress accumulates a project's unbilled costs for one calendar month.
type WorkInProgress struct {
	ID              string          `db:"id" json:"id"`
	ProjectID       string          `db:"project_id" json:"project_id"`
	PeriodDate      time.Time       `db:"period_date" json:"period_date"`
	MaterialCost    decimal.Decimal `db:"material_cost" json:"material_cost"`
	LaborCost       decimal.Decimal `db:"labor_cost" json:"labor_cost"`
	OtherDirectCost decimal.Decimal `db:"other_direct_cost" json:"other_direct_cost"`
	OverheadCost    decimal.Decimal `db:"overhead_cost" json:"overhead_cost"`
	TotalCost       decimal.Decimal `db:"total_cost" json:"total_cost"`
	types.BaseModel
}

// New creates a period record seeded with the deltas.
func New(projectID string, period time.Time, deltas CostDeltas, base types.BaseModel) *WorkInProgress {
	w := &WorkInProgress{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WIP),
		ProjectID:       projectID,
		PeriodDate:      types.NormalizeToPeriod(period),
		MaterialCost:    decimal.Zero,
		LaborCost:       decimal.Zero,
		OtherDirectCost: decimal.Zero,
		OverheadCost:    decimal.Zero,
		TotalCost:       decimal.Zero,
		BaseModel:       base,
	}
	w.Add(deltas)
	return w
}

// Add increments every bucket and recomputes the total as their sum.
func (w *WorkInProgress) Add(deltas CostDeltas) {
	w.MaterialCost = w.MaterialCost.Add(deltas.Material)
	w.LaborCost = w.LaborCost.Add(deltas.Labor)
	w.OtherDirectCost = w.OtherDirectCost.Add(deltas.OtherDirect)
	w.OverheadCost = w.OverheadCost.Add(deltas.Overhead)
	w.TotalCost = w.MaterialCost.Add(w.LaborCost).Add(w.OtherDirectCost).Add(w.OverheadCost)
}

func (w *WorkInProgress) Copy() *WorkInProgress {
	if w == nil {
		return nil
	}
	c := *w
	return &c
}

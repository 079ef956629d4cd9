package wip

import (
	"testing"
	"time"

	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestAccumulationIsCommutative(t *testing.T) {
	period := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	a := CostDeltas{Material: d(100), Labor: d(50), OtherDirect: d(0), Overhead: d(5)}
	b := CostDeltas{Material: d(10), Labor: d(0), OtherDirect: d(7), Overhead: d(1)}
	c := CostDeltas{Material: d(0), Labor: d(20), OtherDirect: d(3), Overhead: d(0)}

	first := New("proj_1", period, a, types.BaseModel{})
	first.Add(b)
	first.Add(c)

	second := New("proj_1", period, a, types.BaseModel{})
	second.Add(c)
	second.Add(b)

	assert.True(t, first.TotalCost.Equal(second.TotalCost))
	assert.True(t, first.MaterialCost.Equal(second.MaterialCost))
	assert.True(t, first.LaborCost.Equal(second.LaborCost))
	assert.True(t, first.OtherDirectCost.Equal(second.OtherDirectCost))
	assert.True(t, first.OverheadCost.Equal(second.OverheadCost))
	assert.True(t, d(196).Equal(first.TotalCost))
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), first.PeriodDate)
}

func TestCostDeltasValidate(t *testing.T) {
	assert.NoError(t, CostDeltas{Material: d(1)}.Validate())
	assert.True(t, ierr.IsValidation(CostDeltas{}.Validate()))
	assert.True(t, ierr.IsValidation(CostDeltas{Labor: d(-1), Material: d(5)}.Validate()))
}

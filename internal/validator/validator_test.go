package validator

import (
	"testing"

	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	ID      string          `validate:"required"`
	Amount  decimal.Decimal `validate:"decimal_gt0"`
	Cost    decimal.Decimal `validate:"decimal_gte0"`
	Percent decimal.Decimal `validate:"percentage"`
}

func TestValidateRequest(t *testing.T) {
	ok := sampleRequest{
		ID:      "ms_1",
		Amount:  decimal.NewFromInt(10),
		Cost:    decimal.Zero,
		Percent: decimal.NewFromInt(100),
	}
	require.NoError(t, ValidateRequest(ok))

	bad := sampleRequest{
		Amount:  decimal.Zero,
		Cost:    decimal.NewFromInt(-1),
		Percent: decimal.RequireFromString("100.5"),
	}
	err := ValidateRequest(bad)
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	details := ierr.GetReportableDetails(err)
	assert.Equal(t, "required", details["ID"])
	assert.Equal(t, "decimal_gt0", details["Amount"])
	assert.Equal(t, "decimal_gte0", details["Cost"])
	assert.Equal(t, "percentage", details["Percent"])
}

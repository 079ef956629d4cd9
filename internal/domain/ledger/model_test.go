package ledger

import (
	"testing"
	"time"

	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEntryValidate(t *testing.T) {
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	amt := decimal.NewFromInt(1000)

	tests := []struct {
		name    string
		entry   *Entry
		wantErr bool
	}{
		{
			name: "balanced two lines",
			entry: NewEntry(date, "idr", ReferenceTypeMilestoneRecognize, "ms_1", "progress").
				Debit("1-1310", amt, nil).
				Credit("4-1000", amt, nil),
		},
		{
			name: "balanced split credit",
			entry: NewEntry(date, "idr", ReferenceTypeWIPAccumulate, "wip_1", "costs").
				Debit("1-1400", amt, nil).
				Credit("2-1100", decimal.NewFromInt(600), nil).
				Credit("2-1210", decimal.NewFromInt(400), nil),
		},
		{
			name: "unbalanced",
			entry: NewEntry(date, "idr", ReferenceTypeMilestoneRecognize, "ms_1", "").
				Debit("1-1310", amt, nil).
				Credit("4-1000", decimal.NewFromInt(999), nil),
			wantErr: true,
		},
		{
			name: "zero lines skipped leaves one line",
			entry: NewEntry(date, "idr", ReferenceTypeMilestoneRecognize, "ms_1", "").
				Debit("1-1310", amt, nil).
				Credit("4-1000", decimal.Zero, nil),
			wantErr: true,
		},
		{
			name: "missing account",
			entry: NewEntry(date, "idr", ReferenceTypeMilestoneRecognize, "ms_1", "").
				Debit("", amt, nil).
				Credit("4-1000", amt, nil),
			wantErr: true,
		},
		{
			name: "two-sided line",
			entry: &Entry{
				ReferenceType: ReferenceTypeMilestoneRecognize,
				ReferenceID:   "ms_1",
				Lines: []Line{
					{AccountCode: "a", Debit: amt, Credit: amt},
					{AccountCode: "b", Debit: amt, Credit: amt},
				},
			},
			wantErr: true,
		},
		{
			name: "no reference",
			entry: NewEntry(date, "idr", "", "", "").
				Debit("1-1310", amt, nil).
				Credit("4-1000", amt, nil),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr {
				assert.True(t, ierr.IsValidation(err), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestIdempotencyKey(t *testing.T) {
	e := NewEntry(time.Now(), "idr", ReferenceTypeDeferredRevenueRecognize, "drev_1", "").
		WithIdempotencyKey(decimal.NewFromInt(4000000))
	assert.Equal(t, "DEFERRED_REVENUE_RECOGNIZE:drev_1:4000000", e.IdempotencyKey)
}

package milestone

import (
	"testing"
	"time"

	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestMilestone(planned int64) *Milestone {
	return &Milestone{
		ID:                "ms_1",
		ProjectID:         "proj_1",
		SequenceNumber:    1,
		PlannedStart:      at,
		PlannedEnd:        at.Add(5 * 24 * time.Hour),
		PlannedRevenue:    decimal.NewFromInt(planned),
		RecognizedRevenue: decimal.Zero,
		RemainingRevenue:  decimal.NewFromInt(planned),
		Currency:          "idr",
		Status:            types.MilestoneStatusPending,
	}
}

func TestCheckRecognizable(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(m *Milestone)
		pct       decimal.Decimal
		wantDelta decimal.Decimal
		wantErr   func(error) bool
	}{
		{
			name:      "first progress",
			pct:       decimal.NewFromInt(30),
			wantDelta: decimal.NewFromInt(300000),
		},
		{
			name:    "above hundred",
			pct:     decimal.RequireFromString("100.01"),
			wantErr: ierr.IsValidation,
		},
		{
			name:    "negative",
			pct:     decimal.NewFromInt(-1),
			wantErr: ierr.IsValidation,
		},
		{
			name:    "cancelled",
			setup:   func(m *Milestone) { m.Status = types.MilestoneStatusCancelled },
			pct:     decimal.NewFromInt(50),
			wantErr: ierr.IsInvalidOperation,
		},
		{
			name: "backward progress",
			setup: func(m *Milestone) {
				m.RecognizedRevenue = decimal.NewFromInt(500000)
				m.CompletionPercentage = decimal.NewFromInt(50)
			},
			pct:     decimal.NewFromInt(40),
			wantErr: ierr.IsNoOp,
		},
		{
			name: "same progress",
			setup: func(m *Milestone) {
				m.RecognizedRevenue = decimal.NewFromInt(500000)
				m.CompletionPercentage = decimal.NewFromInt(50)
			},
			pct:     decimal.NewFromInt(50),
			wantErr: ierr.IsNoOp,
		},
		{
			name:    "zero percent on fresh milestone",
			pct:     decimal.Zero,
			wantErr: ierr.IsNoOp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMilestone(1000000)
			if tt.setup != nil {
				tt.setup(m)
			}
			delta, err := m.CheckRecognizable(tt.pct)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error kind: %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantDelta.Equal(delta), "delta %s", delta)
		})
	}
}

func TestEarnedAtRoundsToCents(t *testing.T) {
	m := newTestMilestone(0)
	m.PlannedRevenue = decimal.NewFromInt(100)
	earned := m.EarnedAt(decimal.RequireFromString("33.333"))
	assert.Equal(t, "33.33", earned.String())
}

func TestApplyRecognitionLifecycle(t *testing.T) {
	m := newTestMilestone(1000000)

	delta, err := m.CheckRecognizable(decimal.NewFromInt(30))
	require.NoError(t, err)
	m.ApplyRecognition(decimal.NewFromInt(30), delta, nil, at)
	assert.Equal(t, types.MilestoneStatusInProgress, m.Status)
	assert.Equal(t, at, *m.ActualStart)
	assert.Nil(t, m.ActualEnd)

	later := at.Add(48 * time.Hour)
	delta, err = m.CheckRecognizable(decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(700000).Equal(delta))
	m.ApplyRecognition(decimal.NewFromInt(100), delta, lo.ToPtr(decimal.NewFromInt(250000)), later)

	assert.Equal(t, types.MilestoneStatusCompleted, m.Status)
	assert.True(t, m.RecognizedRevenue.Equal(m.PlannedRevenue))
	assert.True(t, m.RemainingRevenue.IsZero())
	assert.Equal(t, at, *m.ActualStart)
	assert.Equal(t, later, *m.ActualEnd)
	assert.True(t, decimal.NewFromInt(250000).Equal(m.ActualCost))

	require.NoError(t, m.Accept("finance@acme.id", later))
	assert.Equal(t, types.MilestoneStatusAccepted, m.Status)
	assert.Equal(t, "finance@acme.id", *m.AcceptedBy)
}

func TestAcceptRequiresCompleted(t *testing.T) {
	for _, status := range []types.MilestoneStatus{
		types.MilestoneStatusPending,
		types.MilestoneStatusInProgress,
		types.MilestoneStatusAccepted,
		types.MilestoneStatusBilled,
		types.MilestoneStatusCancelled,
	} {
		m := newTestMilestone(10)
		m.Status = status
		err := m.Accept("someone", at)
		assert.True(t, ierr.IsInvalidOperation(err), "status %s", status)
	}
}

func TestCancel(t *testing.T) {
	m := newTestMilestone(10)
	require.NoError(t, m.Cancel("client withdrew", at))
	assert.Equal(t, types.MilestoneStatusCancelled, m.Status)
	assert.Equal(t, "client withdrew", *m.CancellationReason)

	err := m.Cancel("again", at)
	assert.True(t, ierr.IsInvalidOperation(err))

	_, err = m.CheckRecognizable(decimal.NewFromInt(10))
	assert.True(t, ierr.IsInvalidOperation(err))
}

func TestRecordDelay(t *testing.T) {
	m := newTestMilestone(10)
	require.NoError(t, m.RecordDelay(4, "rain"))
	assert.Equal(t, 4, *m.DelayDays)
	assert.Equal(t, "rain", *m.DelayReason)

	assert.True(t, ierr.IsValidation(m.RecordDelay(-1, "")))

	m.Status = types.MilestoneStatusBilled
	assert.True(t, ierr.IsInvalidOperation(m.RecordDelay(1, "")))
}

func TestCheckActualCost(t *testing.T) {
	m := newTestMilestone(10)
	m.ActualCost = decimal.NewFromInt(100)

	assert.NoError(t, m.CheckActualCost(nil))
	assert.NoError(t, m.CheckActualCost(lo.ToPtr(decimal.NewFromInt(100))))
	assert.True(t, ierr.IsValidation(m.CheckActualCost(lo.ToPtr(decimal.NewFromInt(99)))))
}

func TestValidate(t *testing.T) {
	m := newTestMilestone(10)
	require.NoError(t, m.Validate())

	bad := newTestMilestone(10)
	bad.PlannedEnd = bad.PlannedStart.Add(-time.Hour)
	assert.True(t, ierr.IsValidation(bad.Validate()))

	self := newTestMilestone(10)
	self.PredecessorID = lo.ToPtr(self.ID)
	assert.True(t, ierr.IsCycleDetected(self.Validate()))
}

func TestCopyIsDeep(t *testing.T) {
	m := newTestMilestone(10)
	m.PredecessorID = lo.ToPtr("ms_0")
	c := m.Copy()
	*c.PredecessorID = "ms_x"
	assert.Equal(t, "ms_0", *m.PredecessorID)
}

func TestRecognitionNeverExceedsPlanned(t *testing.T) {
	sequences := [][]string{
		{"33.333", "66.667", "100"},
		{"12.5", "49.99", "50", "99.995", "100"},
		{"0.01", "99.999", "100"},
		{"100"},
	}
	amounts := []struct {
		planned  string
		currency string
	}{
		{"100.05", "idr"},
		{"333.33", "usd"},
		{"101", "jpy"},
		{"7", "krw"},
		{"999999.99", "idr"},
		// finer than the currency, as stored before precision checks existed
		{"100.5", "jpy"},
		{"100.005", "idr"},
	}

	for _, a := range amounts {
		for _, seq := range sequences {
			m := newTestMilestone(0)
			m.PlannedRevenue = decimal.RequireFromString(a.planned)
			m.RemainingRevenue = m.PlannedRevenue
			m.Currency = a.currency

			for _, p := range seq {
				pct := decimal.RequireFromString(p)
				delta, err := m.CheckRecognizable(pct)
				if ierr.IsNoOp(err) {
					continue
				}
				require.NoError(t, err, "%s %s at %s", a.planned, a.currency, p)
				m.ApplyRecognition(pct, delta, nil, at)

				assert.True(t, m.RecognizedRevenue.LessThanOrEqual(m.PlannedRevenue),
					"%s %s at %s: recognized %s", a.planned, a.currency, p, m.RecognizedRevenue)
				assert.False(t, m.RemainingRevenue.LessThan(types.RecognitionEpsilon.Neg()),
					"%s %s at %s: remaining %s", a.planned, a.currency, p, m.RemainingRevenue)
				assert.True(t, m.RecognizedRevenue.Add(m.RemainingRevenue).Equal(m.PlannedRevenue))
			}

			assert.True(t, m.PlannedRevenue.Sub(m.RecognizedRevenue).LessThan(types.RecognitionEpsilon),
				"%s %s %v: recognized %s", a.planned, a.currency, seq, m.RecognizedRevenue)
		}
	}
}

func TestValidateRejectsSubMinorUnitRevenue(t *testing.T) {
	jpy := newTestMilestone(0)
	jpy.Currency = "jpy"
	jpy.PlannedRevenue = decimal.RequireFromString("100.5")
	assert.True(t, ierr.IsValidation(jpy.Validate()))

	idr := newTestMilestone(0)
	idr.PlannedRevenue = decimal.RequireFromString("100.005")
	assert.True(t, ierr.IsValidation(idr.Validate()))

	idr.PlannedRevenue = decimal.RequireFromString("100.01")
	assert.NoError(t, idr.Validate())
}

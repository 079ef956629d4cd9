package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/projectledger/projectledger/internal/api/dto"
	"github.com/projectledger/projectledger/internal/cache"
	"github.com/projectledger/projectledger/internal/domain/ledger"
	"github.com/projectledger/projectledger/internal/domain/project"
	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/testutil"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type MilestoneServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	service         *milestoneService
	scheduleService *scheduleService
	accounts        ledger.AccountChart
	project         *project.Project
	start           time.Time
}

func TestMilestoneService(t *testing.T) {
	suite.Run(t, new(MilestoneServiceTestSuite))
}

func (s *MilestoneServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestServiceParams(&s.BaseServiceTestSuite)
	s.scheduleService = NewScheduleService(params).(*scheduleService)
	s.service = NewMilestoneService(params, s.scheduleService).(*milestoneService)
	s.accounts = params.Accounts()
	s.project = s.CreateTestProject("PRJ-001")
	s.start = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
}

func (s *MilestoneServiceTestSuite) create(seq int, revenue string, predecessorID *string) *dto.MilestoneResponse {
	resp, err := s.service.CreateMilestone(s.GetContext(), dto.CreateMilestoneRequest{
		ProjectID:      s.project.ID,
		SequenceNumber: seq,
		Name:           "Phase",
		PlannedStart:   s.start,
		PlannedEnd:     s.start.AddDate(0, 0, 30),
		PlannedRevenue: dec(revenue),
		PredecessorID:  predecessorID,
	})
	s.Require().NoError(err)
	return resp
}

func (s *MilestoneServiceTestSuite) recognize(id, pct string, actualCost *string) (*dto.MilestoneResponse, error) {
	req := dto.RecognizeMilestoneRevenueRequest{
		CompletionPercentage: dec(pct),
		RecognitionDate:      s.GetNow(),
	}
	if actualCost != nil {
		req.ActualCost = lo.ToPtr(dec(*actualCost))
	}
	return s.service.RecognizeRevenue(s.GetContext(), id, req)
}

func (s *MilestoneServiceTestSuite) TestCreate() {
	first := s.create(1, "10000000", nil)
	s.Equal(types.MilestoneStatusPending, first.Status)
	s.True(first.RemainingRevenue.Equal(dec("10000000")))
	s.Equal(s.project.Currency, first.Currency)

	second := s.create(2, "5000000", lo.ToPtr(first.ID))
	s.Equal(first.ID, *second.PredecessorID)

	s.Run("duplicate sequence", func() {
		_, err := s.service.CreateMilestone(s.GetContext(), dto.CreateMilestoneRequest{
			ProjectID:      s.project.ID,
			SequenceNumber: 1,
			Name:           "Again",
			PlannedStart:   s.start,
			PlannedEnd:     s.start.AddDate(0, 0, 1),
			PlannedRevenue: dec("1"),
		})
		s.True(ierr.IsAlreadyExists(err))
	})

	s.Run("unknown predecessor", func() {
		_, err := s.service.CreateMilestone(s.GetContext(), dto.CreateMilestoneRequest{
			ProjectID:      s.project.ID,
			SequenceNumber: 3,
			Name:           "Orphan",
			PlannedStart:   s.start,
			PlannedEnd:     s.start.AddDate(0, 0, 1),
			PlannedRevenue: dec("1"),
			PredecessorID:  lo.ToPtr("ms_missing"),
		})
		s.True(ierr.IsValidation(err))
	})

	s.Run("unknown project", func() {
		_, err := s.service.CreateMilestone(s.GetContext(), dto.CreateMilestoneRequest{
			ProjectID:      "proj_missing",
			SequenceNumber: 1,
			Name:           "Nowhere",
			PlannedStart:   s.start,
			PlannedEnd:     s.start.AddDate(0, 0, 1),
			PlannedRevenue: dec("1"),
		})
		s.True(ierr.IsNotFound(err))
	})

	s.Run("revenue finer than the currency", func() {
		_, err := s.service.CreateMilestone(s.GetContext(), dto.CreateMilestoneRequest{
			ProjectID:      s.project.ID,
			SequenceNumber: 4,
			Name:           "Yen",
			PlannedStart:   s.start,
			PlannedEnd:     s.start.AddDate(0, 0, 1),
			PlannedRevenue: dec("100.5"),
			Currency:       "jpy",
		})
		s.True(ierr.IsValidation(err), "got %v", err)
	})

	list, err := s.service.ListProjectMilestones(s.GetContext(), s.project.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(1, list[0].SequenceNumber)
	s.Equal(2, list[1].SequenceNumber)
}

func (s *MilestoneServiceTestSuite) TestRecognize_ProgressThenCompleteThenAccept() {
	m := s.create(1, "10000000", nil)
	ctx := s.GetContext()

	progress, err := s.recognize(m.ID, "30", nil)
	s.Require().NoError(err)
	s.Equal(types.MilestoneStatusInProgress, progress.Status)
	s.True(progress.RecognizedRevenue.Equal(dec("3000000")))
	s.True(progress.RemainingRevenue.Equal(dec("7000000")))
	s.NotNil(progress.ActualStart)
	s.Nil(progress.ActualEnd)

	s.GetClock().Advance(10 * 24 * time.Hour)
	done, err := s.recognize(m.ID, "100", lo.ToPtr("6500000"))
	s.Require().NoError(err)
	s.Equal(types.MilestoneStatusCompleted, done.Status)
	s.True(done.RecognizedRevenue.Equal(dec("10000000")))
	s.True(done.RemainingRevenue.IsZero())
	s.True(done.ActualCost.Equal(dec("6500000")))
	s.NotNil(done.ActualEnd)

	entries := s.GetLedger().EntriesFor(ctx, ledger.ReferenceTypeMilestoneRecognize, m.ID)
	s.Require().Len(entries, 2)
	s.True(entries[0].TotalDebit().Equal(dec("3000000")))
	s.True(entries[1].TotalDebit().Equal(dec("7000000")))
	s.True(s.GetLedger().Balance(ctx, s.accounts.UnbilledRevenue).Equal(dec("10000000")))
	s.True(s.GetLedger().Balance(ctx, s.accounts.Revenue).Equal(dec("-10000000")))
	s.Equal(entries[1].ID, *done.LastJournalEntryID)

	accepted, err := s.service.AcceptMilestone(ctx, m.ID, dto.AcceptMilestoneRequest{AcceptedBy: "client-pm"})
	s.Require().NoError(err)
	s.Equal(types.MilestoneStatusAccepted, accepted.Status)
	s.Equal("client-pm", *accepted.AcceptedBy)
	s.Equal(s.GetNow(), *accepted.AcceptedAt)

	_, err = s.service.CancelMilestone(ctx, m.ID, dto.CancelMilestoneRequest{Reason: "too late"})
	s.True(ierr.IsInvalidOperation(err))
}

func (s *MilestoneServiceTestSuite) TestRecognize_StaysWithinPlannedRevenue() {
	tests := []struct {
		name     string
		revenue  string
		currency string
		steps    []string
	}{
		{name: "yen thirds", revenue: "101", currency: "jpy", steps: []string{"33.333", "66.667", "99.6", "100"}},
		{name: "rupiah cents", revenue: "100.05", currency: "idr", steps: []string{"12.5", "49.99", "99.995", "100"}},
	}

	for i, tt := range tests {
		s.Run(tt.name, func() {
			ctx := s.GetContext()
			m, err := s.service.CreateMilestone(ctx, dto.CreateMilestoneRequest{
				ProjectID:      s.project.ID,
				SequenceNumber: 10 + i,
				Name:           tt.name,
				PlannedStart:   s.start,
				PlannedEnd:     s.start.AddDate(0, 0, 30),
				PlannedRevenue: dec(tt.revenue),
				Currency:       tt.currency,
			})
			s.Require().NoError(err)

			var last *dto.MilestoneResponse
			for _, pct := range tt.steps {
				resp, err := s.recognize(m.ID, pct, nil)
				if ierr.IsNoOp(err) {
					continue
				}
				s.Require().NoError(err, "at %s%%", pct)
				s.True(resp.RecognizedRevenue.LessThanOrEqual(resp.PlannedRevenue), "at %s%%: %s", pct, resp.RecognizedRevenue)
				s.False(resp.RemainingRevenue.IsNegative(), "at %s%%: %s", pct, resp.RemainingRevenue)
				last = resp
			}

			s.Require().NotNil(last)
			s.True(last.RecognizedRevenue.Equal(dec(tt.revenue)))
			posted := decimal.Zero
			for _, e := range s.GetLedger().EntriesFor(ctx, ledger.ReferenceTypeMilestoneRecognize, m.ID) {
				posted = posted.Add(e.TotalDebit())
			}
			s.True(posted.Equal(dec(tt.revenue)), "posted %s", posted)
		})
	}
}

func (s *MilestoneServiceTestSuite) TestRecognize_NoOpWhenNotIncreasing() {
	m := s.create(1, "1000", nil)
	_, err := s.recognize(m.ID, "50", nil)
	s.Require().NoError(err)

	for _, pct := range []string{"50", "20", "50.0001"} {
		_, err := s.recognize(m.ID, pct, nil)
		s.True(ierr.IsNoOp(err), "pct %s: expected no-op, got %v", pct, err)
	}

	s.Len(s.GetLedger().EntriesFor(s.GetContext(), ledger.ReferenceTypeMilestoneRecognize, m.ID), 1)

	stored, err := s.service.GetMilestone(s.GetContext(), m.ID)
	s.Require().NoError(err)
	s.True(stored.RecognizedRevenue.Equal(dec("500")))
	s.True(stored.CompletionPercentage.Equal(dec("50")))
}

func (s *MilestoneServiceTestSuite) TestRecognize_Errors() {
	m := s.create(1, "1000", nil)
	ctx := s.GetContext()

	s.Run("percentage above 100", func() {
		_, err := s.recognize(m.ID, "100.5", nil)
		s.True(ierr.IsValidation(err))
	})

	s.Run("negative percentage", func() {
		_, err := s.recognize(m.ID, "-1", nil)
		s.True(ierr.IsValidation(err))
	})

	s.Run("unknown milestone", func() {
		_, err := s.recognize("ms_missing", "10", nil)
		s.True(ierr.IsNotFound(err))
	})

	s.Run("actual cost must not decrease", func() {
		_, err := s.recognize(m.ID, "10", lo.ToPtr("400"))
		s.Require().NoError(err)
		_, err = s.recognize(m.ID, "20", lo.ToPtr("399.99"))
		s.True(ierr.IsValidation(err))
	})

	s.Run("cancelled milestone", func() {
		cancelled, err := s.service.CancelMilestone(ctx, m.ID, dto.CancelMilestoneRequest{Reason: "scope cut"})
		s.Require().NoError(err)
		s.Equal(types.MilestoneStatusCancelled, cancelled.Status)
		s.Equal("scope cut", *cancelled.CancellationReason)

		_, err = s.recognize(m.ID, "90", nil)
		s.True(ierr.IsInvalidOperation(err))
	})
}

func (s *MilestoneServiceTestSuite) TestRecognize_LedgerFailureRollsBack() {
	m := s.create(1, "1000", nil)

	boom := errors.New("ledger unavailable")
	s.GetLedger().FailNext(boom)
	_, err := s.recognize(m.ID, "40", nil)
	s.ErrorIs(err, boom)

	stored, err := s.service.GetMilestone(s.GetContext(), m.ID)
	s.Require().NoError(err)
	s.Equal(types.MilestoneStatusPending, stored.Status)
	s.True(stored.RecognizedRevenue.IsZero())
	s.Nil(stored.ActualStart)

	retried, err := s.recognize(m.ID, "40", nil)
	s.Require().NoError(err)
	s.True(retried.RecognizedRevenue.Equal(dec("400")))
}

func (s *MilestoneServiceTestSuite) TestAccept_RequiresCompleted() {
	m := s.create(1, "1000", nil)
	_, err := s.service.AcceptMilestone(s.GetContext(), m.ID, dto.AcceptMilestoneRequest{AcceptedBy: "client"})
	s.True(ierr.IsInvalidOperation(err))

	_, err = s.service.AcceptMilestone(s.GetContext(), m.ID, dto.AcceptMilestoneRequest{})
	s.True(ierr.IsValidation(err))
}

func (s *MilestoneServiceTestSuite) TestRecordDelay() {
	m := s.create(1, "1000", nil)
	ctx := s.GetContext()

	delayed, err := s.service.RecordDelay(ctx, m.ID, dto.RecordMilestoneDelayRequest{DelayDays: 9, Reason: "permit"})
	s.Require().NoError(err)
	s.Equal(9, *delayed.DelayDays)
	s.Equal("permit", *delayed.DelayReason)

	_, err = s.service.RecordDelay(ctx, m.ID, dto.RecordMilestoneDelayRequest{DelayDays: -1})
	s.True(ierr.IsValidation(err))

	_, err = s.service.CancelMilestone(ctx, m.ID, dto.CancelMilestoneRequest{})
	s.Require().NoError(err)
	_, err = s.service.RecordDelay(ctx, m.ID, dto.RecordMilestoneDelayRequest{DelayDays: 2})
	s.True(ierr.IsInvalidOperation(err))
}

func (s *MilestoneServiceTestSuite) TestMutationsInvalidateScheduleCache() {
	m := s.create(1, "1000", nil)
	ctx := s.GetContext()
	_, err := s.scheduleService.AnalyzeProject(ctx, s.project.ID)
	s.Require().NoError(err)
	key := s.scheduleService.snapshotKey(ctx, s.project.ID)
	s.True(strings.HasPrefix(key, cache.GenerateKey(cache.PrefixScheduleAnalysis, testutil.TestTenantID, s.project.ID)))
	_, cached := s.GetCache().Get(ctx, key)
	s.True(cached)

	_, err = s.service.RecordDelay(ctx, m.ID, dto.RecordMilestoneDelayRequest{DelayDays: 8})
	s.Require().NoError(err)
	_, cached = s.GetCache().Get(ctx, key)
	s.False(cached)
	s.NotEqual(key, s.scheduleService.snapshotKey(ctx, s.project.ID))

	analysis, err := s.scheduleService.AnalyzeProject(ctx, s.project.ID)
	s.Require().NoError(err)
	s.Require().Len(analysis.Risks, 1)
	s.Contains(analysis.Risks[0].Reasons, "delayed 8 days")
}

package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/projectledger/projectledger/internal/api/dto"
	"github.com/projectledger/projectledger/internal/domain/ledger"
	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/testutil"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type DeferredRevenueServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	service  *deferredRevenueService
	accounts ledger.AccountChart
	paidAt   time.Time
}

func TestDeferredRevenueService(t *testing.T) {
	suite.Run(t, new(DeferredRevenueServiceTestSuite))
}

func (s *DeferredRevenueServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestServiceParams(&s.BaseServiceTestSuite)
	s.service = NewDeferredRevenueService(params).(*deferredRevenueService)
	s.accounts = params.Accounts()
	s.paidAt = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
}

func (s *DeferredRevenueServiceTestSuite) open(invoiceID, total string) *dto.DeferredRevenueResponse {
	resp, err := s.service.OpenDeferredRevenue(s.GetContext(), dto.OpenDeferredRevenueRequest{
		InvoiceID:             invoiceID,
		PaymentDate:           s.paidAt,
		TotalAmount:           dec(total),
		RecognitionDate:       s.paidAt.AddDate(0, 3, 0),
		ObligationDescription: "Implementation services",
	})
	s.Require().NoError(err)
	return resp
}

func (s *DeferredRevenueServiceTestSuite) recognize(id, amount string, pct *string) (*dto.DeferredRevenueResponse, error) {
	req := dto.RecognizeDeferredRevenueRequest{
		Amount:          dec(amount),
		RecognitionDate: s.paidAt.AddDate(0, 1, 0),
	}
	if pct != nil {
		req.CompletionPercentage = lo.ToPtr(dec(*pct))
	}
	return s.service.RecognizeDeferredRevenue(s.GetContext(), id, req)
}

func (s *DeferredRevenueServiceTestSuite) TestOpen_PostsCashAgainstLiability() {
	resp := s.open("INV-1", "100000000")

	s.Equal(types.DeferredRevenueStatusDeferred, resp.RevenueStatus)
	s.True(resp.RecognizedAmount.IsZero())
	s.True(resp.RemainingAmount.Equal(dec("100000000")))
	s.NotEmpty(resp.OpeningEntryID)

	ctx := s.GetContext()
	s.True(s.GetLedger().Balance(ctx, s.accounts.Cash).Equal(dec("100000000")))
	s.True(s.GetLedger().Balance(ctx, s.accounts.DeferredRevenue).Equal(dec("-100000000")))

	entries := s.GetLedger().EntriesFor(ctx, ledger.ReferenceTypeDeferredRevenueOpen, resp.ID)
	s.Require().Len(entries, 1)
	s.Equal(resp.OpeningEntryID, entries[0].ID)

	s.Require().Len(s.GetDB().Locks(), 1)
	s.True(strings.HasPrefix(s.GetDB().Locks()[0], string(types.LockScopeDeferredRevenueInvoice)))
	s.Contains(s.GetDB().Locks()[0], "invoice_id=INV-1")
}

func (s *DeferredRevenueServiceTestSuite) TestOpen_ConflictWhileActive() {
	first := s.open("INV-1", "1000")

	_, err := s.service.OpenDeferredRevenue(s.GetContext(), dto.OpenDeferredRevenueRequest{
		InvoiceID:       "INV-1",
		PaymentDate:     s.paidAt,
		TotalAmount:     dec("500"),
		RecognitionDate: s.paidAt,
	})
	s.True(ierr.IsAlreadyExists(err))

	// Partially recognized is still active
	_, err = s.recognize(first.ID, "400", nil)
	s.Require().NoError(err)
	_, err = s.service.OpenDeferredRevenue(s.GetContext(), dto.OpenDeferredRevenueRequest{
		InvoiceID:       "INV-1",
		PaymentDate:     s.paidAt,
		TotalAmount:     dec("500"),
		RecognitionDate: s.paidAt,
	})
	s.True(ierr.IsAlreadyExists(err))

	// Once fully recognized a new advance can be opened for the same invoice
	_, err = s.recognize(first.ID, "600", nil)
	s.Require().NoError(err)
	second := s.open("INV-1", "500")
	s.NotEqual(first.ID, second.ID)

	list, err := s.service.ListDeferredRevenuesByInvoice(s.GetContext(), "INV-1")
	s.Require().NoError(err)
	s.Len(list, 2)
}

func (s *DeferredRevenueServiceTestSuite) TestOpen_Validation() {
	tests := []struct {
		name string
		req  dto.OpenDeferredRevenueRequest
	}{
		{
			name: "empty invoice id",
			req:  dto.OpenDeferredRevenueRequest{InvoiceID: "  ", PaymentDate: s.paidAt, TotalAmount: dec("10"), RecognitionDate: s.paidAt},
		},
		{
			name: "zero total",
			req:  dto.OpenDeferredRevenueRequest{InvoiceID: "INV-2", PaymentDate: s.paidAt, TotalAmount: dec("0"), RecognitionDate: s.paidAt},
		},
		{
			name: "negative total",
			req:  dto.OpenDeferredRevenueRequest{InvoiceID: "INV-2", PaymentDate: s.paidAt, TotalAmount: dec("-1"), RecognitionDate: s.paidAt},
		},
		{
			name: "total below the minor unit",
			req:  dto.OpenDeferredRevenueRequest{InvoiceID: "INV-2", PaymentDate: s.paidAt, TotalAmount: dec("100.005"), RecognitionDate: s.paidAt},
		},
		{
			name: "fractional yen",
			req:  dto.OpenDeferredRevenueRequest{InvoiceID: "INV-2", PaymentDate: s.paidAt, TotalAmount: dec("100.5"), RecognitionDate: s.paidAt, Currency: "JPY"},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.OpenDeferredRevenue(s.GetContext(), tt.req)
			s.True(ierr.IsValidation(err), "expected validation error, got %v", err)
		})
	}
	s.Empty(s.GetLedger().Entries(s.GetContext()))
}

func (s *DeferredRevenueServiceTestSuite) TestRecognize_PartialThenFull() {
	opened := s.open("INV-1", "100000000")

	partial, err := s.recognize(opened.ID, "40000000", nil)
	s.Require().NoError(err)
	s.Equal(types.DeferredRevenueStatusPartiallyRecognized, partial.RevenueStatus)
	s.True(partial.CompletionPercentage.Equal(dec("40")))
	s.True(partial.RemainingAmount.Equal(dec("60000000")))
	s.True(partial.RecognizedAmount.Add(partial.RemainingAmount).Equal(partial.TotalAmount))

	full, err := s.recognize(opened.ID, "60000000", lo.ToPtr("100"))
	s.Require().NoError(err)
	s.Equal(types.DeferredRevenueStatusFullyRecognized, full.RevenueStatus)
	s.True(full.RemainingAmount.IsZero())
	s.NotNil(full.LastJournalEntryID)

	ctx := s.GetContext()
	s.True(s.GetLedger().Balance(ctx, s.accounts.DeferredRevenue).IsZero())
	s.True(s.GetLedger().Balance(ctx, s.accounts.Revenue).Equal(dec("-100000000")))
	s.Len(s.GetLedger().EntriesFor(ctx, ledger.ReferenceTypeDeferredRevenueRecognize, opened.ID), 2)

	stored, err := s.service.GetDeferredRevenue(ctx, opened.ID)
	s.Require().NoError(err)
	s.Equal(types.DeferredRevenueStatusFullyRecognized, stored.RevenueStatus)
}

func (s *DeferredRevenueServiceTestSuite) TestRecognize_Errors() {
	opened := s.open("INV-1", "1000")

	s.Run("unknown record", func() {
		_, err := s.recognize("drev_missing", "10", nil)
		s.True(ierr.IsNotFound(err))
	})

	s.Run("zero amount", func() {
		_, err := s.recognize(opened.ID, "0", nil)
		s.True(ierr.IsValidation(err))
	})

	s.Run("amount above remaining", func() {
		_, err := s.recognize(opened.ID, "1000.01", nil)
		s.True(ierr.IsValidation(err))
	})

	s.Run("percentage out of range", func() {
		_, err := s.recognize(opened.ID, "10", lo.ToPtr("120"))
		s.True(ierr.IsValidation(err))
	})

	s.Run("fully recognized is checked before the amount", func() {
		_, err := s.recognize(opened.ID, "1000", nil)
		s.Require().NoError(err)

		_, err = s.recognize(opened.ID, "0", nil)
		s.True(ierr.IsInvalidOperation(err))
	})
}

func (s *DeferredRevenueServiceTestSuite) TestRecognize_LedgerFailureRollsBack() {
	opened := s.open("INV-1", "1000")
	entriesBefore := len(s.GetLedger().Entries(s.GetContext()))

	boom := errors.New("ledger unavailable")
	s.GetLedger().FailNext(boom)

	_, err := s.recognize(opened.ID, "250", nil)
	s.ErrorIs(err, boom)

	stored, err := s.service.GetDeferredRevenue(s.GetContext(), opened.ID)
	s.Require().NoError(err)
	s.True(stored.RecognizedAmount.IsZero())
	s.Equal(types.DeferredRevenueStatusDeferred, stored.RevenueStatus)
	s.Len(s.GetLedger().Entries(s.GetContext()), entriesBefore)
}

func (s *DeferredRevenueServiceTestSuite) TestOpen_LedgerFailureLeavesNoRecord() {
	boom := errors.New("ledger unavailable")
	s.GetLedger().FailNext(boom)

	_, err := s.service.OpenDeferredRevenue(s.GetContext(), dto.OpenDeferredRevenueRequest{
		InvoiceID:       "INV-9",
		PaymentDate:     s.paidAt,
		TotalAmount:     dec("1000"),
		RecognitionDate: s.paidAt,
	})
	s.ErrorIs(err, boom)

	list, err := s.service.ListDeferredRevenuesByInvoice(s.GetContext(), "INV-9")
	s.Require().NoError(err)
	s.Empty(list)
}

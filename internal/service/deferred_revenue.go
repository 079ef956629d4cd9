package service

import (
	"context"

	"github.com/projectledger/projectledger/internal/api/dto"
	"github.com/projectledger/projectledger/internal/domain/deferredrevenue"
	"github.com/projectledger/projectledger/internal/domain/ledger"
	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/interfaces"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/samber/lo"
)

type deferredRevenueService struct {
	ServiceParams
}

// NewDeferredRevenueService creates the ledger of advance payments awaiting recognition.
func NewDeferredRevenueService(params ServiceParams) interfaces.DeferredRevenueService {
	return &deferredRevenueService{
		ServiceParams: params,
	}
}

// OpenDeferredRevenue books an advance payment as a liability: Dr cash, Cr deferred revenue.
func (s *deferredRevenueService) OpenDeferredRevenue(ctx context.Context, req dto.OpenDeferredRevenueRequest) (*dto.DeferredRevenueResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d := req.ToDeferredRevenue(ctx, s.Config.Accounting.Currency)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	accounts := s.Accounts()

	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		lockKey := types.GenerateLockKey(txCtx, types.LockScopeDeferredRevenueInvoice, map[string]interface{}{
			"invoice_id": d.InvoiceID,
		})
		if err := s.DB.LockKey(txCtx, types.LockRequest{Key: lockKey}); err != nil {
			return err
		}

		existing, err := s.DeferredRevenueRepo.GetActiveByInvoice(txCtx, d.InvoiceID)
		if err != nil && !ierr.IsNotFound(err) {
			return err
		}
		if existing != nil {
			return ierr.NewErrorf("invoice %s already has active deferred revenue", d.InvoiceID).
				WithHint("Recognize the existing deferred revenue before opening another").
				WithReportableDetails(map[string]interface{}{
					"invoice_id":          d.InvoiceID,
					"deferred_revenue_id": existing.ID,
					"revenue_status":      existing.RevenueStatus,
				}).
				Mark(ierr.ErrAlreadyExists)
		}

		tags := map[string]string{"invoice_id": d.InvoiceID, "deferred_revenue_id": d.ID}
		entry := ledger.NewEntry(d.PaymentDate, d.Currency, ledger.ReferenceTypeDeferredRevenueOpen, d.ID,
			"Advance payment received for invoice "+d.InvoiceID).
			Debit(accounts.Cash, d.TotalAmount, tags).
			Credit(accounts.DeferredRevenue, d.TotalAmount, tags).
			WithIdempotencyKey(d.TotalAmount)

		entryID, err := s.Ledger.Post(txCtx, entry)
		if err != nil {
			return err
		}
		d.OpeningEntryID = entryID

		return s.DeferredRevenueRepo.Create(txCtx, d)
	})
	if err != nil {
		s.Logger.WithContext(ctx).Errorw("failed to open deferred revenue",
			"invoice_id", d.InvoiceID,
			"error", err)
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("opened deferred revenue",
		"deferred_revenue_id", d.ID,
		"invoice_id", d.InvoiceID,
		"total_amount", d.TotalAmount.String(),
		"journal_entry_id", d.OpeningEntryID)

	return &dto.DeferredRevenueResponse{DeferredRevenue: d}, nil
}

// RecognizeDeferredRevenue earns part of a deferred balance: Dr deferred revenue, Cr revenue.
func (s *deferredRevenueService) RecognizeDeferredRevenue(ctx context.Context, id string, req dto.RecognizeDeferredRevenueRequest) (*dto.DeferredRevenueResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	accounts := s.Accounts()
	var result *deferredrevenue.DeferredRevenue

	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		d, err := s.DeferredRevenueRepo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		if err := d.CheckRecognizable(req.Amount, req.CompletionPercentage); err != nil {
			return err
		}

		d.ApplyRecognition(req.Amount, req.CompletionPercentage, req.RecognitionDate)
		d.UpdatedAt = s.now()
		d.UpdatedBy = types.GetUserID(txCtx)

		tags := map[string]string{"invoice_id": d.InvoiceID, "deferred_revenue_id": d.ID}
		entry := ledger.NewEntry(req.RecognitionDate, d.Currency, ledger.ReferenceTypeDeferredRevenueRecognize, d.ID,
			"Revenue recognized from deferred balance of invoice "+d.InvoiceID).
			Debit(accounts.DeferredRevenue, req.Amount, tags).
			Credit(accounts.Revenue, req.Amount, tags).
			WithIdempotencyKey(d.RecognizedAmount)

		entryID, err := s.Ledger.Post(txCtx, entry)
		if err != nil {
			return err
		}
		d.LastJournalEntryID = lo.ToPtr(entryID)

		if err := s.DeferredRevenueRepo.Update(txCtx, d); err != nil {
			return err
		}
		result = d
		return nil
	})
	if err != nil {
		if !ierr.IsValidation(err) && !ierr.IsNotFound(err) {
			s.Logger.WithContext(ctx).Errorw("failed to recognize deferred revenue",
				"deferred_revenue_id", id,
				"amount", req.Amount.String(),
				"error", err)
		}
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("recognized deferred revenue",
		"deferred_revenue_id", result.ID,
		"amount", req.Amount.String(),
		"remaining_amount", result.RemainingAmount.String(),
		"revenue_status", result.RevenueStatus)

	return &dto.DeferredRevenueResponse{DeferredRevenue: result}, nil
}

func (s *deferredRevenueService) GetDeferredRevenue(ctx context.Context, id string) (*dto.DeferredRevenueResponse, error) {
	d, err := s.DeferredRevenueRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.DeferredRevenueResponse{DeferredRevenue: d}, nil
}

func (s *deferredRevenueService) ListDeferredRevenuesByInvoice(ctx context.Context, invoiceID string) ([]*dto.DeferredRevenueResponse, error) {
	if invoiceID == "" {
		return nil, ierr.NewError("invoice_id is required").
			WithHint("Provide the invoice to list deferred revenue for").
			Mark(ierr.ErrValidation)
	}

	records, err := s.DeferredRevenueRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	return lo.Map(records, func(d *deferredrevenue.DeferredRevenue, _ int) *dto.DeferredRevenueResponse {
		return &dto.DeferredRevenueResponse{DeferredRevenue: d}
	}), nil
}

package dto

import (
	"context"
	"strings"
	"time"

	"github.com/projectledger/projectledger/internal/domain/deferredrevenue"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/projectledger/projectledger/internal/validator"
	"github.com/shopspring/decimal"
)

type OpenDeferredRevenueRequest struct {
	InvoiceID             string          `json:"invoice_id" validate:"required"`
	PaymentDate           time.Time       `json:"payment_date" validate:"required"`
	TotalAmount           decimal.Decimal `json:"total_amount" validate:"decimal_gt0"`
	RecognitionDate       time.Time       `json:"recognition_date" validate:"required"`
	ObligationDescription string          `json:"obligation_description"`
	Currency              string          `json:"currency,omitempty" validate:"omitempty,len=3"`
}

func (r *OpenDeferredRevenueRequest) Validate() error {
	r.InvoiceID = strings.TrimSpace(r.InvoiceID)
	r.Currency = strings.ToLower(r.Currency)
	return validator.ValidateRequest(r)
}

// ToDeferredRevenue builds a DEFERRED record with nothing recognized yet.
func (r *OpenDeferredRevenueRequest) ToDeferredRevenue(ctx context.Context, defaultCurrency string) *deferredrevenue.DeferredRevenue {
	currency := r.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	return &deferredrevenue.DeferredRevenue{
		ID:                    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DEFERRED_REVENUE),
		InvoiceID:             r.InvoiceID,
		PaymentDate:           r.PaymentDate,
		RecognitionDate:       r.RecognitionDate,
		ObligationDescription: r.ObligationDescription,
		Currency:              currency,
		TotalAmount:           r.TotalAmount,
		RecognizedAmount:      decimal.Zero,
		RemainingAmount:       r.TotalAmount,
		CompletionPercentage:  decimal.Zero,
		RevenueStatus:         types.DeferredRevenueStatusDeferred,
		BaseModel:             types.GetDefaultBaseModel(ctx),
	}
}

// RecognizeDeferredRevenueRequest earns part of a deferred balance. Amount checks run against the
// stored record, after the record is found and its status allows recognition.
type RecognizeDeferredRevenueRequest struct {
	Amount               decimal.Decimal  `json:"amount"`
	RecognitionDate      time.Time        `json:"recognition_date" validate:"required"`
	CompletionPercentage *decimal.Decimal `json:"completion_percentage,omitempty"`
}

func (r *RecognizeDeferredRevenueRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type DeferredRevenueResponse struct {
	*deferredrevenue.DeferredRevenue
}

package deferredrevenue

import (
	"time"

	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DeferredRevenue is an advance payment held as a liability until it is earned.
type DeferredRevenue struct {
	ID                    string                      `db:"id" json:"id"`
	InvoiceID             string                      `db:"invoice_id" json:"invoice_id"`
	PaymentDate           time.Time                   `db:"payment_date" json:"payment_date"`
	RecognitionDate       time.Time                   `db:"recognition_date" json:"recognition_date"`
	ObligationDescription string                      `db:"obligation_description" json:"obligation_description"`
	Currency              string                      `db:"currency" json:"currency"`
	TotalAmount           decimal.Decimal             `db:"total_amount" json:"total_amount"`
	RecognizedAmount      decimal.Decimal             `db:"recognized_amount" json:"recognized_amount"`
	RemainingAmount       decimal.Decimal             `db:"remaining_amount" json:"remaining_amount"`
	CompletionPercentage  decimal.Decimal             `db:"completion_percentage" json:"completion_percentage"`
	RevenueStatus         types.DeferredRevenueStatus `db:"revenue_status" json:"revenue_status"`
	OpeningEntryID        string                      `db:"opening_entry_id" json:"opening_entry_id"`
	LastRecognizedAt      *time.Time                  `db:"last_recognized_at" json:"last_recognized_at,omitempty"`
	LastJournalEntryID    *string                     `db:"last_journal_entry_id" json:"last_journal_entry_id,omitempty"`
	types.BaseModel
}

// Validate checks the opening amount against the currency's minor unit.
func (d *DeferredRevenue) Validate() error {
	if !types.FitsCurrencyPrecision(d.TotalAmount, d.Currency) {
		return ierr.NewError("total_amount is finer than the currency allows").
			WithHintf("Amounts in %s take at most %d decimals", d.Currency, types.GetCurrencyPrecision(d.Currency)).
			WithReportableDetails(map[string]interface{}{
				"total_amount": d.TotalAmount.String(),
				"currency":     d.Currency,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CheckRecognizable validates a recognition of amount against the current balance.
func (d *DeferredRevenue) CheckRecognizable(amount decimal.Decimal, pct *decimal.Decimal) error {
	if d.RevenueStatus == types.DeferredRevenueStatusFullyRecognized {
		return ierr.NewError("deferred revenue is fully recognized").
			WithHint("Nothing remains to be recognized for this invoice").
			WithReportableDetails(map[string]interface{}{
				"deferred_revenue_id": d.ID,
				"invoice_id":          d.InvoiceID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if !amount.IsPositive() {
		return ierr.NewError("recognition amount must be positive").
			WithHint("Amount to recognize must be greater than zero").
			WithReportableDetails(map[string]interface{}{"amount": amount.String()}).
			Mark(ierr.ErrValidation)
	}

	if !types.FitsStoredScale(amount) {
		return ierr.NewError("recognition amount has too many decimals").
			WithHintf("Amounts take at most %d decimals", types.StoredAmountScale).
			WithReportableDetails(map[string]interface{}{"amount": amount.String()}).
			Mark(ierr.ErrValidation)
	}

	if amount.GreaterThan(d.RemainingAmount) {
		return ierr.NewError("recognition amount exceeds remaining deferred revenue").
			WithHintf("At most %s can still be recognized", d.RemainingAmount.String()).
			WithReportableDetails(map[string]interface{}{
				"amount":           amount.String(),
				"remaining_amount": d.RemainingAmount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if pct != nil && !types.IsValidPercentage(*pct) {
		return ierr.NewError("completion percentage out of range").
			WithHint("Completion percentage must be between 0 and 100").
			WithReportableDetails(map[string]interface{}{"completion_percentage": pct.String()}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// ApplyRecognition moves amount from remaining to recognized and derives the status.
func (d *DeferredRevenue) ApplyRecognition(amount decimal.Decimal, pct *decimal.Decimal, at time.Time) {
	d.RecognizedAmount = d.RecognizedAmount.Add(amount)
	d.RemainingAmount = d.TotalAmount.Sub(d.RecognizedAmount)

	if pct != nil {
		d.CompletionPercentage = *pct
	} else {
		d.CompletionPercentage = types.RatioPercent(d.RecognizedAmount, d.TotalAmount)
	}

	if d.RemainingAmount.LessThan(types.RecognitionEpsilon) {
		d.RevenueStatus = types.DeferredRevenueStatusFullyRecognized
	} else {
		d.RevenueStatus = types.DeferredRevenueStatusPartiallyRecognized
	}
	d.LastRecognizedAt = lo.ToPtr(at)
}

// Copy returns a deep copy so that stores never hand out shared pointers.
func (d *DeferredRevenue) Copy() *DeferredRevenue {
	if d == nil {
		return nil
	}
	c := *d
	if d.LastRecognizedAt != nil {
		c.LastRecognizedAt = lo.ToPtr(*d.LastRecognizedAt)
	}
	if d.LastJournalEntryID != nil {
		c.LastJournalEntryID = lo.ToPtr(*d.LastJournalEntryID)
	}
	return &c
}

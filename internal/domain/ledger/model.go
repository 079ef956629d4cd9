package ledger

import (
	"context"
	"fmt"
	"time"

	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type ReferenceType string

const (
	ReferenceTypeDeferredRevenueOpen      ReferenceType = "DEFERRED_REVENUE_OPEN"
	ReferenceTypeDeferredRevenueRecognize ReferenceType = "DEFERRED_REVENUE_RECOGNIZE"
	ReferenceTypeMilestoneRecognize       ReferenceType = "MILESTONE_RECOGNIZE"
	ReferenceTypeWIPAccumulate            ReferenceType = "WIP_ACCUMULATE"
)

// Line is one side of a journal entry. Exactly one of Debit and Credit is non-zero.
type Line struct {
	AccountCode string            `json:"account_code"`
	Debit       decimal.Decimal   `json:"debit"`
	Credit      decimal.Decimal   `json:"credit"`
	Description string            `json:"description,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// Entry is a balanced set of lines handed to the Gateway.
type Entry struct {
	EntryDate      time.Time     `json:"entry_date"`
	Description    string        `json:"description"`
	Currency       string        `json:"currency"`
	ReferenceType  ReferenceType `json:"reference_type"`
	ReferenceID    string        `json:"reference_id"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
	Lines          []Line        `json:"lines"`
}

// NewEntry starts an entry for a reference. Lines are added with Debit and Credit.
func NewEntry(date time.Time, currency string, refType ReferenceType, refID, description string) *Entry {
	return &Entry{
		EntryDate:     date,
		Description:   description,
		Currency:      currency,
		ReferenceType: refType,
		ReferenceID:   refID,
	}
}

// Debit appends a debit line. Zero amounts are skipped.
func (e *Entry) Debit(accountCode string, amount decimal.Decimal, tags map[string]string) *Entry {
	if amount.IsZero() {
		return e
	}
	e.Lines = append(e.Lines, Line{AccountCode: accountCode, Debit: amount, Credit: decimal.Zero, Tags: tags})
	return e
}

// Credit appends a credit line. Zero amounts are skipped.
func (e *Entry) Credit(accountCode string, amount decimal.Decimal, tags map[string]string) *Entry {
	if amount.IsZero() {
		return e
	}
	e.Lines = append(e.Lines, Line{AccountCode: accountCode, Debit: decimal.Zero, Credit: amount, Tags: tags})
	return e
}

// WithIdempotencyKey keys the entry on the reference and the running amount it brings the
// reference to, so a replayed posting resolves to the entry already written.
func (e *Entry) WithIdempotencyKey(runningAmount decimal.Decimal) *Entry {
	e.IdempotencyKey = fmt.Sprintf("%s:%s:%s", e.ReferenceType, e.ReferenceID, runningAmount.String())
	return e
}

func (e *Entry) TotalDebit() decimal.Decimal {
	return lo.Reduce(e.Lines, func(acc decimal.Decimal, l Line, _ int) decimal.Decimal {
		return acc.Add(l.Debit)
	}, decimal.Zero)
}

func (e *Entry) TotalCredit() decimal.Decimal {
	return lo.Reduce(e.Lines, func(acc decimal.Decimal, l Line, _ int) decimal.Decimal {
		return acc.Add(l.Credit)
	}, decimal.Zero)
}

// Validate checks the structural rules every gateway relies on: at least two lines, one-sided
// non-negative lines with an account code, and debits equal to credits.
func (e *Entry) Validate() error {
	if e.ReferenceID == "" || e.ReferenceType == "" {
		return ierr.NewError("journal entry must reference its source").
			WithHint("Set reference type and reference id").
			Mark(ierr.ErrValidation)
	}

	if len(e.Lines) < 2 {
		return ierr.NewError("journal entry must have at least 2 lines").
			WithHint("A posting needs a debit and a credit side").
			WithReportableDetails(map[string]interface{}{"lines": len(e.Lines)}).
			Mark(ierr.ErrValidation)
	}

	for i, l := range e.Lines {
		if l.AccountCode == "" {
			return ierr.NewErrorf("line %d has no account code", i).
				WithHint("Every journal line must name an account").
				Mark(ierr.ErrValidation)
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return ierr.NewErrorf("line %d has a negative amount", i).
				WithHint("Debit and credit amounts must be zero or more").
				Mark(ierr.ErrValidation)
		}
		if l.Debit.IsZero() == l.Credit.IsZero() {
			return ierr.NewErrorf("line %d must be either a debit or a credit", i).
				WithHint("Each line carries exactly one non-zero side").
				WithReportableDetails(map[string]interface{}{
					"account_code": l.AccountCode,
					"debit":        l.Debit.String(),
					"credit":       l.Credit.String(),
				}).
				Mark(ierr.ErrValidation)
		}
	}

	debit, credit := e.TotalDebit(), e.TotalCredit()
	if !debit.Equal(credit) {
		return ierr.NewError("journal entry is not balanced").
			WithHint("Total debits must equal total credits").
			WithReportableDetails(map[string]interface{}{
				"total_debit":  debit.String(),
				"total_credit": credit.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// Gateway posts balanced entries to the general ledger and returns the posted entry id.
// Implementations must join the transaction carried by ctx when they share the store.
type Gateway interface {
	Post(ctx context.Context, entry *Entry) (string, error)
}

// AccountChart maps each posting role to an account code of the tenant's chart of accounts.
type AccountChart struct {
	Cash            string
	DeferredRevenue string
	Revenue         string
	UnbilledRevenue string
	WorkInProgress  string
	MaterialPayable string
	AccruedLabor    string
	AccruedExpenses string
	AppliedOverhead string
}

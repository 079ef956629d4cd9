package types

import (
	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/samber/lo"
)

type DeferredRevenueStatus string

const (
	DeferredRevenueStatusDeferred            DeferredRevenueStatus = "DEFERRED"
	DeferredRevenueStatusPartiallyRecognized DeferredRevenueStatus = "PARTIALLY_RECOGNIZED"
	DeferredRevenueStatusFullyRecognized     DeferredRevenueStatus = "FULLY_RECOGNIZED"
)

var DeferredRevenueStatuses = []DeferredRevenueStatus{
	DeferredRevenueStatusDeferred,
	DeferredRevenueStatusPartiallyRecognized,
	DeferredRevenueStatusFullyRecognized,
}

func (s DeferredRevenueStatus) String() string {
	return string(s)
}

func (s DeferredRevenueStatus) Validate() error {
	if !lo.Contains(DeferredRevenueStatuses, s) {
		return ierr.NewErrorf("invalid deferred revenue status %q", s).
			WithHintf("Deferred revenue status must be one of %v", DeferredRevenueStatuses).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsActive reports whether the record still holds an unearned balance. An invoice can have at
// most one active record.
func (s DeferredRevenueStatus) IsActive() bool {
	return s == DeferredRevenueStatusDeferred || s == DeferredRevenueStatusPartiallyRecognized
}

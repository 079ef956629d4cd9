package service

import (
	"github.com/projectledger/projectledger/internal/testutil"
	"github.com/shopspring/decimal"
)

func newTestServiceParams(b *testutil.BaseServiceTestSuite) ServiceParams {
	stores := b.GetStores()
	return NewServiceParams(
		b.GetLogger(),
		b.GetConfig(),
		b.GetDB(),
		stores.ProjectRepo,
		stores.MilestoneRepo,
		stores.DeferredRevenueRepo,
		stores.WIPRepo,
		b.GetLedger(),
		b.GetCache(),
		b.GetClock(),
	)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

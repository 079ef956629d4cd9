// Package service implements the revenue recognition, cost accumulation and schedule analysis
// operations on top of the domain repositories and the ledger gateway.
package service

import (
	"time"

	"github.com/projectledger/projectledger/internal/cache"
	"github.com/projectledger/projectledger/internal/config"
	"github.com/projectledger/projectledger/internal/domain/deferredrevenue"
	"github.com/projectledger/projectledger/internal/domain/ledger"
	"github.com/projectledger/projectledger/internal/domain/milestone"
	"github.com/projectledger/projectledger/internal/domain/project"
	"github.com/projectledger/projectledger/internal/domain/wip"
	"github.com/projectledger/projectledger/internal/logger"
	"github.com/projectledger/projectledger/internal/postgres"
	"github.com/projectledger/projectledger/internal/types"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	ProjectRepo         project.Repository
	MilestoneRepo       milestone.Repository
	DeferredRevenueRepo deferredrevenue.Repository
	WIPRepo             wip.Repository

	Ledger ledger.Gateway
	Cache  cache.Cache
	Clock  types.Clock
}

// NewServiceParams creates common service parameters
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	projectRepo project.Repository,
	milestoneRepo milestone.Repository,
	deferredRevenueRepo deferredrevenue.Repository,
	wipRepo wip.Repository,
	ledgerGateway ledger.Gateway,
	cache cache.Cache,
	clock types.Clock,
) ServiceParams {
	return ServiceParams{
		Logger:              logger,
		Config:              config,
		DB:                  db,
		ProjectRepo:         projectRepo,
		MilestoneRepo:       milestoneRepo,
		DeferredRevenueRepo: deferredRevenueRepo,
		WIPRepo:             wipRepo,
		Ledger:              ledgerGateway,
		Cache:               cache,
		Clock:               clock,
	}
}

// Accounts returns the posting roles resolved against the configured chart of accounts.
func (p ServiceParams) Accounts() ledger.AccountChart {
	a := p.Config.Accounting.Accounts
	return ledger.AccountChart{
		Cash:            a.Cash,
		DeferredRevenue: a.DeferredRevenue,
		Revenue:         a.Revenue,
		UnbilledRevenue: a.UnbilledRevenue,
		WorkInProgress:  a.WorkInProgress,
		MaterialPayable: a.MaterialPayable,
		AccruedLabor:    a.AccruedLabor,
		AccruedExpenses: a.AccruedExpenses,
		AppliedOverhead: a.AppliedOverhead,
	}
}

func (p ServiceParams) now() time.Time {
	if p.Clock == nil {
		return time.Now().UTC()
	}
	return p.Clock.Now()
}

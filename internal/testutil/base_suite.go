package testutil

import (
	"context"
	"time"

	"github.com/projectledger/projectledger/internal/cache"
	"github.com/projectledger/projectledger/internal/config"
	"github.com/projectledger/projectledger/internal/domain/milestone"
	"github.com/projectledger/projectledger/internal/domain/project"
	"github.com/projectledger/projectledger/internal/logger"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const (
	TestTenantID = "tenant_test"
	TestUserID   = "user_test"
)

// Stores holds all in-memory repositories used by service tests
type Stores struct {
	ProjectRepo         *InMemoryProjectStore
	MilestoneRepo       *InMemoryMilestoneStore
	DeferredRevenueRepo *InMemoryDeferredRevenueStore
	WIPRepo             *InMemoryWIPStore
}

// BaseServiceTestSuite wires fresh in-memory infrastructure for every test
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	ledger *InMemoryLedger
	db     *MockPostgresClient
	cache  cache.Cache
	logger *logger.Logger
	config *config.Configuration
	clock  *FixedClock
}

// SetupTest runs before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = types.SetUserID(types.SetTenantID(context.Background(), TestTenantID), TestUserID)

	s.stores = Stores{
		ProjectRepo:         NewInMemoryProjectStore(),
		MilestoneRepo:       NewInMemoryMilestoneStore(),
		DeferredRevenueRepo: NewInMemoryDeferredRevenueStore(),
		WIPRepo:             NewInMemoryWIPStore(),
	}
	s.ledger = NewInMemoryLedger()
	s.db = NewMockPostgresClient(
		s.stores.ProjectRepo,
		s.stores.MilestoneRepo,
		s.stores.DeferredRevenueRepo,
		s.stores.WIPRepo,
		s.ledger,
	)

	s.config = config.GetDefaultConfig()
	s.config.Cache.Enabled = true
	s.config.Cache.Type = string(cache.CacheTypeInMemory)
	s.logger = logger.NewNopLogger()
	s.cache = cache.Initialize(s.config, s.logger, nil)
	s.clock = NewFixedClock(time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC))
}

// TearDownTest runs after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetLedger() *InMemoryLedger {
	return s.ledger
}

func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetClock() *FixedClock {
	return s.clock
}

func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.clock.Now()
}

// CreateTestProject seeds an active project
func (s *BaseServiceTestSuite) CreateTestProject(code string) *project.Project {
	p := &project.Project{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROJECT),
		Code:      code,
		Name:      "Project " + code,
		Status:    types.ProjectStatusActive,
		Currency:  s.config.Accounting.Currency,
		BaseModel: types.GetDefaultBaseModel(s.ctx),
	}
	s.Require().NoError(s.stores.ProjectRepo.Create(s.ctx, p))
	return p
}

// CreateTestMilestone seeds a pending milestone directly in the store
func (s *BaseServiceTestSuite) CreateTestMilestone(projectID string, seq int, name string, start time.Time, days int, revenue decimal.Decimal, predecessorID *string) *milestone.Milestone {
	m := &milestone.Milestone{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MILESTONE),
		ProjectID:            projectID,
		SequenceNumber:       seq,
		Name:                 name,
		PlannedStart:         start,
		PlannedEnd:           start.AddDate(0, 0, days),
		PlannedRevenue:       revenue,
		RecognizedRevenue:    decimal.Zero,
		RemainingRevenue:     revenue,
		ActualCost:           decimal.Zero,
		CompletionPercentage: decimal.Zero,
		Currency:             s.config.Accounting.Currency,
		PredecessorID:        predecessorID,
		Status:               types.MilestoneStatusPending,
		BaseModel:            types.GetDefaultBaseModel(s.ctx),
	}
	s.Require().NoError(s.stores.MilestoneRepo.Create(s.ctx, m))
	return m
}

// Ptr is a shorthand for lo.ToPtr in table tests
func Ptr[T any](v T) *T {
	return lo.ToPtr(v)
}

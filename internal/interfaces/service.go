package interfaces

import (
	"context"
	"time"

	"github.com/projectledger/projectledger/internal/api/dto"
)

type DeferredRevenueService interface {
	OpenDeferredRevenue(ctx context.Context, req dto.OpenDeferredRevenueRequest) (*dto.DeferredRevenueResponse, error)
	RecognizeDeferredRevenue(ctx context.Context, id string, req dto.RecognizeDeferredRevenueRequest) (*dto.DeferredRevenueResponse, error)
	GetDeferredRevenue(ctx context.Context, id string) (*dto.DeferredRevenueResponse, error)
	ListDeferredRevenuesByInvoice(ctx context.Context, invoiceID string) ([]*dto.DeferredRevenueResponse, error)
}

type WIPService interface {
	AccumulateCosts(ctx context.Context, req dto.AccumulateCostsRequest) (*dto.WorkInProgressResponse, error)
	GetPeriod(ctx context.Context, projectID string, period time.Time) (*dto.WorkInProgressResponse, error)
	ListProjectPeriods(ctx context.Context, projectID string) ([]*dto.WorkInProgressResponse, error)
}

type MilestoneService interface {
	CreateMilestone(ctx context.Context, req dto.CreateMilestoneRequest) (*dto.MilestoneResponse, error)
	RecognizeRevenue(ctx context.Context, id string, req dto.RecognizeMilestoneRevenueRequest) (*dto.MilestoneResponse, error)
	AcceptMilestone(ctx context.Context, id string, req dto.AcceptMilestoneRequest) (*dto.MilestoneResponse, error)
	CancelMilestone(ctx context.Context, id string, req dto.CancelMilestoneRequest) (*dto.MilestoneResponse, error)
	RecordDelay(ctx context.Context, id string, req dto.RecordMilestoneDelayRequest) (*dto.MilestoneResponse, error)
	GetMilestone(ctx context.Context, id string) (*dto.MilestoneResponse, error)
	ListProjectMilestones(ctx context.Context, projectID string) ([]*dto.MilestoneResponse, error)
}

type ScheduleService interface {
	AnalyzeProject(ctx context.Context, projectID string) (*dto.ScheduleAnalysisResponse, error)
	InvalidateProject(ctx context.Context, projectID string)
	AnalyzePortfolio(ctx context.Context, projectIDs []string) (*dto.PortfolioAnalysisResponse, error)
}

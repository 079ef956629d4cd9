package service

import (
	"context"
	"sync"
	"time"

	"github.com/projectledger/projectledger/internal/api/dto"
	"github.com/projectledger/projectledger/internal/cache"
	"github.com/projectledger/projectledger/internal/domain/milestone"
	"github.com/projectledger/projectledger/internal/domain/schedule"
	"github.com/projectledger/projectledger/internal/interfaces"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

type scheduleService struct {
	ServiceParams
}

// NewScheduleService creates the read-only schedule analysis over a project's milestones.
// Milestone snapshots are cached per project until a milestone mutation invalidates them or
// the configured TTL passes.
func NewScheduleService(params ServiceParams) interfaces.ScheduleService {
	return &scheduleService{
		ServiceParams: params,
	}
}

// scheduleSnapshot is what the cache keeps for a project. Risks depend on the clock, so the
// analysis is rebuilt from the snapshot on every call.
type scheduleSnapshot struct {
	ProjectID  string                 `json:"project_id"`
	Milestones []*milestone.Milestone `json:"milestones"`
}

func (s *scheduleService) cacheTTL() time.Duration {
	if ttl := s.Config.Schedule.AnalysisCacheTTL; ttl > 0 {
		return ttl
	}
	return cache.ExpiryScheduleAnalysis
}

func (s *scheduleService) generationKey(ctx context.Context, projectID string) string {
	return cache.GenerateKey(cache.PrefixScheduleGeneration, types.GetTenantID(ctx), projectID)
}

func (s *scheduleService) snapshotPrefix(ctx context.Context, projectID string) string {
	return cache.GenerateKey(cache.PrefixScheduleAnalysis, types.GetTenantID(ctx), projectID) + ":"
}

// snapshotKey returns the key for the project's current generation, starting a generation
// when none is recorded. A snapshot written under an older generation is never read again.
func (s *scheduleService) snapshotKey(ctx context.Context, projectID string) string {
	genKey := s.generationKey(ctx, projectID)

	generation := ""
	if v, found := s.Cache.Get(ctx, genKey); found {
		generation, _ = v.(string)
	}
	if generation == "" {
		generation = types.GenerateUUID()
		s.Cache.Set(ctx, genKey, generation, s.cacheTTL())
	}
	return s.snapshotPrefix(ctx, projectID) + generation
}

func (s *scheduleService) AnalyzeProject(ctx context.Context, projectID string) (*dto.ScheduleAnalysisResponse, error) {
	// The generation is read before loading so that a mutation committed after the load moves
	// readers to a new key.
	key := s.snapshotKey(ctx, projectID)

	var (
		snapshot *scheduleSnapshot
		hit      bool
	)
	if cached, found := s.Cache.Get(ctx, key); found {
		snapshot, hit = cache.UnmarshalCacheValue[scheduleSnapshot](cached)
	}

	if !hit {
		p, err := s.ProjectRepo.Get(ctx, projectID)
		if err != nil {
			return nil, err
		}

		milestones, err := s.MilestoneRepo.ListByProject(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		snapshot = &scheduleSnapshot{ProjectID: p.ID, Milestones: milestones}
	}

	analysis, err := schedule.Analyze(snapshot.ProjectID, snapshot.Milestones, s.now())
	if err != nil {
		s.Logger.WithContext(ctx).Warnw("schedule analysis failed",
			"project_id", snapshot.ProjectID,
			"error", err)
		return nil, err
	}

	if !hit {
		s.Cache.Set(ctx, key, snapshot, s.cacheTTL())
	}

	s.Logger.WithContext(ctx).Debugw("analyzed project schedule",
		"project_id", snapshot.ProjectID,
		"cached", hit,
		"milestones", len(snapshot.Milestones),
		"critical_path_days", analysis.CriticalPath.TotalDurationDays,
		"risks", len(analysis.Risks))

	return &dto.ScheduleAnalysisResponse{Analysis: analysis}, nil
}

// InvalidateProject starts a new cache generation for the project and drops the snapshots of
// older ones.
func (s *scheduleService) InvalidateProject(ctx context.Context, projectID string) {
	s.Cache.Set(ctx, s.generationKey(ctx, projectID), types.GenerateUUID(), s.cacheTTL())
	s.Cache.DeleteByPrefix(ctx, s.snapshotPrefix(ctx, projectID))
}

// AnalyzePortfolio analyzes several projects concurrently. A project that cannot be analyzed is
// reported in Errors and does not fail the others.
func (s *scheduleService) AnalyzePortfolio(ctx context.Context, projectIDs []string) (*dto.PortfolioAnalysisResponse, error) {
	resp := &dto.PortfolioAnalysisResponse{
		Analyses: make(map[string]*dto.ScheduleAnalysisResponse),
		Errors:   make(map[string]string),
	}

	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(lo.Max([]int{s.Config.Schedule.ScanConcurrency, 1}))
	for _, projectID := range lo.Uniq(projectIDs) {
		projectID := projectID
		p.Go(func() {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				resp.Errors[projectID] = err.Error()
				mu.Unlock()
				return
			}

			analysis, err := s.AnalyzeProject(ctx, projectID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				resp.Errors[projectID] = err.Error()
				return
			}
			resp.Analyses[projectID] = analysis
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}

// Command riskscan periodically analyzes the schedule of every active project and logs the
// milestones at HIGH risk.
package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/projectledger/projectledger/internal/cache"
	"github.com/projectledger/projectledger/internal/config"
	"github.com/projectledger/projectledger/internal/logger"
	"github.com/projectledger/projectledger/internal/postgres"
	redisClient "github.com/projectledger/projectledger/internal/redis"
	pgRepo "github.com/projectledger/projectledger/internal/repository/postgres"
	"github.com/projectledger/projectledger/internal/service"
	"github.com/projectledger/projectledger/internal/types"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func main() {
	app := fx.New(
		fx.Provide(
			// Config and logging
			config.NewConfig,
			logger.NewLogger,

			// Storage
			postgres.NewDB,
			provideDBClient,
			func(c *postgres.Client) postgres.IClient { return c },
			provideRedisClient,
			cache.Initialize,
			types.NewSystemClock,

			// Repositories
			pgRepo.NewProjectRepository,
			pgRepo.NewMilestoneRepository,
			pgRepo.NewDeferredRevenueRepository,
			pgRepo.NewWIPRepository,
			pgRepo.NewJournalGateway,

			// Services
			service.NewServiceParams,
			service.NewScheduleService,
			service.NewRiskScanService,
		),
		fx.WithLogger(func(log *logger.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Desugar()}
		}),
		fx.Invoke(runMigrations, startScanner),
	)

	app.Run()
}

func provideDBClient(lc fx.Lifecycle, db *sql.DB, cfg *config.Configuration, log *logger.Logger) *postgres.Client {
	client := postgres.NewClient(db, cfg, log)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}

// provideRedisClient connects to redis only when it backs the cache. A nil client makes the
// cache fall back to memory.
func provideRedisClient(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (*redisClient.Client, error) {
	if !cfg.Cache.Enabled || cache.CacheType(cfg.Cache.Type) != cache.CacheTypeRedis {
		return nil, nil
	}

	client, err := redisClient.NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func runMigrations(lc fx.Lifecycle, db *sql.DB, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return postgres.Migrate(ctx, db, log)
		},
	})
}

func startScanner(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger, scanner service.RiskScanService, shutdowner fx.Shutdowner) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	scanAll := func() {
		if len(cfg.Schedule.TenantIDs) == 0 {
			log.Warnw("risk scan has no tenants configured", "config_key", "schedule.tenant_ids")
			return
		}
		for _, tenantID := range cfg.Schedule.TenantIDs {
			tenantCtx := types.SetTenantID(ctx, tenantID)
			tenantCtx = types.SetRequestID(tenantCtx, types.GenerateUUID())
			if _, err := scanner.Scan(tenantCtx); err != nil {
				log.Errorw("risk scan failed", "tenant_id", tenantID, "error", err)
			}
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Infow("starting risk scanner",
				"mode", cfg.Deployment.Mode,
				"interval", cfg.Schedule.ScanInterval.String(),
				"tenants", len(cfg.Schedule.TenantIDs))

			wg.Add(1)
			go func() {
				defer wg.Done()
				scanAll()

				// Local runs scan once and exit
				if cfg.Deployment.Mode == config.ModeLocal {
					_ = shutdowner.Shutdown()
					return
				}

				ticker := time.NewTicker(cfg.Schedule.ScanInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						scanAll()
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			wg.Wait()
			_ = log.Sync()
			return nil
		},
	})
}

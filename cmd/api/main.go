// Package main - точка входа HTTP API StudyForge.
//
// Сервис управляет иерархическими планами подготовки: таксономия
// дисциплин, мастер-планы, инстансы студентов, трекер прогресса и
// недельный рейтинг.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: PostgreSQL, Redis
// - Interface: HTTP endpoints
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/studyforge/studyforge-backend/config"
	"github.com/studyforge/studyforge-backend/internal/application/command"
	"github.com/studyforge/studyforge-backend/internal/application/query"
	"github.com/studyforge/studyforge-backend/internal/domain/ranking"
	"github.com/studyforge/studyforge-backend/internal/infrastructure/persistence/postgres"
	"github.com/studyforge/studyforge-backend/internal/infrastructure/persistence/redis"
	httpserver "github.com/studyforge/studyforge-backend/internal/interface/http"
	"github.com/studyforge/studyforge-backend/pkg/logger"
	"github.com/studyforge/studyforge-backend/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.Observability.AddCaller,
	})
	log.Info("starting StudyForge API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("timezone", cfg.App.Timezone),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. POSTGRESQL
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	// The database container may still be starting; wait it out.
	err = retry.StartupRetrier().Do(ctx, func(ctx context.Context) error {
		return dbConn.Ping(ctx)
	})
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if cfg.Database.MigrateOnStart {
		log.Info("running database migrations")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var rankingCache ranking.Cache
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, ranking cache disabled", logger.Err(err))
		} else {
			defer cache.Close()
			rankingCache = redis.NewRankingCache(cache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. РЕПОЗИТОРИИ
	// ─────────────────────────────────────────────────────────────────────────
	disciplineRepo := postgres.NewDisciplineRepository(dbConn)
	subjectRepo := postgres.NewSubjectRepository(dbConn)
	templateRepo := postgres.NewTemplateRepository(dbConn)
	planRepo := postgres.NewStudyPlanRepository(dbConn)
	rankingSource := postgres.NewRankingSource(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	deps := httpserver.Dependencies{
		CreateDiscipline:     command.NewCreateDisciplineHandler(disciplineRepo),
		DeactivateDiscipline: command.NewDeactivateDisciplineHandler(disciplineRepo),
		CreateSubject:        command.NewCreateSubjectHandler(disciplineRepo, subjectRepo),
		DeactivateSubject:    command.NewDeactivateSubjectHandler(subjectRepo),
		CreateMasterPlan:     command.NewCreateMasterPlanHandler(templateRepo, disciplineRepo),
		AddMasterSprint:      command.NewAddMasterSprintHandler(templateRepo),
		AddMasterGoal:        command.NewAddMasterGoalHandler(templateRepo, disciplineRepo, subjectRepo),
		PublishNewVersion:    command.NewPublishNewVersionHandler(templateRepo),
		InstantiatePlan:      command.NewInstantiatePlanHandler(templateRepo, planRepo),
		RecordProgress:       command.NewRecordProgressHandler(planRepo, rankingCache, log),
		ReopenGoal:           command.NewReopenGoalHandler(planRepo, rankingCache, log),
		AdvanceSprint:        command.NewAdvanceSprintHandler(planRepo),
		BackfillCodes:        command.NewBackfillCodesHandler(disciplineRepo, subjectRepo, templateRepo),

		ListTaxonomy:      query.NewListTaxonomyHandler(disciplineRepo, subjectRepo),
		ListMasterPlans:   query.NewListMasterPlansHandler(templateRepo),
		GetMasterPlanTree: query.NewGetMasterPlanTreeHandler(templateRepo),
		GetCurrentSprint:  query.NewGetCurrentSprintHandler(planRepo),
		GetSprintStats:    query.NewGetSprintStatsHandler(planRepo),
		GetPlanStats:      query.NewGetPlanStatsHandler(planRepo),
		GetWeeklyRanking:  query.NewGetWeeklyRankingHandler(rankingSource, rankingCache, cfg.Ranking.CacheTTL, log),

		Logger:        log,
		HealthChecker: &dbHealthChecker{conn: dbConn},
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.EnableCORS = cfg.HTTP.EnableCORS
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	server := httpserver.NewServer(serverCfg, deps)
	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

// dbHealthChecker adapts the pgx pool health probe to the HTTP layer.
type dbHealthChecker struct {
	conn *postgres.Connection
}

func (h *dbHealthChecker) Check(ctx context.Context) (bool, string) {
	status, err := h.conn.Health(ctx)
	if err != nil {
		return false, err.Error()
	}
	if !status.Healthy {
		return false, status.Error
	}
	return true, fmt.Sprintf("ping %s, %d/%d conns",
		status.PingLatency, status.AcquiredConns, status.MaxConns)
}

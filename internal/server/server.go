package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"taskflow/internal/auth"
	"taskflow/internal/cache"
	"taskflow/internal/config"
	"taskflow/internal/handler"
	"taskflow/internal/identity"
	"taskflow/internal/migrations"
	"taskflow/internal/policy"
	"taskflow/internal/realtime"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Server holds two pools: DB connects as the application role and serves
// every row-policy table, OwnerDB writes identities and their bootstrap rows.
type Server struct {
	Engine  *gin.Engine
	DB      *gorm.DB
	OwnerDB *gorm.DB
	Config  *config.Config

	log      *zap.Logger
	hub      *realtime.Hub
	listener *realtime.Listener
	redis    *redis.Client
}

// Open connects gorm to dsn and returns an sqlx handle sharing the same pool.
func Open(dsn string) (*gorm.DB, *sqlx.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	return db, sqlx.NewDb(sqlDB, "pgx"), nil
}

func Init(cfg *config.Config, log *zap.Logger) (*Server, error) {
	db, sqlDB, err := Open(cfg.DSN())
	if err != nil {
		return nil, err
	}
	ownerDB := db
	if cfg.SharedRole() {
		log.Warn("application and owner roles are the same, row policies are not enforced by the database",
			zap.String("role", cfg.DBUser))
	} else if ownerDB, _, err = Open(cfg.OwnerDSN()); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("owner connection: %w", err)
	}
	log.Info("connected to database",
		zap.String("host", cfg.DBHost),
		zap.String("db", cfg.DBName),
		zap.String("app_role", cfg.DBUser),
		zap.String("owner_role", cfg.DBOwnerUser),
	)

	roles := policy.NewSQLRoleChecker(sqlDB)
	guard := policy.NewGuard(roles)
	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry())

	identities := identity.NewService(
		repository.NewIdentityRepository(ownerDB),
		log,
		identity.NewBootstrapper(log),
	)
	profileRepo := repository.NewProfileRepository(db, guard)
	roleRepo := repository.NewRoleRepository(db, guard)

	s := &Server{DB: db, OwnerDB: ownerDB, Config: cfg, log: log}

	var stats repository.StatsRepositoryInterface = repository.NewStatsRepository(db, guard)
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		client, err := cache.Connect(ctx, cfg.RedisAddr)
		cancel()
		if err != nil {
			log.Warn("stats cache disabled", zap.Error(err))
		} else {
			s.redis = client
			stats = cache.NewStats(stats, client, cfg.StatsCacheTTL, log)
		}
	}

	s.hub = realtime.NewHub(log)
	s.listener = realtime.NewListener(cfg.DSN(), migrations.ChangeFeedChannel, s.hub, log)

	s.Engine = NewRouter(Deps{
		Tokens: tokens,
		Roles:  roles,
		Health: sqlDB.PingContext,
		Log:    log,

		CORSOrigins: cfg.CORSOrigins,

		Users:         handler.NewUserHandler(identities, tokens, profileRepo, roleRepo, log),
		Categories:    handler.NewCategoryHandler(repository.NewCategoryRepository(db, guard), log),
		Tasks:         handler.NewTaskHandler(repository.NewTaskRepository(db, guard), log),
		Subtasks:      handler.NewSubtaskHandler(repository.NewSubtaskRepository(db, guard), log),
		Reminders:     handler.NewReminderHandler(repository.NewReminderRepository(db, guard), log),
		Notifications: handler.NewNotificationHandler(repository.NewNotificationRepository(db, guard), log),
		Analytics:     handler.NewAnalyticsHandler(repository.NewAnalyticsRepository(db, guard), log),
		Admin:         handler.NewAdminHandler(stats, profileRepo, roleRepo, log),
		Realtime:      handler.NewRealtimeHandler(s.hub, log),
	})
	return s, nil
}

// Run serves until SIGINT or SIGTERM, then drains requests and stops the
// change feed.
func (s *Server) Run() error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		s.listener.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server running", zap.String("port", s.Config.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case sig := <-quit:
		s.log.Info("shutting down server", zap.String("signal", sig.String()))
	case err := <-errCh:
		runErr = fmt.Errorf("failed to listen: %w", err)
	}

	// SSE streams end when the hub stops, so stop it before draining.
	stop()
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("server forced to shutdown", zap.Error(err))
	}
	s.close()

	s.log.Info("server exited")
	return runErr
}

func (s *Server) close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Warn("closing redis", zap.Error(err))
		}
	}
	if s.OwnerDB != s.DB {
		closeDB(s.OwnerDB)
	}
	closeDB(s.DB)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sure-link/core/internal/config"
	"github.com/sure-link/core/internal/database"
	"github.com/sure-link/core/internal/middleware"
	"github.com/sure-link/core/internal/modules/chat"
	"github.com/sure-link/core/internal/modules/encounter"
	"github.com/sure-link/core/internal/modules/gateway"
	"github.com/sure-link/core/internal/modules/presence"
	"github.com/sure-link/core/internal/modules/ratelimit"
	pkgcron "github.com/sure-link/core/internal/pkg/cron"
	pkgredis "github.com/sure-link/core/internal/pkg/redis"
	"github.com/sure-link/core/internal/pkg/taskqueue"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	rc     *pkgredis.Client
	hub    *gateway.Hub
	co     *gateway.Coordinator
	chats  *chat.Service
	queue  *taskqueue.Queue
	sched  *pkgcron.Scheduler
	logger *zap.Logger
	cancel context.CancelFunc
}

// New initializes the application: config → DB → Redis → realtime pipeline
// → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))

	ctx, cancel := context.WithCancel(context.Background())

	queue := taskqueue.New(logger, 256)
	queue.Start(ctx, 4)

	store := presence.NewStore()
	ledger := encounter.NewLedger(cfg.Realtime.EncounterCooldown)
	detector := encounter.NewDetector(store, ledger, cfg.Realtime.EncounterThresholdMeters)
	limiter := ratelimit.NewLimiter()

	chats := chat.NewService(db, logger)
	encounters := encounter.NewService(db, logger)

	hub := gateway.NewHub(rc, logger)
	co := gateway.NewCoordinator(hub, store, detector, limiter, chats, encounters, queue,
		gateway.CoordinatorConfig{
			ChatPolicy:       ratelimit.Policy{Max: cfg.RateLimit.Chat.Max, Window: cfg.RateLimit.Chat.Window()},
			LocationPolicy:   ratelimit.Policy{Max: cfg.RateLimit.Location.Max, Window: cfg.RateLimit.Location.Window()},
			GeneralPolicy:    ratelimit.Policy{Max: cfg.RateLimit.General.Max, Window: cfg.RateLimit.General.Window()},
			ChatHistoryLimit: cfg.ChatHistoryLimit,
		}, logger)
	hub.Bind(co)
	go hub.Run(ctx)

	sched := pkgcron.New()
	registerCronJobs(sched, cronDeps{
		cfg:     cfg,
		co:      co,
		ledger:  ledger,
		limiter: limiter,
		chats:   chats,
		db:      db,
		logger:  logger,
	})
	go sched.Start(ctx)

	app := &App{
		cfg:    cfg,
		router: router,
		db:     db,
		rc:     rc,
		hub:    hub,
		co:     co,
		chats:  chats,
		queue:  queue,
		sched:  sched,
		logger: logger,
		cancel: cancel,
	}
	app.registerRoutes()

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background goroutines and drains the task queue so
// in-flight writes land before the process exits.
func (a *App) Shutdown() {
	a.cancel()
	a.queue.Wait()
	if err := a.rc.Close(); err != nil {
		a.logger.Warn("redis close failed", zap.Error(err))
	}
}

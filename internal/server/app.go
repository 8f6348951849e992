// Package server initializes and runs the chatgate application server.
// It wires the Postgres repositories, the Redis-backed challenge store, the
// AI backend client, and the HTTP API, and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/chatgate/internal/logging"
	"github.com/dmitrijs2005/chatgate/internal/server/aichat"
	"github.com/dmitrijs2005/chatgate/internal/server/captcha"
	"github.com/dmitrijs2005/chatgate/internal/server/config"
	"github.com/dmitrijs2005/chatgate/internal/server/httpapi"
	"github.com/dmitrijs2005/chatgate/internal/server/idgen"
	"github.com/dmitrijs2005/chatgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chatgate/internal/server/services"
	"github.com/go-redis/redis/v8"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config       *config.Config
	logger       logging.Logger
	repomanager  repomanager.RepositoryManager
	redisClient  *redis.Client
	userService  *services.UserService
	adminService *services.AdminService
	chatService  *services.ChatService
	api          *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	rm, err := repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis url error: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)

	challengeManager := captcha.NewManager(captcha.NewRedisSlotStore(redisClient), cfg.ChallengeTTL)

	db := rm.Conn()
	allocator := idgen.NewAllocator(rm.Users(db), rm.Exchanges(db))

	completer := aichat.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, cfg.AIRequestTimeout)

	us := services.NewUserService(db, rm, allocator, cfg)
	as := services.NewAdminService(db, rm, cfg)
	cs := services.NewChatService(db, rm, allocator, completer, cfg, logger)

	api := httpapi.NewServer(us, as, cs, challengeManager, cfg, logger)

	return &App{
		config:       cfg,
		logger:       logger,
		repomanager:  rm,
		redisClient:  redisClient,
		userService:  us,
		adminService: as,
		chatService:  cs,
		api:          api,
	}, nil
}

// AdminService exposes the admin operations for the command-line bootstrap.
func (app *App) AdminService() *services.AdminService {
	return app.adminService
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.api.Routes(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.redisClient.Close(); err != nil {
		app.logger.Error(ctx, "redis close error", "error", err)
	}
	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}

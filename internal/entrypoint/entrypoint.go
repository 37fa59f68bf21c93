package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/database"
	auditrepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/reviews"
	"github.com/mrlokans/bookshelf/internal/database/users"
	http_controllers "github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/logging"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/services"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// Maintenance job names, also accepted by Scheduler.RunNow.
const (
	JobSweepCovers      = "sweep_covers"
	JobPurgeAuditEvents = "purge_audit_events"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the wired application. Build creates it; Close releases it.
type App struct {
	Router     *gin.Engine
	Database   *database.Database
	Covers     *covers.Store
	Audit      *audit.Service
	TaskClient *tasks.Client
	Scheduler  *scheduler.MaintenanceScheduler

	authController *auth.AuthController
}

// ResolveSecret returns the token signing secret. An empty secret is refused
// unless insecure secrets are allowed, in which case a random one is made up
// and every restart invalidates issued tokens.
func ResolveSecret(cfg config.Auth) (string, error) {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret, nil
	}
	if !cfg.AllowInsecureSecret {
		return "", fmt.Errorf("%w: set JWT_SECRET (or AUTH_ALLOW_INSECURE_SECRET=true for development)", auth.ErrMissingSecret)
	}
	secret, err := auth.GenerateSigningSecret()
	if err != nil {
		return "", fmt.Errorf("failed to generate signing secret: %w", err)
	}
	log.Warn().Msg("JWT_SECRET is not set, using a random secret; tokens will not survive a restart")
	return secret, nil
}

// Build wires every component from cfg. The task queue is created but not
// started.
func Build(cfg *config.Config, version string) (*App, error) {
	secret, err := ResolveSecret(cfg.Auth)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app := &App{Database: db}

	app.Covers, err = covers.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxUploadBytes)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize uploads directory: %w", err)
	}
	log.Info().Str("dir", app.Covers.Dir()).Msg("Cover store initialized")

	app.Audit = audit.NewService(auditrepo.NewRepository(db.DB))
	bookRepo := books.NewRepository(db.DB)

	// Covers are removed in the background when the queue runs, inline otherwise
	var coverRemover services.CoverRemover = app.Covers
	if cfg.Tasks.Enabled {
		app.TaskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		app.TaskClient.Register(
			tasks.NewRemoveCoverQueue(app.Covers),
			tasks.NewSweepCoversQueue(bookRepo, app.Covers),
			tasks.NewPurgeAuditEventsQueue(app.Audit, cfg.Audit.RetentionDays),
		)
		coverRemover = tasks.NewCoverRemovalQueue(app.TaskClient)
		app.Scheduler = scheduler.NewMaintenanceScheduler(maintenanceJobs(cfg, app.TaskClient)...)
	}

	tokens, err := auth.NewTokenIssuer(secret, cfg.Auth.TokenExpiry, cfg.Auth.Issuer)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	authService := auth.NewService(users.NewRepository(db.DB), tokens, cfg.Auth)
	app.authController = auth.NewAuthController(authService, cfg.Auth, app.Audit)

	app.Router = http_controllers.NewRouter(http_controllers.RouterConfig{
		Books:          services.NewBookService(bookRepo, coverRemover, app.Audit),
		Reviews:        services.NewReviewService(reviews.NewRepository(db.DB), bookRepo, app.Audit),
		Covers:         app.Covers,
		Database:       db,
		Activity:       app.Audit,
		AuthController: app.authController,
		AuthMiddleware: auth.NewMiddleware(tokens),
		BasePath:       cfg.HTTP.BasePath,
		Version:        version,
	})

	return app, nil
}

func maintenanceJobs(cfg *config.Config, queue scheduler.TaskAdder) []scheduler.Job {
	return []scheduler.Job{
		scheduler.EnqueueJob(JobSweepCovers, cfg.Uploads.SweepSchedule, queue,
			tasks.SweepCoversTask{GraceMinutes: int(cfg.Uploads.SweepGrace / time.Minute)}),
		scheduler.EnqueueJob(JobPurgeAuditEvents, cfg.Audit.CleanupSchedule, queue,
			tasks.PurgeAuditEventsTask{}),
	}
}

// Close flushes pending audit writes and releases every resource.
func (a *App) Close() {
	if a.authController != nil {
		a.authController.Stop()
	}
	if a.Audit != nil {
		a.Audit.Flush()
	}
	if a.TaskClient != nil {
		if err := a.TaskClient.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing task client")
		}
	}
	if a.Database != nil {
		if err := a.Database.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	log.Info().Dur("timeout", timeout).Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Stop background work after in-flight requests have finished enqueueing
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info().Msg("Server exiting")
	return nil
}

func Run(cfg *config.Config, version string) error {
	logging.Setup(cfg.Log)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.Info().Str("version", version).Msg("Starting Bookshelf")

	app, err := Build(cfg, version)
	if err != nil {
		return err
	}
	defer app.Close()

	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	if app.TaskClient != nil {
		go app.TaskClient.Start(bgCtx)
	}
	if app.Scheduler != nil {
		if err := app.Scheduler.Start(bgCtx); err != nil {
			return fmt.Errorf("failed to start maintenance scheduler: %w", err)
		}
	}

	return Serve(app.Router, cfg, func(ctx context.Context) {
		if app.Scheduler != nil {
			app.Scheduler.Stop()
		}
		if app.TaskClient != nil {
			app.TaskClient.Stop(ctx)
		}
		cancelBackground()
	})
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carebridge/referral/internal/config"
	"github.com/carebridge/referral/internal/domain/comms"
	"github.com/carebridge/referral/internal/domain/family"
	"github.com/carebridge/referral/internal/domain/insurance"
	"github.com/carebridge/referral/internal/domain/intake"
	"github.com/carebridge/referral/internal/domain/referral"
	"github.com/carebridge/referral/internal/domain/scheduling"
	"github.com/carebridge/referral/internal/domain/screener"
	"github.com/carebridge/referral/internal/platform/ai"
	"github.com/carebridge/referral/internal/platform/auth"
	"github.com/carebridge/referral/internal/platform/db"
	"github.com/carebridge/referral/internal/platform/jobs"
	"github.com/carebridge/referral/internal/platform/notify"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "referral-server",
		Short: "Referral lifecycle API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the referral API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
				MaxConns: cfg.DBMaxConns,
				MinConns: cfg.DBMinConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
				MaxConns: cfg.DBMaxConns,
				MinConns: cfg.DBMinConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// logEmailSender stands in for a real delivery provider when none is
// configured. Messages are logged, never sent.
type logEmailSender struct {
	log zerolog.Logger
}

func (s *logEmailSender) SendEmail(_ context.Context, to, subject, _ string) error {
	s.log.Info().Str("to", to).Str("subject", subject).Msg("email (log-only sender)")
	return nil
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Job queue: Redis when configured, in-process otherwise.
	var queue interface {
		jobs.Enqueuer
		jobs.Dequeuer
	}
	if cfg.RedisURL != "" {
		redisQueue, err := jobs.NewRedisQueue(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisQueue.Close()
		queue = redisQueue
		logger.Info().Msg("connected to redis job queue")
	} else {
		queue = jobs.NewMemoryQueue(256)
		logger.Warn().Msg("REDIS_URL not set; using in-memory job queue")
	}

	// Conversational provider for the screener.
	var provider ai.Provider
	if cfg.AIProviderURL != "" {
		provider = ai.NewHTTPProvider(cfg.AIProviderURL, cfg.AIProviderKey, cfg.AITimeout())
	} else {
		provider = ai.NewMockProvider()
		logger.Warn().Msg("AI_PROVIDER_URL not set; screener replies are canned")
	}

	// Notifications
	dispatcher := notify.NewEmailDispatcher(&logEmailSender{log: logger}, notify.NewTemplateEngine(), logger)

	// -- Domain wiring --

	familySvc := family.NewService(
		family.NewParentRepoPG(pool),
		family.NewChildRepoPG(pool),
		logger,
	)
	intakeSvc := intake.NewService(
		intake.NewResponseRepoPG(pool),
		intake.NewConsentRepoPG(pool),
		logger,
	)
	insuranceSvc := insurance.NewService(
		insurance.NewDetailRepoPG(pool),
		insurance.NewUploadRepoPG(pool),
		insurance.NewEstimateRepoPG(pool),
		queue,
		logger,
	)
	schedulingSvc := scheduling.NewService(scheduling.NewRepoPG(pool), logger)
	commsSvc := comms.NewService(
		comms.NewThreadRepoPG(pool),
		comms.NewNoteRepoPG(pool),
		logger,
	)

	sources := &referral.Sources{
		Children:   familySvc,
		Parents:    familySvc,
		Intake:     intakeSvc,
		Consents:   intakeSvc,
		Insurance:  insuranceSvc,
		Scheduling: schedulingSvc,
		Comms:      commsSvc,
	}

	referralRepo := referral.NewRepoPG(pool)
	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.InTx(ctx, pool, fn)
	}
	referralSvc := referral.NewService(referralRepo, sources, queue, dispatcher, inTx, logger)

	screenerSvc := screener.NewService(screener.NewRepoPG(pool), referralSvc, provider, dispatcher, logger)
	sources.Screener = screenerSvc

	// -- Background worker --

	worker := jobs.NewWorker(queue, logger)
	worker.Register(jobs.TypeGeneratePacket, func(ctx context.Context, job jobs.Job) error {
		id, err := uuid.Parse(job.Payload["referral_id"])
		if err != nil {
			return fmt.Errorf("bad referral_id in payload: %w", err)
		}
		return referralSvc.GeneratePacket(ctx, id)
	})
	worker.Register(jobs.TypeScanUpload, func(ctx context.Context, job jobs.Job) error {
		id, err := uuid.Parse(job.Payload["upload_id"])
		if err != nil {
			return fmt.Errorf("bad upload_id in payload: %w", err)
		}
		// OCR integration is pending; accept the card as-is.
		return insuranceSvc.ScanUpload(ctx, id, 1.0)
	})

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go func() {
		if err := worker.Run(workerCtx); err != nil && workerCtx.Err() == nil {
			logger.Error().Err(err).Msg("worker stopped")
		}
	}()

	// -- HTTP server --

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(requestLogger(logger))

	if cfg.IsDev() {
		e.Use(auth.DevMiddleware())
	} else {
		e.Use(auth.Middleware([]byte(cfg.JWTSigningKey), "/health"))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	api := e.Group("/api/v1")
	family.NewHandler(familySvc).RegisterRoutes(api)
	intake.NewHandler(intakeSvc).RegisterRoutes(api)
	insurance.NewHandler(insuranceSvc).RegisterRoutes(api)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(api)
	comms.NewHandler(commsSvc).RegisterRoutes(api)
	screener.NewHandler(screenerSvc).RegisterRoutes(api)
	referral.NewHandler(referralSvc).RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	stopWorker()
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	return nil
}

// requestLogger emits one structured line per request.
func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			logger.Info().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("request")
			return nil
		}
	}
}

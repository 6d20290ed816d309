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

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/config"
	"github.com/carelink/carelink/internal/domain/access"
	"github.com/carelink/carelink/internal/domain/episode"
	"github.com/carelink/carelink/internal/domain/organization"
	"github.com/carelink/carelink/internal/domain/patient"
	"github.com/carelink/carelink/internal/domain/physician"
	"github.com/carelink/carelink/internal/domain/place"
	"github.com/carelink/carelink/internal/domain/report"
	"github.com/carelink/carelink/internal/domain/user"
	"github.com/carelink/carelink/internal/domain/visit"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/middleware"
	"github.com/carelink/carelink/internal/platform/notify"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carelink-server",
		Short: "Home health care coordination API server",
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
		Short: "Start the API server",
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
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, cfg.MigrationsDir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, cfg.MigrationsDir)
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
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Notification transport. Redis in production; in-memory stub in
	// development when REDIS_URL is unset.
	var publisher notify.Publisher
	if cfg.RedisURL != "" {
		redisPub, err := notify.NewRedisPublisher(cfg.RedisURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisPub.Close()
		publisher = redisPub
		logger.Info().Msg("connected to redis")
	} else {
		publisher = notify.NewMemoryPublisher()
		logger.Warn().Msg("REDIS_URL not set; notifications stay in-process")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.ErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}))

	// Bind the pool into every request context so repositories and
	// transactions can reach it.
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(c.Request().WithContext(db.WithPool(c.Request().Context(), pool)))
			return next(c)
		}
	})

	if cfg.IsDev() {
		devUserID, err := uuid.Parse(cfg.DevUserID)
		if err != nil {
			logger.Fatal().Err(err).Msg("DEV_USER_ID must be a valid uuid in development mode")
		}
		e.Use(auth.DevAuthMiddleware(devUserID))
	} else {
		e.Use(auth.Middleware([]byte(cfg.AuthSecret)))
	}

	e.GET("/health", db.HealthHandler(pool))

	api := e.Group("/api/v1")

	// Repositories
	profileRepo := user.NewProfileRepoPG(pool)
	orgAccessRepo := user.NewOrgAccessRepoPG(pool)
	orgRepo := organization.NewRepoPG(pool)
	patientRepo := patient.NewPatientRepoPG(pool)
	mappingRepo := patient.NewMappingRepoPG(pool)
	episodeRepo := episode.NewEpisodeRepoPG(pool)
	episodeAccessRepo := episode.NewAccessRepoPG(pool)
	physicianRepo := physician.NewRepoPG(pool)
	placeRepo := place.NewRepoPG(pool)
	visitRepo := visit.NewRepoPG(pool)
	milesRepo := visit.NewMilesRepoPG(pool)
	reportRepo := report.NewRepoPG(pool)
	reportItemRepo := report.NewItemRepoPG(pool)

	resolver := access.NewResolver(orgAccessRepo, mappingRepo)

	// Services
	episodeSvc := episode.NewService(episode.ServiceDeps{
		Episodes:   episodeRepo,
		Accesses:   episodeAccessRepo,
		Members:    orgAccessRepo,
		Visits:     visitRepo,
		Physicians: physicianRepo,
		Resolver:   resolver,
		Publisher:  publisher,
		Logger:     logger,
	})
	patientSvc := patient.NewService(patient.ServiceDeps{
		Patients: patientRepo,
		Mappings: mappingRepo,
		Episodes: episodeSvc,
		Resolver: resolver,
	})
	userSvc := user.NewService(user.ServiceDeps{
		Profiles:        profileRepo,
		OrgAccesses:     orgAccessRepo,
		EpisodeAccesses: episodeAccessRepo,
		Visits:          visitRepo,
		Reports:         reportRepo,
		Resolver:        resolver,
		Publisher:       publisher,
	})
	orgSvc := organization.NewService(organization.ServiceDeps{
		Orgs:     orgRepo,
		Grants:   orgAccessRepo,
		Resolver: resolver,
	})
	physicianSvc := physician.NewService(physicianRepo, resolver)
	placeSvc := place.NewService(placeRepo, resolver, publisher)
	visitSvc := visit.NewService(visit.ServiceDeps{
		Visits:   visitRepo,
		Miles:    milesRepo,
		Accesses: episodeAccessRepo,
		Places:   placeRepo,
		Resolver: resolver,
	})
	reportSvc := report.NewService(report.ServiceDeps{
		Reports: reportRepo,
		Items:   reportItemRepo,
		Visits:  visitSvc,
	})

	// Handlers
	user.NewHandler(userSvc).RegisterRoutes(api)
	organization.NewHandler(orgSvc).RegisterRoutes(api)
	patient.NewHandler(patientSvc).RegisterRoutes(api)
	episode.NewHandler(episodeSvc).RegisterRoutes(api)
	physician.NewHandler(physicianSvc).RegisterRoutes(api)
	place.NewHandler(placeSvc).RegisterRoutes(api)
	visit.NewHandler(visitSvc).RegisterRoutes(api)
	report.NewHandler(reportSvc).RegisterRoutes(api)

	// Start server with graceful shutdown.
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

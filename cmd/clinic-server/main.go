package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/prescripto/prescripto/internal/config"
	"github.com/prescripto/prescripto/internal/domain/appointment"
	"github.com/prescripto/prescripto/internal/domain/feedback"
	"github.com/prescripto/prescripto/internal/domain/identity"
	"github.com/prescripto/prescripto/internal/domain/prescription"
	"github.com/prescripto/prescripto/internal/domain/testbooking"
	"github.com/prescripto/prescripto/internal/domain/testcatalog"
	"github.com/prescripto/prescripto/internal/platform/apierror"
	"github.com/prescripto/prescripto/internal/platform/auth"
	"github.com/prescripto/prescripto/internal/platform/blobstore"
	"github.com/prescripto/prescripto/internal/platform/db"
	"github.com/prescripto/prescripto/internal/platform/middleware"
	"github.com/prescripto/prescripto/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
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

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
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
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
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

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
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
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the bootstrap admin account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
				return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := identity.NewService(identity.NewRepoPG(pool), []byte(cfg.JWTSecret),
				time.Duration(cfg.JWTTTLMinutes)*time.Minute)
			admin, created, err := svc.SeedAdmin(ctx, "Administrator", cfg.AdminEmail, cfg.AdminPassword)
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("Admin account created: %s (%s)\n", admin.Email, admin.ID)
			} else {
				fmt.Printf("Admin account already exists: %s\n", admin.Email)
			}
			return nil
		},
	}
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

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	store, err := blobstore.NewFSStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize report store")
	}

	var sender notification.EmailSender
	if cfg.SMTPHost != "" {
		sender = notification.NewSMTPSender(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
		})
	} else {
		logger.Warn().Msg("SMTP_HOST not set; emails are recorded in memory only")
		sender = &notification.MockEmailSender{}
	}
	clinicInfo := notification.ClinicInfo{Name: cfg.ClinicName, Website: cfg.ClinicWebsite}
	notifier := notification.NewNotifier(sender, notification.NewTemplateEngine(), clinicInfo, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apierror.Handler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.Static("/uploads", cfg.UploadDir)

	secret := []byte(cfg.JWTSecret)
	public := e.Group("/api")
	api := e.Group("/api")
	api.Use(auth.JWTMiddleware(secret))

	table := auth.Routes()
	runner := db.Runner{Pool: pool}
	clinic := appointment.Clinic{Name: cfg.ClinicName, Website: cfg.ClinicWebsite}

	identitySvc := identity.NewService(identity.NewRepoPG(pool), secret,
		time.Duration(cfg.JWTTTLMinutes)*time.Minute)
	identityHandler := identity.NewHandler(identitySvc, table)
	identityHandler.RegisterRoutes(public, api)

	presRepo := prescription.NewRepoPG(pool)
	presSvc := prescription.NewService(presRepo, identitySvc,
		prescription.Clinic{Name: cfg.ClinicName, Website: cfg.ClinicWebsite})
	prescription.NewHandler(presSvc, table).RegisterRoutes(api)

	apptSvc := appointment.NewService(appointment.NewRepoPG(pool), presRepo, identitySvc,
		runner, notifier, clinic)
	appointment.NewHandler(apptSvc, table).RegisterRoutes(api)

	catalogSvc := testcatalog.NewService(testcatalog.NewRepoPG(pool))
	testcatalog.NewHandler(catalogSvc, table).RegisterRoutes(api)

	bookingSvc := testbooking.NewService(testbooking.NewRepoPG(pool), catalogSvc, identitySvc,
		store, runner, notifier)
	testbooking.NewHandler(bookingSvc, table).RegisterRoutes(api)

	feedbackSvc := feedback.NewService(feedback.NewRepoPG(pool))
	feedback.NewHandler(feedbackSvc, table).RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cianogeneway/lims/internal/config"
	"github.com/cianogeneway/lims/internal/domain/reference"
	"github.com/cianogeneway/lims/internal/domain/results"
	"github.com/cianogeneway/lims/internal/domain/sample"
	"github.com/cianogeneway/lims/internal/platform/auth"
	"github.com/cianogeneway/lims/internal/platform/db"
	"github.com/cianogeneway/lims/internal/platform/middleware"
	"github.com/cianogeneway/lims/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lims-server",
		Short: "LIMS workflow result validation API server",
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
		Short: "Start the LIMS API server",
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
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
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
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
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

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware([]byte(cfg.JWTSecret)))
	}

	e.GET("/health", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")

	// Notifications
	notifyMgr := notification.NewManager(newLogSender(logger), notification.NewTemplateEngine())

	// Reference range domain
	table := reference.DefaultTable()
	refHandler := reference.NewHandler(table)
	refHandler.RegisterRoutes(apiV1)

	// Sample domain
	sampleRepo := sample.NewRepoPG(pool)
	manifestRepo := sample.NewManifestRepoPG(pool)
	sampleSvc := sample.NewService(sampleRepo, manifestRepo,
		newSampleNotifier(notifyMgr, logger), logger)
	sampleHandler := sample.NewHandler(sampleSvc)
	sampleHandler.RegisterRoutes(apiV1)

	// Results domain
	resultRepo := results.NewRepoPG(pool)
	resultSvc := results.NewService(resultRepo, sampleRepo, manifestRepo, table,
		newResultNotifier(notifyMgr, cfg.LabEmail, logger), logger)
	resultHandler := results.NewHandler(resultSvc)
	resultHandler.RegisterRoutes(apiV1)

	// Start
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

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// logSender writes outbound notifications to the log. Swap for an SMTP
// sender in deployments that deliver real mail.
type logSender struct {
	log zerolog.Logger
}

func newLogSender(log zerolog.Logger) *logSender {
	return &logSender{log: log.With().Str("component", "email").Logger()}
}

func (s *logSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.log.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("email sent")
	return nil
}

// sampleNotifier adapts the notification manager to the sample service's
// registration hook.
type sampleNotifier struct {
	mgr *notification.Manager
	log zerolog.Logger
}

func newSampleNotifier(mgr *notification.Manager, log zerolog.Logger) *sampleNotifier {
	return &sampleNotifier{mgr: mgr, log: log}
}

func (n *sampleNotifier) SampleRegistered(ctx context.Context, s *sample.Sample, workflowCount int) {
	if s.ReportEmail == "" {
		return
	}
	_, err := n.mgr.SendFromTemplate(ctx, notification.TemplateSampleRegistered, map[string]string{
		"barcode":        s.Barcode,
		"workflow_count": strconv.Itoa(workflowCount),
	}, s.ReportEmail)
	if err != nil {
		n.log.Error().Err(err).Str("barcode", s.Barcode).Msg("sample-registered notification failed")
	}
}

// resultNotifier adapts the notification manager to the results service's
// QC and completion hooks. QC failures go to the lab; completion notices go
// to the sample's report address.
type resultNotifier struct {
	mgr      *notification.Manager
	labEmail string
	log      zerolog.Logger
}

func newResultNotifier(mgr *notification.Manager, labEmail string, log zerolog.Logger) *resultNotifier {
	return &resultNotifier{mgr: mgr, labEmail: labEmail, log: log}
}

func (n *resultNotifier) QCFailure(ctx context.Context, s *sample.Sample, workflow, reason string) {
	data := map[string]string{
		"barcode":  s.Barcode,
		"workflow": workflow,
		"reason":   reason,
	}
	if n.labEmail != "" {
		if _, err := n.mgr.SendFromTemplate(ctx, notification.TemplateQCFailure, data, n.labEmail); err != nil {
			n.log.Error().Err(err).Str("barcode", s.Barcode).Msg("qc-failure notification failed")
		}
	}
	if s.ReportEmail != "" {
		if _, err := n.mgr.SendFromTemplate(ctx, notification.TemplateResultsFailure, data, s.ReportEmail); err != nil {
			n.log.Error().Err(err).Str("barcode", s.Barcode).Msg("results-failure notification failed")
		}
	}
}

func (n *resultNotifier) ResultsAvailable(ctx context.Context, s *sample.Sample) {
	if s.ReportEmail == "" {
		return
	}
	_, err := n.mgr.SendFromTemplate(ctx, notification.TemplateResultsSuccess, map[string]string{
		"barcode": s.Barcode,
	}, s.ReportEmail)
	if err != nil {
		n.log.Error().Err(err).Str("barcode", s.Barcode).Msg("results-available notification failed")
	}
}

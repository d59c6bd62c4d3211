package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kevinaaaquil/library/circulation"
	"github.com/kevinaaaquil/library/config"
	"github.com/kevinaaaquil/library/handlers"
	"github.com/kevinaaaquil/library/metrics"
	"github.com/kevinaaaquil/library/projection"
	"github.com/kevinaaaquil/library/service"
	"github.com/kevinaaaquil/library/store"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the overdue sweeper",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := config.ValidateEnv(cfg, logger); err != nil {
		return err
	}
	ctx := cmd.Context()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)
	if err := applySeed(ctx, st, cfg.SeedFile); err != nil {
		return err
	}

	if cfg.DemoLogin {
		logger.Warn("DEMO_LOGIN is on; any password signs in to any account with any role")
	}

	m := metrics.New()
	desk := newDesk(st, m)

	sweeper := service.NewSweeper(desk, newNotifier(), cfg.SweepInterval)

	reports := &handlers.ReportsHandler{Desk: desk, Logger: logger}
	if cfg.S3Bucket != "" {
		rs, err := service.NewReportStore(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			return fmt.Errorf("s3: %w", err)
		}
		reports.Reports = rs
	} else {
		logger.Warn("AWS_S3_BUCKET not set; reports are disabled")
	}

	router := &handlers.Router{
		Auth: &handlers.AuthHandler{
			Users:        st,
			JWTSecret:    cfg.JWTSecret,
			TokenTTL:     cfg.TokenTTL,
			DefaultEmail: cfg.AuthEmail,
			DefaultPass:  cfg.AuthPass,
			DemoLogin:    cfg.DemoLogin,
			Logger:       logger,
		},
		Books:       &handlers.BooksHandler{Desk: desk, Lookup: service.NewMetadataClient(), Logger: logger},
		Dashboard:   &handlers.DashboardHandler{Desk: desk, Logger: logger},
		Users:       &handlers.UsersHandler{Users: st, Logger: logger},
		Reports:     reports,
		Metrics:     m,
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	}
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore connects the backend named by cfg.StoreDriver.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return store.NewMemory(), nil
	case config.DriverMongo:
		db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			return nil, fmt.Errorf("mongodb: %w", err)
		}
		return db, nil
	case config.DriverPostgres:
		db, err := store.NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return db, nil
	case config.DriverSQLite:
		db, err := store.NewSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func closeStore(st store.Store) {
	if err := st.Close(context.Background()); err != nil {
		logger.Warn("store close", zap.Error(err))
	}
}

// loadSeed resolves SEED_FILE: "builtin" is the demo catalog, "" is no seed.
func loadSeed(path string) (*store.Seed, error) {
	switch path {
	case "":
		return nil, nil
	case "builtin":
		return store.DefaultSeed()
	}
	return store.LoadSeed(path)
}

func applySeed(ctx context.Context, st store.Store, path string) error {
	seed, err := loadSeed(path)
	if err != nil || seed == nil {
		return err
	}
	if err := seed.Apply(ctx, st, st, time.Now().UTC()); err != nil {
		return err
	}
	logger.Info("seed applied", zap.String("seed", path), zap.Int("books", len(seed.Books)), zap.Int("users", len(seed.Users)))
	return nil
}

func newDesk(st store.Store, m *metrics.Metrics) *service.Desk {
	desk := service.NewDesk(st, logger)
	desk.Activities = st
	desk.Users = st
	desk.Metrics = m
	desk.Policy = circulation.Policy{LoanPeriod: cfg.LoanPeriod, RenewPeriod: cfg.RenewPeriod}
	desk.Projection = projection.Projection{DueSoonWindow: cfg.DueSoonWindow, LoanLimit: cfg.LoanLimit}
	return desk
}

func newNotifier() service.Notifier {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set; overdue notices are only logged")
		return service.LogNotifier{Logger: logger}
	}
	return service.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
}

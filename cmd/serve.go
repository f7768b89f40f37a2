package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-journal/app/cache"
	"github.com/vibast-solutions/ms-go-journal/app/controller"
	journalgrpc "github.com/vibast-solutions/ms-go-journal/app/grpc"
	"github.com/vibast-solutions/ms-go-journal/app/mailer"
	"github.com/vibast-solutions/ms-go-journal/app/repository"
	"github.com/vibast-solutions/ms-go-journal/app/server"
	"github.com/vibast-solutions/ms-go-journal/app/service"
	"github.com/vibast-solutions/ms-go-journal/config"
	"github.com/vibast-solutions/ms-go-journal/migrations"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout       = 10 * time.Second
	refreshTokenPruneTick = time.Hour
	grpcHealthTick        = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start the HTTP (Echo) journal API and the gRPC health endpoint.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err = configureLogging(cfg.Log); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := openDatabase(ctx, cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err = migrations.Up(ctx, db); err != nil {
			logrus.WithError(err).Fatal("Failed to apply migrations")
		}
		logrus.Info("Database migrations applied")
	}

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to redis")
	}

	resetMailer, err := mailer.New(cfg.SMTP)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure mailer")
	}
	if !cfg.SMTP.Enabled() {
		logrus.Warn("SMTP_HOST is not set, password reset emails will only be logged")
	}

	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	entryRepo := repository.NewJournalEntryRepository(db)

	authService := service.NewUserAuthService(userRepo, refreshTokenRepo, resetMailer, cfg)
	entryService := service.NewJournalEntryService(entryRepo)

	deps := server.Dependencies{
		UserAuthService:     authService,
		JournalEntryService: entryService,
		HealthChecks: map[string]controller.DependencyCheck{
			"mysql": db.PingContext,
		},
	}
	if rdb != nil {
		defer rdb.Close()
		deps.Redis = rdb
		deps.HealthChecks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}

	healthServer := journalgrpc.NewHealthServer(db.PingContext)
	healthServer.Refresh(ctx)
	go every(ctx, grpcHealthTick, func(ctx context.Context) {
		healthServer.Refresh(ctx)
	})
	go every(ctx, refreshTokenPruneTick, func(ctx context.Context) {
		pruneRefreshTokens(ctx, authService)
	})

	e := server.NewHTTPServer(cfg, deps)
	grpcServer := journalgrpc.NewServer(healthServer)

	errCh := make(chan error, 2)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go func() {
		grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			errCh <- err
			return
		}
		logrus.WithField("addr", grpcAddr).Info("Starting gRPC server")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logrus.Info("Shutdown signal received")
	case err = <-errCh:
		logrus.WithError(err).Error("Server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	healthServer.Shutdown()
	if err = e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Failed to shut down HTTP server")
	}
	grpcServer.GracefulStop()
	logrus.Info("Servers stopped")
}

// every runs task on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, task func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task(ctx)
		}
	}
}

type refreshTokenPruner interface {
	PruneExpiredRefreshTokens(ctx context.Context) (int64, error)
}

func pruneRefreshTokens(ctx context.Context, pruner refreshTokenPruner) {
	count, err := pruner.PruneExpiredRefreshTokens(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to prune expired refresh tokens")
		return
	}
	if count > 0 {
		logrus.WithField("count", count).Info("Pruned expired refresh tokens")
	}
}

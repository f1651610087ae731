package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/httpapi"
	"github.com/seams-estates/seams/internal/metrics"
	"github.com/seams-estates/seams/internal/middleware"
	"github.com/seams-estates/seams/internal/rpc"
	"github.com/seams-estates/seams/internal/scheduler"
	"github.com/seams-estates/seams/internal/service"
	"github.com/seams-estates/seams/internal/storage/sqlite"
)

const shutdownTimeout = 15 * time.Second

// services bundles everything built on top of one store.
type services struct {
	store         *sqlite.SQLiteStore
	jwt           *auth.JWTManager
	auth          *service.AuthService
	estate        *service.EstateService
	ledger        *service.LedgerService
	maintenance   *service.MaintenanceService
	notifications *service.NotificationService
	reports       *service.ReportService
}

func (a *app) openServices(recorder service.Recorder) (*services, error) {
	store, err := sqlite.New(a.cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Storage initialized", "database", a.cfg.DB.Path)

	jwtManager := auth.NewJWTManager(a.cfg.JWT.Secret, a.cfg.JWT.TokenTTL)
	return &services{
		store:         store,
		jwt:           jwtManager,
		auth:          service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, a.logger),
		estate:        service.NewEstateService(store, a.logger, a.cfg.Estate.ExpiryWindowDays),
		ledger:        service.NewLedgerService(store, a.logger, recorder),
		maintenance:   service.NewMaintenanceService(store, a.logger),
		notifications: service.NewNotificationService(store, a.logger),
		reports:       service.NewReportService(store, a.logger),
	}, nil
}

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST and Connect API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides SEAMS_ADDR)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	m := metrics.New(nil)
	svc, err := a.openServices(m)
	if err != nil {
		return err
	}
	defer svc.store.Close()

	api := httpapi.New(httpapi.Deps{
		Auth:          svc.auth,
		Estate:        svc.estate,
		Ledger:        svc.ledger,
		Maintenance:   svc.maintenance,
		Notifications: svc.notifications,
		Reports:       svc.reports,
		Tokens:        svc.jwt,
		Health:        svc.store.Ping,
		Metrics:       m,
		Logger:        a.logger,
		CORSOrigin:    a.cfg.Server.CORSOrigin,
	})

	rpcPath, rpcHandler := rpc.NewLedgerServiceHandler(
		rpc.NewLedgerServer(svc.ledger, a.logger),
		connect.WithInterceptors(middleware.RequireAuth(svc.jwt), middleware.LoggingInterceptor(a.logger)),
	)
	api.Mount(rpcPath, rpcHandler)

	syncer := scheduler.New(func(ctx context.Context) error {
		_, err := svc.estate.SyncHouseStatuses(ctx)
		return err
	}, scheduler.Config{
		Name:           "house-status-sync",
		Interval:       a.cfg.Estate.SyncInterval,
		RunImmediately: true,
		Timeout:        time.Minute,
	}, a.logger)
	syncer.Start(ctx)

	server := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           h2c.NewHandler(api.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Server starting", "address", a.cfg.Server.Addr, "rpc", rpcPath, "env", a.cfg.Env)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := syncer.Stop(shutdownCtx); err != nil {
		a.logger.Warn("Scheduler did not stop cleanly", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info("Server stopped")
	return nil
}

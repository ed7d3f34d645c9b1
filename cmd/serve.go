package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"potbuddy-backend/config"
	"potbuddy-backend/middleware"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

// checkAuthConfig requires a JWT secret unless a dev user is configured.
func checkAuthConfig(cfg *config.Config) error {
	if cfg.JWTSecret == "" && cfg.DevUserEmail == "" {
		return errors.New("JWT_SECRET is required (or AUTH_DEV_USER_EMAIL for local development)")
	}
	return nil
}

func runServe(ctx context.Context, opts *RootOptions) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig(opts)
	if err := checkAuthConfig(cfg); err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.JWTSecret == "" {
		a.log.Warnw("JWT_SECRET is not set, bearer tokens are rejected and requests run as the dev user",
			"dev_user", cfg.DevUserEmail)
	}
	if !cfg.LogDev {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(a.log))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	a.handler().Register(r, middleware.AuthRequired(cfg, a.store, a.log))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infow("server starting", "app", cfg.AppName, "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

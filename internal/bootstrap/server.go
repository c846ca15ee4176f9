package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Domenick1991/arsconsole/api"
	"github.com/Domenick1991/arsconsole/config"
	"github.com/Domenick1991/arsconsole/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Run serves the HTTP API until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, app *App, log *slog.Logger) error {
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(app.Services(), api.Credentials{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
	}, log.With(slog.String("component", "http")), api.WithMetrics(metrics.New()))

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	log.Info("http server started", slog.String("address", cfg.HTTP.Address))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http %s: %w", cfg.HTTP.Address, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSeconds)*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

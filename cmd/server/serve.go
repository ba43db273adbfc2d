package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/soaringjerry/supportportal/internal/api"
	"github.com/soaringjerry/supportportal/internal/auth"
	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/backend/backendtest"
	"github.com/soaringjerry/supportportal/internal/config"
	"github.com/soaringjerry/supportportal/internal/db"
	"github.com/soaringjerry/supportportal/internal/logging"
	"github.com/soaringjerry/supportportal/internal/middleware"
	"github.com/soaringjerry/supportportal/internal/query"
	"github.com/soaringjerry/supportportal/internal/utils"
)

const (
	janitorEvery = 10 * time.Minute
	sweepEvery   = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the portal HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func connectorFor(c *config.Config, log *zap.Logger) backend.Connector {
	if c.Backend.Kind == "memory" {
		log.Warn("using the in-memory actor; data is lost on restart")
		return backendtest.New()
	}
	return backend.NewHTTPConnector(c.Backend.BaseURL, c.GetBackendTimeout())
}

func serve(ctx context.Context, c *config.Config, log *zap.Logger) error {
	boot := logging.For(log, logging.CategoryBoot)
	if c.UsesDevSecret() {
		boot.Warn("sessions are signed with the development secret; set PORTAL_JWT_SECRET")
	}

	conn, _, err := openDatabase(ctx, c.DB.Path, c.DB.MigrationsDir, log)
	if err != nil {
		return err
	}
	defer conn.Close()
	store, err := db.NewSQLiteStore(conn, logging.For(log, logging.CategoryStore))
	if err != nil {
		return err
	}

	verifier, err := auth.New(c.Auth.Verifier, c.Auth.VerifierURL, c.GetBackendTimeout())
	if err != nil {
		return err
	}
	authn, err := middleware.NewAuthenticator(c.Auth.Secret, c.Auth.CookieName, store, logging.For(log, logging.CategoryHTTP))
	if err != nil {
		return err
	}
	registry := query.NewRegistry(query.Options{StaleTime: c.GetStaleTime()}, c.GetIdleTTL())

	rt, err := api.NewRouter(api.Options{
		Connector:       connectorFor(c, boot),
		Store:           store,
		Auth:            authn,
		Verifier:        verifier,
		Registry:        registry,
		Log:             log,
		PublicURL:       c.Server.PublicURL,
		SessionTTL:      c.GetSessionTTL(),
		SecureCookies:   c.Server.SecureCookies,
		AllowedOrigins:  c.Server.AllowedOrigins,
		MessagesPoll:    c.GetMessagesPoll(),
		ActiveUsersPoll: c.GetActiveUsersPoll(),
		Heartbeat:       c.GetHeartbeat(),
	})
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	rt.Register(mux)
	mux.HandleFunc("GET /health", healthHandler(rt))
	mux.HandleFunc("GET /version", versionHandler)
	mountFrontend(mux, c.Server.StaticDir, boot)

	srv := &http.Server{
		Addr:              c.Server.Addr,
		Handler:           rt.Wrap(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		boot.Info("portal listening", zap.String("addr", c.Server.Addr), zap.String("backend", c.Backend.Kind))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		registry.Run(gctx, sweepEvery)
		return nil
	})
	g.Go(func() error {
		store.RunJanitor(gctx, janitorEvery)
		return nil
	})
	g.Go(func() error {
		t := time.NewTicker(sweepEvery)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				rt.Heartbeat().Forget()
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		boot.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), c.GetShutdownTimeout())
		defer cancel()
		err := srv.Shutdown(sctx)
		rt.Close()
		return err
	})
	return g.Wait()
}

func healthHandler(rt *api.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locale := middleware.LocaleFromContext(r.Context())
		body := map[string]any{
			"ok":         true,
			"name":       "Support Portal",
			"locale":     locale,
			"msg":        utils.T(locale, "health.ok"),
			"commit":     commit,
			"build_time": buildTime,
		}
		status := http.StatusOK
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.Ping(ctx); err != nil {
			body["ok"] = false
			body["db"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"commit":     commit,
		"build_time": buildTime,
	})
}

// mountFrontend serves the built frontend from staticDir, or proxies to a dev
// server when PORTAL_DEV_FRONTEND_URL is set.
func mountFrontend(mux *http.ServeMux, staticDir string, log *zap.Logger) {
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
		return
	}
	devURL := os.Getenv("PORTAL_DEV_FRONTEND_URL")
	if devURL == "" {
		return
	}
	u, err := url.Parse(devURL)
	if err != nil {
		log.Warn("invalid PORTAL_DEV_FRONTEND_URL", zap.String("url", devURL), zap.Error(err))
		return
	}
	mux.Handle("/", httputil.NewSingleHostReverseProxy(u))
}

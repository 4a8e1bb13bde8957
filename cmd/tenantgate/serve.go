package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/tenantgate/internal/auth"
	"github.com/dropDatabas3/tenantgate/internal/cache"
	"github.com/dropDatabas3/tenantgate/internal/config"
	"github.com/dropDatabas3/tenantgate/internal/federation"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	"github.com/dropDatabas3/tenantgate/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el proceso: health, readiness, métricas y sweep de expirados",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfigPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "tenantgate"})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("serve")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	defaultTTL, _ := time.ParseDuration(cfg.Cache.Memory.DefaultTTL)
	cc, err := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		RedisAddr:  cfg.Cache.Redis.Addr,
		RedisDB:    cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: defaultTTL,
	})
	if err != nil {
		return err
	}
	defer func() { _ = cc.Close() }()

	svc, err := auth.New(auth.Deps{
		Store:         st,
		SigningSecret: []byte(cfg.Auth.SigningSecret),
		SessionTTL:    cfg.SessionTTL(),
	})
	if err != nil {
		return err
	}

	registry := federation.NewRegistry(cfg.SSO.Providers)
	bridge, err := federation.NewBridge(federation.Deps{
		Registry:      registry,
		Store:         st,
		Cache:         cc,
		SigningSecret: []byte(cfg.Auth.SigningSecret),
		StateTTL:      cfg.StateTTL(),
	})
	if err != nil {
		return err
	}
	log.Info("federated providers", logger.String("enabled", strings.Join(registry.Names(), ",")))

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := st.Ping(req.Context()); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Flujo federado: redirect de arranque y callback del provider. Es la
	// única superficie de negocio del proceso; el resto del core lo consume
	// la capa HTTP que embebe este módulo.
	r.Get("/sso/{provider}/start", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "provider")
		u, err := bridge.LoginURL(req.Context(), name, req.URL.Query().Get("subdomain"))
		if err != nil {
			http.Error(w, "sso unavailable", http.StatusBadGateway)
			return
		}
		if u == "" {
			http.Error(w, "provider not enabled", http.StatusNotFound)
			return
		}
		http.Redirect(w, req, u, http.StatusFound)
	})
	r.Get("/sso/{provider}/callback", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "provider")
		q := req.URL.Query()
		res, err := bridge.HandleCallback(req.Context(), name, q.Get("code"), q.Get("state"))
		if err != nil {
			http.Error(w, "sso unavailable", http.StatusBadGateway)
			return
		}
		if !res.OK {
			http.Error(w, res.Message, http.StatusUnauthorized)
			return
		}
		token, err := svc.CreateSession(req.Context(), res.User.ID, req.RemoteAddr, req.UserAgent())
		if err != nil {
			http.Error(w, "session issue failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"` + token + `"}`))
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if interval := cfg.CleanupInterval(); interval > 0 {
		g.Go(func() error {
			runCleanupSweep(gctx, svc, interval)
			return nil
		})
	}

	err = g.Wait()
	log.Info("shutdown complete")
	return err
}

// runCleanupSweep borra periódicamente api tokens y sesiones vencidos.
// Idempotente bajo procesos concurrentes: solo toca filas ya expiradas.
func runCleanupSweep(ctx context.Context, svc auth.Service, interval time.Duration) {
	log := logger.Named("cleanup")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.CleanupExpiredTokens(ctx); err != nil {
				log.Warn("token sweep failed", logger.Err(err))
			}
			if _, err := svc.CleanupExpiredSessions(ctx); err != nil {
				log.Warn("session sweep failed", logger.Err(err))
			}
		}
	}
}

package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sipa-dev/sipa/internal/config"
	serrors "github.com/sipa-dev/sipa/internal/errors"
	"github.com/sipa-dev/sipa/pkg/component"
	"github.com/sipa-dev/sipa/pkg/inspect"
	"github.com/sipa-dev/sipa/pkg/page"
	"github.com/sipa-dev/sipa/pkg/render"
	"github.com/sipa-dev/sipa/pkg/state"
	"github.com/sipa-dev/sipa/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo application with the inspector",
		Long: `Serve the demo todo application.

Pages are served under /, the inspector under /_sipa:

  /_sipa/version         build information
  /_sipa/instances       live component instances
  /_sipa/instances/{id}  one instance with its markup
  /_sipa/metrics         Prometheus metrics
  /_sipa/live            WebSocket stream of renders and lifecycle events`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Inspector.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides inspector.addr)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	eng := component.NewEngine(component.Config{
		RenderPeriod: cfg.RenderPeriod(),
		Logger:       logger,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(
		telemetry.WithNamespace(cfg.Metrics.Namespace),
		telemetry.WithRegistry(reg),
	)
	metrics.Install(eng)
	eng.Use(telemetry.Tracing())

	backend, err := openBackend(ctx, cfg.Store)
	if err != nil {
		return err
	}
	store := state.New(backend, logger)
	defer store.Close()

	nav := page.New(eng, page.Config{Store: store, Logger: logger})
	if err := registerDemo(eng, nav); err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if !cfg.Inspector.Disabled {
		insp := inspect.New(eng, inspect.Options{
			Version:  version,
			Gatherer: reg,
			Logger:   logger,
		})
		defer insp.Hub().Close()
		r.Mount("/_sipa", insp.Handler())
	}
	r.Get("/*", pageHandler(eng, nav, logger))

	go eng.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Inspector.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	success("Serving on http://%s", cfg.Inspector.Addr)
	if cfg.Path() != "" {
		info("Config: %s", cfg.Path())
	}
	if !cfg.Inspector.Disabled {
		info("Inspector: http://%s/_sipa/instances", cfg.Inspector.Addr)
	}

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return serrors.New("S410").Wrap(err).WithDetailf("listening on %s", cfg.Inspector.Addr)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openBackend selects the persistent backend: S3 when a bucket is
// configured, then bbolt, then memory.
func openBackend(ctx context.Context, cfg config.StoreConfig) (state.Backend, error) {
	switch {
	case cfg.S3.Bucket != "":
		client := s3.New(s3.Options{
			Region:      cfg.S3.Region,
			Credentials: envCredentials(),
		})
		return state.NewS3Backend(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	case cfg.BoltPath != "":
		return state.OpenBolt(cfg.BoltPath)
	default:
		return state.NewMemoryBackend(), nil
	}
}

func envCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		creds := aws.Credentials{
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "environment",
		}
		if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
			return aws.Credentials{}, stderrors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
		}
		return creds, nil
	})
}

// pageHandler loads the requested page on the engine loop and writes the
// document.
func pageHandler(eng *component.Engine, nav *page.Navigator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			markup string
			err    error
		)
		doErr := eng.Do(r.Context(), func() {
			if err = nav.LoadURL(r.Context(), r.URL.RequestURI()); err == nil {
				markup = render.Inner(nav.Root())
			}
		})
		if doErr != nil {
			http.Error(w, doErr.Error(), http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			status := http.StatusInternalServerError
			if stderrors.Is(err, serrors.ErrNotFound) {
				status = http.StatusNotFound
			}
			logger.Warn("page load failed", "url", r.URL.String(), "error", err)
			http.Error(w, err.Error(), status)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<!DOCTYPE html>\n<html><head><title>sipa</title></head><body>"))
		w.Write([]byte(markup))
		w.Write([]byte("</body></html>\n"))
	}
}

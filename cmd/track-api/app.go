package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	trackingsapi "github.com/BearBump/TrackDesk/internal/api/trackings_api"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type trackAPIOpts struct {
	httpAddr    string
	swaggerPath string

	scansTopic    string
	consumerGroup string

	// X-Forwarded-For/X-Real-IP учитываются только за доверенным прокси
	trustProxyHeaders bool

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

type scanHandler interface {
	HandleCarrierScan(ctx context.Context, key, value []byte) error
}

type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

type trackAPIDeps struct {
	api    *trackingsapi.TrackingsAPI
	scans  scanHandler
	checks []readinessCheck

	// nil, если kafka не настроена
	consumer kafkaConsumer
}

func runTrackAPI(ctx context.Context, opts trackAPIOpts, deps trackAPIDeps) error {
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	var consumerHealth *consumerState
	if deps.consumer != nil {
		consumerHealth = &consumerState{}
		deps.checks = append(append([]readinessCheck(nil), deps.checks...),
			readinessCheck{name: "kafka-consumer", check: consumerHealth.check})
	}

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runHTTPServer(ctx, lis, newRouter(opts, deps))
	}()

	if deps.consumer != nil {
		go func() {
			slog.Info("kafka consumer started", "topic", opts.scansTopic, "group", opts.consumerGroup)
			err := deps.consumer.Consume(ctx, func(key, value []byte) error {
				return deps.scans.HandleCarrierScan(ctx, key, value)
			})
			if ctx.Err() != nil {
				return
			}
			if err == nil {
				err = fmt.Errorf("consumer returned without error")
			}
			slog.Error("kafka consumer stopped", "topic", opts.scansTopic, "error", err.Error())
			consumerHealth.stop(err)
		}()
	}

	select {
	case <-ctx.Done():
		<-httpErr
		return ctx.Err()
	case err := <-httpErr:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
}

// consumerState remembers why the scans consumer stopped; the service stays up but is no
// longer ready.
type consumerState struct {
	mu  sync.Mutex
	err error
}

func (c *consumerState) stop(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *consumerState) check(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return fmt.Errorf("kafka consumer stopped: %w", c.err)
	}
	return nil
}

func newRouter(opts trackAPIOpts, deps trackAPIDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.trustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, c := range deps.checks {
			if err := c.check(ctx); err != nil {
				slog.Warn("readiness check failed", "check", c.name, "error", err.Error())
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "check": c.name})
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	// no-store + cachebuster, чтобы UI не держал старую схему
	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})
	swaggerURL := "/swagger.json"
	if fi, err := os.Stat(opts.swaggerPath); err == nil {
		swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
	}
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))

	r.Mount("/api", deps.api.Routes())
	return r
}

func runHTTPServer(ctx context.Context, lis net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	err := srv.Serve(lis)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

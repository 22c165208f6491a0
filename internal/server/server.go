// Package server boots the Better Drive process: configuration, database,
// cache, blob store, background jobs, the gRPC health sidecar, and the HTTP
// API, then blocks until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/betterdrive/betterdrive/app/jobs"
	"github.com/betterdrive/betterdrive/app/routes"
	"github.com/betterdrive/betterdrive/config"
	"github.com/betterdrive/betterdrive/pkg/blob"
	"github.com/betterdrive/betterdrive/pkg/cache"
	"github.com/betterdrive/betterdrive/pkg/database"
	grpcserver "github.com/betterdrive/betterdrive/pkg/grpc"
	"github.com/betterdrive/betterdrive/pkg/logger"
	"github.com/betterdrive/betterdrive/pkg/metrics"
	"github.com/betterdrive/betterdrive/pkg/middleware"
	"github.com/betterdrive/betterdrive/pkg/reqid"
	"github.com/betterdrive/betterdrive/pkg/router"
	"github.com/betterdrive/betterdrive/pkg/schedule"
	"github.com/betterdrive/betterdrive/pkg/workerpool"
)

const shutdownTimeout = 15 * time.Second

// Start boots every subsystem and serves until SIGINT/SIGTERM.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}

	// Audit trail: fan log records out to MongoDB when configured.
	if uri := config.AuditMongoURI(); uri != "" {
		audit, err := logger.NewMongoHandler(uri, config.AuditMongoDB(), "audit_log")
		if err != nil {
			return err
		}
		defer audit.Close()
		logger.EnableAudit(audit)
	}

	if err := database.Connect(); err != nil {
		return err
	}

	// Cache is an optimisation, not a dependency: storage-info reads fall
	// through to the database when Redis is down.
	if err := cache.Connect(); err != nil {
		logger.Warn("server: redis unavailable, caching disabled", "error", err)
	}

	pool := workerpool.New(8)
	defer pool.Shutdown()

	// S3 when a bucket is configured, local disk otherwise.
	var blobs blob.Store
	var err error
	if config.BlobS3Bucket() != "" {
		blobs, err = blob.NewS3(pool)
	} else {
		blobs, err = blob.NewDisk()
	}
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs.RegisterAll(database.DB)
	schedule.Start(ctx)

	if port := config.GRPCPort(); port != "" {
		grpcSrv, _, err := grpcserver.Start(port)
		if err != nil {
			return err
		}
		defer grpcserver.Stop(grpcSrv)
	}

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           Handler(database.DB, blobs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case s := <-sig:
		logger.Info("server: shutting down", "signal", s.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// Handler builds the full HTTP handler: global middleware, the /metrics
// endpoint, and every API route. Split out from Start so tests can stand up
// the whole surface via httptest without binding a port.
func Handler(db *gorm.DB, blobs blob.Store) http.Handler {
	r := router.New()

	// Global middleware stack (outermost → innermost):
	//  1. Prometheus metrics — outermost for accurate total latency
	//  2. Recovery          — catches panics before they kill the goroutine
	//  3. Request ID        — inject unique ID before anything logs
	//  4. Logger            — logs request_id from context
	//  5. CORS              — set CORS headers
	//  6. Rate limiter      — reject abusers early
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	r.Use(middleware.RateLimit(200, time.Minute))

	// Prometheus /metrics endpoint — no auth, no rate limit.
	r.HandleFunc("/metrics", metrics.Handler())

	routes.RegisterAPI(r, db, blobs)

	return r.Handler()
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides the transition prediction review service.
//
// This package contains the main service type that coordinates all
// components: dataset loading, session sequencing, results persistence,
// HTTP routing, and observability infrastructure.
//
// # Usage
//
//	cfg := validation.Config{
//	    DataFile:   "transition_comparisons.json",
//	    ResultsDir: "validation_results",
//	    Seed:       42,
//	}
//	svc, err := validation.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package validation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/AleutianValidate/services/validation/dataset"
	"github.com/AleutianAI/AleutianValidate/services/validation/middleware"
	"github.com/AleutianAI/AleutianValidate/services/validation/observability"
	"github.com/AleutianAI/AleutianValidate/services/validation/routes"
	"github.com/AleutianAI/AleutianValidate/services/validation/sequencer"
	"github.com/AleutianAI/AleutianValidate/services/validation/session"
	"github.com/AleutianAI/AleutianValidate/services/validation/store"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the validation service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and should
// only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine

	// Sessions returns the session manager, for testing and embedding.
	Sessions() *session.Manager
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds validation service configuration options.
//
// DataFile is the only required field; everything else has a sensible
// default applied by New().
type Config struct {
	// Port is the HTTP server port. Default: 12250
	Port int

	// Host is the listen address. Default: "127.0.0.1" — the review tool
	// serves one local reviewer, not a fleet.
	Host string

	// DataFile is the transition comparison JSON to review. Required.
	DataFile string

	// ResultsDir is where per-session results logs live.
	// Default: "./validation_results"
	ResultsDir string

	// Seed drives the deterministic presentation order for new sessions.
	// Default: sequencer.DefaultSeed (a fixed constant, so an unset seed
	// is still reproducible).
	Seed int64

	// SeedSet marks Seed as explicitly chosen; without it a zero Seed is
	// replaced by the default. Seed 0 is a legitimate explicit choice.
	SeedSet bool

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// If empty, tracing is disabled.
	OTelEndpoint string

	// DisableMetrics turns off Prometheus metrics registration.
	// The zero value keeps metrics on.
	DisableMetrics bool

	// DisableWatch turns off the dataset change watcher that warns when
	// the data file is rewritten mid-session. The zero value keeps it on.
	DisableWatch bool

	// GinMode sets the Gin framework mode ("debug", "release", "test").
	GinMode string
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// Thread-safe after construction; all fields are read-only after New()
// returns except the session manager's own guarded state.
type service struct {
	config        Config
	router        *gin.Engine
	ds            *dataset.Dataset
	store         *store.Store
	sessions      *session.Manager
	watcher       *dataset.Watcher
	watcherCancel context.CancelFunc
	tracerCleanup func(context.Context)
}

// New creates a validation Service with the given configuration.
//
// # Description
//
// New loads and validates the dataset (fatal on malformed input, before
// any session starts), prepares the results store, and wires the HTTP
// router. Dataset errors surface here so the operator sees them at
// startup rather than mid-review.
//
// # Outputs
//
//   - Service: Ready-to-run review service.
//   - error: Non-nil if the dataset is malformed or the results directory
//     cannot be prepared.
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	if s.config.DataFile == "" {
		return nil, fmt.Errorf("data file must be configured")
	}

	ds, err := dataset.Load(s.config.DataFile)
	if err != nil {
		return nil, err
	}
	s.ds = ds

	st, err := store.New(s.config.ResultsDir)
	if err != nil {
		return nil, err
	}
	s.store = st
	s.sessions = session.NewManager(ds, st, s.config.Seed)

	if s.config.OTelEndpoint != "" {
		cleanup, err := s.initTracer()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	if !s.config.DisableMetrics {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics for validation")
	}

	if !s.config.DisableWatch {
		if err := s.initWatcher(); err != nil {
			slog.Warn("Dataset watcher initialization failed", "error", err)
			// Not fatal - continue without change warnings
		}
	}

	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	slog.Info("Starting validation server",
		"addr", addr,
		"data_file", s.config.DataFile,
		"results_dir", s.config.ResultsDir,
		"seed", s.config.Seed)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// Sessions returns the session manager.
func (s *service) Sessions() *session.Manager {
	return s.sessions
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12250
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.ResultsDir == "" {
		cfg.ResultsDir = "./validation_results"
	}
	if cfg.Seed == 0 && !cfg.SeedSet {
		cfg.Seed = sequencer.DefaultSeed
	}
	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// Uses an insecure gRPC connection, appropriate for the internal networks
// the collector runs on.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("validation-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initWatcher starts the dataset change watcher in the background.
func (s *service) initWatcher() error {
	watcher, err := dataset.NewWatcher(s.config.DataFile, nil)
	if err != nil {
		return err
	}
	s.watcher = watcher

	ctx, cancel := context.WithCancel(context.Background())
	s.watcherCancel = cancel
	go watcher.Start(ctx)
	return nil
}

// initRouter creates the Gin engine, applies middleware, and registers
// all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	// gin.New, not gin.Default: RequestLogger is the only request logger.
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	if s.tracerCleanup != nil {
		s.router.Use(otelgin.Middleware("validation-service"))
	}
	s.router.Use(middleware.RequestLogger())

	routes.SetupRoutes(s.router, s.sessions)
}

// cleanup releases all resources held by the service.
func (s *service) cleanup() {
	if s.watcherCancel != nil {
		s.watcherCancel()
	}
	if err := s.sessions.Close(); err != nil {
		slog.Warn("session close error", "error", err)
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)

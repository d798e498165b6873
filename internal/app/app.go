// Package app wires the terminal service together: configuration, database,
// domain services, HTTP surface, probes, and graceful shutdown.
package app

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/oolio-pos-terminal/internal/api"
	"github.com/xenking/oolio-pos-terminal/internal/domain/parked"
	"github.com/xenking/oolio-pos-terminal/internal/domain/payment"
	"github.com/xenking/oolio-pos-terminal/internal/domain/pricing"
	"github.com/xenking/oolio-pos-terminal/internal/repository"
	"github.com/xenking/oolio-pos-terminal/internal/scan"
	"github.com/xenking/oolio-pos-terminal/internal/terminal"
	"github.com/xenking/oolio-pos-terminal/pkg/health"
	"github.com/xenking/oolio-pos-terminal/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("currency", cfg.Currency))

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.DatabaseCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)

	// Repositories.
	pointValue, err := decimal.NewFromString(cfg.PointValue)
	if err != nil {
		return errors.Wrap(err, "parse point value")
	}
	catalogRepo := repository.NewCatalogRepository(pool)
	saleRepo := repository.NewSaleRepository(pool)
	parkedRepo := repository.NewParkedSaleRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool, pointValue)

	// Domain services.
	payCfg := payment.DefaultConfig(cfg.Currency)
	engine := pricing.NewEngine(payCfg.MinorUnitExponent)
	processor := payment.NewProcessor(payCfg)
	parkedMgr := parked.NewManager(parkedRepo, engine)

	index, err := loadBarcodeIndex(ctx, lg, cfg.BarcodeIndexPath, catalogRepo)
	if err != nil {
		return errors.Wrap(err, "barcode index")
	}
	resolver := scan.NewResolver(catalogRepo, scan.WithBarcodeIndex(index))

	sessions := terminal.NewRegistry(terminal.Deps{
		Resolver:  resolver,
		Catalog:   catalogRepo,
		Customers: customerRepo,
		Sales:     saleRepo,
		Parked:    parkedMgr,
		Engine:    engine,
		Processor: processor,
	})

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	api.NewHandler(sessions, parkedMgr).Register(mux)

	instrumented := otelhttp.NewHandler(mux, "pos-terminal",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(instrumented,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
				ExposeHeaders:    []string{"X-Request-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	healthSvc.SetReady(true)

	// Graceful shutdown: drop readiness, drain, then stop the listener.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// loadBarcodeIndex returns the bloom filter of known barcodes used to skip
// catalog lookups for codes that cannot match. It reads a prebuilt filter
// from path when configured, otherwise builds one from the catalog.
func loadBarcodeIndex(ctx context.Context, lg *zap.Logger, path string, catalogRepo *repository.CatalogRepository) (*bloom.BloomFilter, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open index file")
		}
		defer func() { _ = f.Close() }()

		filter := &bloom.BloomFilter{}
		if _, err := filter.ReadFrom(f); err != nil {
			return nil, errors.Wrap(err, "read index file")
		}
		lg.Info("Loaded barcode index", zap.String("path", path), zap.Uint("capacity", filter.Cap()))
		return filter, nil
	}

	barcodes, err := catalogRepo.ListBarcodes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list barcodes")
	}

	n := uint(len(barcodes))
	if n < 1024 {
		n = 1024
	}
	filter := bloom.NewWithEstimates(n, 0.001)
	for _, code := range barcodes {
		filter.AddString(code)
	}
	lg.Info("Built barcode index from catalog", zap.Int("barcodes", len(barcodes)))
	return filter, nil
}

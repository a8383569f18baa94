package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/infigaming-com/fxboard/board"
	"github.com/infigaming-com/fxboard/cache"
	"github.com/infigaming-com/fxboard/config"
	"github.com/infigaming-com/fxboard/crossrate"
	"github.com/infigaming-com/fxboard/observability/metrics"
	"github.com/infigaming-com/fxboard/pkg/cloudflare"
	"github.com/infigaming-com/fxboard/rate"
	"github.com/infigaming-com/fxboard/refresh"
	"github.com/infigaming-com/fxboard/request"
	"github.com/infigaming-com/fxboard/store"
	"github.com/infigaming-com/fxboard/util"
	"github.com/infigaming-com/fxboard/web"
	"github.com/infigaming-com/fxboard/web/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("FXBOARD_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, syncLogger := util.NewLoggerWithLevel(cfg.Log.Level)
	defer syncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, lg, cfg); err != nil {
		lg.Fatal("fxboard stopped", zap.Error(err))
	}
}

func run(ctx context.Context, lg *zap.Logger, cfg *config.Config) error {
	requestOpts := []request.Option{
		request.WithLogger(lg),
		request.WithRetry(cfg.Refresh.Retries),
		request.WithRequestTimeout(cfg.Refresh.FetchTimeout),
		request.WithDebugEnabled(cfg.Log.HTTPDebug),
	}
	unionPay := rate.NewUnionPayProvider(cfg.UnionPay.BaseURL,
		rate.WithLogger(lg), rate.WithRequestOptions(requestOpts...))
	cbr := rate.NewCBRProvider(cfg.CBR.URL,
		rate.WithLogger(lg), rate.WithRequestOptions(requestOpts...))

	var recorders []metrics.Recorder
	registry := prometheus.NewRegistry()
	var prom *metrics.PrometheusRecorder
	if cfg.Metrics.Prometheus {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		prom = metrics.NewPrometheusRecorder(registry)
		recorders = append(recorders, prom)
	}
	if cfg.Metrics.OTLPEnabled() {
		exporter, shutdown, err := metrics.NewMetricExporter(
			metrics.WithServiceName(cfg.Metrics.ServiceName),
			metrics.WithEnvironment(cfg.Env),
			metrics.WithOTLPEndpoint(cfg.Metrics.OTLPEndpoint),
			metrics.WithOTLPGRPCEndpoint(cfg.Metrics.OTLPGRPCEndpoint),
			metrics.WithExportInterval(cfg.Metrics.ExportInterval),
		)
		if err != nil {
			return err
		}
		defer shutdown()
		recorders = append(recorders, metrics.NewOTelRecorder(lg, exporter))
	}

	schedulerOpts := []refresh.Option{
		refresh.WithLogger(lg),
		refresh.WithFetchTimeout(cfg.Refresh.FetchTimeout),
		refresh.WithRecorder(metrics.NewMultiRecorder(recorders...)),
	}
	if cfg.Cloudflare.Enabled() {
		purger, err := cloudflare.NewPurger(cfg.Cloudflare, cloudflare.WithLogger(lg))
		if err != nil {
			return err
		}
		schedulerOpts = append(schedulerOpts, refresh.WithRefreshHook(purger.RefreshHook()))
	}

	rates := store.NewRateStore()
	scheduler := refresh.NewScheduler(rates, schedulerOpts...)
	if err := scheduler.Register(unionPay, refresh.DefaultUnionPayPolicy()); err != nil {
		return err
	}
	if err := scheduler.Register(cbr, refresh.DefaultCBRPolicy()); err != nil {
		return err
	}

	engine := crossrate.NewEngine(rates, crossrate.WithPrecision(cfg.Board.Precision))

	serviceOpts := []board.Option{board.WithLogger(lg)}
	switch cfg.Cache.Backend {
	case config.CacheBackendMemory:
		serviceOpts = append(serviceOpts, board.WithCache(cache.NewFreeCache(cfg.Cache.MemorySize), cfg.Cache.TTL))
	case config.CacheBackendRedis:
		redisCache, closeRedis, err := cache.NewRedisCache(lg, &cfg.Cache.Redis)
		if err != nil {
			return err
		}
		defer closeRedis()
		serviceOpts = append(serviceOpts, board.WithCache(redisCache, cfg.Cache.TTL))
	}
	service := board.NewService(scheduler, rates, engine, serviceOpts...)

	handler := web.NewRatesHandler(lg, service, web.WithDefaultBase(cfg.Board.DefaultBase))
	server := web.NewServer(lg,
		web.WithMode(cfg.Server.Mode),
		web.WithPort(cfg.Server.Port),
		web.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		web.WithMiddleware(
			middleware.CorrelationIdMiddleware(),
			middleware.CORSMiddleware(cfg.Server.AllowedOrigins),
			middleware.LoggingMiddleware(
				middleware.WithLogger(lg),
				middleware.WithDebugEnabled(cfg.Log.HTTPDebug),
				middleware.WithExcludePaths([]string{"/healthcheck", "/metrics"}),
			),
		),
		web.WithRoutes(func(r *gin.Engine) {
			handler.Register(r.Group("/api/v1"))
			if prom != nil {
				r.GET("/metrics", gin.WrapH(prom.Handler()))
			}
		}),
	)

	if cfg.Refresh.Interval > 0 {
		go scheduler.Run(ctx, cfg.Refresh.Interval)
	}

	lg.Info("fxboard starting",
		zap.Int64("port", cfg.Server.Port),
		zap.String("cacheBackend", cfg.Cache.Backend),
		zap.Duration("refreshInterval", cfg.Refresh.Interval))
	return server.Run(ctx)
}

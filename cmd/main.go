package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"resume-triage/internal/api/handler"
	"resume-triage/internal/api/router"
	"resume-triage/internal/bootstrap"
	"resume-triage/internal/config"
	"resume-triage/internal/constants"
	"resume-triage/internal/logger"
	"resume-triage/internal/metrics"
	"resume-triage/internal/outbox"
	"resume-triage/internal/parser"
	"resume-triage/internal/session"
	"resume-triage/internal/storage"
	apptracing "resume-triage/internal/tracing"
)

var version = "1.0.0" //nolint:gochecknoglobals

func main() {
	// .env 不存在时忽略
	_ = godotenv.Load()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("配置校验失败")
	}

	logCloser, err := logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
		File:         cfg.Logger.File,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化日志失败")
	}
	defer logCloser.Close()
	logger.SetupHertz()
	logger.Info().Str("version", version).Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := apptracing.InitProvider(ctx, apptracing.ProviderOptions{
		Enabled:        cfg.Tracing.Enabled,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
		ServiceName:    constants.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化追踪失败")
	}

	storageManager, err := storage.NewStorage(ctx, cfg, logger.Component("storage"))
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()

	// 审计表和交换机都可用时才转发 outbox
	var messageRelay *outbox.MessageRelay
	if storageManager.MySQL != nil && storageManager.RabbitMQ != nil {
		messageRelay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ, logger.Component("outbox"),
			outbox.WithPollingInterval(config.GetDuration(cfg.RabbitMQ.RelayPollInterval, 0)),
			outbox.WithBatchSize(cfg.RabbitMQ.RelayBatchSize),
			outbox.WithMaxRetries(cfg.RabbitMQ.RelayMaxRetries),
		)
		messageRelay.Start()
		logger.Info().Msg("消息中继服务已启动")
	}

	pdfExtractor, err := parser.NewEinoPDFTextExtractor(ctx,
		parser.WithEinoLogger(logger.Component("pdf")),
		parser.WithPDFTimeout(config.GetDuration(cfg.PDF.Timeout, 0)),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("创建PDF提取器失败")
	}
	termExtractor, err := bootstrap.NewTermExtractor(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化模型失败")
	}

	m := metrics.New(constants.MetricsNamespace)
	services, err := bootstrap.NewServices(cfg, storageManager, pdfExtractor, termExtractor, m, logger.Logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化处理器失败")
	}

	sessions := session.NewManager(
		session.WithIdleTTL(config.GetDuration(cfg.Session.IdleTTL, constants.DefaultSessionIdleTTL)),
		session.WithTeardown(storageManager.Files.Purge),
		session.WithLogger(logger.Component("session")),
	)
	go sessions.RunJanitor(ctx, config.GetDuration(cfg.Session.SweepInterval, constants.DefaultSessionSweepInterval))
	m.RegisterGauge(constants.MetricsNamespace, "active_sessions", "Sessions currently open.", func() float64 {
		return float64(sessions.Len())
	})

	hd, err := handler.New(handler.Deps{
		Sessions: sessions,
		Resumes:  services.Resumes,
		Triage:   services.Triage,
		Files:    storageManager.Files,
		Logger:   logger.Component("http"),
		BasePath: router.APIPrefix,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化处理器失败")
	}

	tracer, tracingCfg := tracing.NewServerTracer()
	h := server.New(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(cfg.Server.MaxRequestBytes),
	)
	h.Use(tracing.ServerMiddleware(tracingCfg))

	routerOpts := router.Options{
		APIKeys:   cfg.Auth.APIKeys,
		KeyHeader: cfg.Auth.Header,
		Logger:    logger.Component("http"),
	}
	if cfg.Metrics.Enabled {
		routerOpts.Metrics = m
		routerOpts.MetricsPath = cfg.Metrics.Path
	}
	router.RegisterRoutes(h, hd, routerOpts)
	logger.Info().Str("address", cfg.Server.Address).Msg("HTTP 服务器启动中")

	go func() {
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	if messageRelay != nil {
		messageRelay.Stop()
		logger.Info().Msg("消息中继服务已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("关闭追踪导出失败")
	}
	logger.Info().Msg("优雅退出完成")
}

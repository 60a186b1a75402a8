package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/temasictfic/bfme2replaybot/internal/config"
	"github.com/temasictfic/bfme2replaybot/internal/database"
	"github.com/temasictfic/bfme2replaybot/internal/logging"
	"github.com/temasictfic/bfme2replaybot/internal/metrics"
	intOtel "github.com/temasictfic/bfme2replaybot/internal/otel"
	"github.com/temasictfic/bfme2replaybot/internal/render"
	"github.com/temasictfic/bfme2replaybot/internal/replay"
	"github.com/temasictfic/bfme2replaybot/internal/service"
	"github.com/temasictfic/bfme2replaybot/internal/storage"
	"github.com/temasictfic/bfme2replaybot/internal/worker"
)

var (
	AppName string = "replaybot"
	Version string = "0.0.1"
)

func main() {
	var (
		configDir = flag.String("config", ".", "directory containing replaybot.cfg.json")
		outDir    = flag.String("out", "./renders", "directory for rendered match images")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	sessionStart := time.Now()

	if err := config.Load(*configDir); err != nil {
		// Defaults cover everything; a missing config file is not fatal.
		fmt.Fprintf(os.Stderr, "config: %v (continuing with defaults)\n", err)
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logs dir: %v\n", err)
		os.Exit(1)
	}

	logFile, err := os.OpenFile(
		logging.LogFilePath(logsDir, AppName, sessionStart),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	// Optional OTel log export
	var provider *intOtel.Provider
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		otelLogFile, err := os.OpenFile(
			logging.LogFilePath(logsDir, AppName+".otel", sessionStart),
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open otel log file: %v\n", err)
			os.Exit(1)
		}
		defer otelLogFile.Close()

		provider, err = intOtel.New(intOtel.Config{
			Enabled:      true,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    otelLogFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize otel: %v\n", err)
			os.Exit(1)
		}
	}

	logManager := logging.NewSlogManager()

	var sdkProvider *sdklog.LoggerProvider
	if provider != nil {
		sdkProvider = provider.LoggerProvider()
	}
	if viper.GetBool("graylog.enabled") {
		gelfWriter, err := logging.NewGraylogWriter(viper.GetString("graylog.address"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "graylog: %v (continuing without)\n", err)
			logManager.Setup(logFile, nil, viper.GetString("logLevel"), sdkProvider)
		} else {
			logManager.Setup(logFile, gelfWriter, viper.GetString("logLevel"), sdkProvider)
		}
	} else {
		logManager.Setup(logFile, nil, viper.GetString("logLevel"), sdkProvider)
	}
	logger := logManager.Logger()
	logger.Info("Starting up", "app", AppName, "version", Version)

	// Infra managers log through zerolog to the same file.
	zlog := zerolog.New(logFile).With().Timestamp().Logger()

	dbManager := database.NewManager(zlog)
	if err := dbManager.Connect(); err != nil {
		logger.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	if err := dbManager.Setup(); err != nil {
		logger.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	repo := storage.NewRepository(dbManager.DB, zlog)

	// Metrics are best-effort; a dead InfluxDB falls back to the gzip
	// backup file inside the manager.
	var decodeMetrics service.DecodeMetrics
	influxManager := metrics.NewManager(zlog, logging.BackupFilePath(logsDir, AppName, sessionStart))
	if err := influxManager.Connect(); err != nil {
		logger.Warn("Metrics disabled", "reason", err)
	} else {
		decodeMetrics = influxManager
		defer influxManager.Close()
	}

	var renderer *render.Renderer
	renderer, err = render.NewRenderer(config.GetRenderConfig())
	if err != nil {
		logger.Warn("Map rendering disabled", "reason", err)
		renderer = nil
	}

	pool := worker.NewPool(viper.GetInt("decode.workers"), replay.NewDecoder(logger), logger)
	notifier := &fileNotifier{dir: *outDir, logger: logger}
	pipeline := service.NewPipeline(pool, renderer, repo, decodeMetrics, notifier, logger)

	ctx := context.Background()
	exitCode := runPaths(ctx, pipeline, flag.Args(), logger)

	if provider != nil {
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error("OTel shutdown failed", "error", err)
		}
	}
	_ = logManager.Flush(ctx)

	os.Exit(exitCode)
}

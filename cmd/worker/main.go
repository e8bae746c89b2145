package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"jobboard-backend/internal/bootstrap"
	"jobboard-backend/internal/shared/config"
	"jobboard-backend/internal/shared/telemetry"
)

const defaultRegion = "us-east-1"

func main() {
	cfg := config.Load()
	if err := telemetry.Configure(cfg.LogFormat, cfg.LogLevel); err != nil {
		log.Fatalf("configure logging: %v", err)
	}
	defer telemetry.Sync()

	if cfg.ScreeningQueueURL == "" {
		log.Fatal("SCREENING_QUEUE_URL is required")
	}
	region := strings.TrimSpace(cfg.AWSRegion)
	if region == "" {
		region = defaultRegion
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	c := &consumer{
		client:      sqs.NewFromConfig(awsCfg),
		queueURL:    cfg.ScreeningQueueURL,
		runner:      app.Screener,
		concurrency: cfg.ScreeningWorkers,
		visibility:  cfg.QueueVisibility,
		drain:       cfg.ShutdownTimeout,
	}
	c.run(ctx)

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := app.Close(closeCtx); err != nil {
		telemetry.Error("worker.close_failed", map[string]any{"error": err})
	}
}

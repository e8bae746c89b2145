package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"jobboard-backend/internal/bootstrap"
	"jobboard-backend/internal/screening"
	"jobboard-backend/internal/shared/config"
	"jobboard-backend/internal/shared/metrics"
	"jobboard-backend/internal/shared/telemetry"
	"jobboard-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	runner   screening.Runner
)

func initApp() {
	cfg := config.Load()
	if err := telemetry.Configure(cfg.LogFormat, cfg.LogLevel); err != nil {
		initErr = err
		return
	}
	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		initErr = err
		return
	}
	runner = app.Screener
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return process(ctx, runner, event), nil
}

// process reports retryable failures back to SQS. Malformed payloads are
// dropped so they are not redelivered forever.
func process(ctx context.Context, r screening.Runner, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncQueueReceived()
		err := workerproc.HandleMessage(ctx, r, record.Body)
		switch {
		case err == nil:
		case workerproc.Unrecoverable(err):
			metrics.IncQueueDeletedUnrecoverable()
			telemetry.Error("lambda.screening.invalid_message", map[string]any{
				"sqs_message_id": record.MessageId,
				"error":          err,
			})
		default:
			telemetry.Error("lambda.screening.failed", map[string]any{
				"sqs_message_id": record.MessageId,
				"error":          err,
			})
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}

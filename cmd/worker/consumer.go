package main

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"jobboard-backend/internal/queue"
	"jobboard-backend/internal/screening"
	"jobboard-backend/internal/shared/metrics"
	"jobboard-backend/internal/shared/telemetry"
	"jobboard-backend/internal/workerproc"
)

const (
	receiveBatch   = 10
	receiveWait    = 20 * time.Second
	receiveBackoff = time.Second
)

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// consumer long-polls the screening queue and runs up to concurrency
// screenings at once.
type consumer struct {
	client      sqsAPI
	queueURL    string
	runner      screening.Runner
	concurrency int
	visibility  time.Duration
	drain       time.Duration
}

// run polls until ctx is cancelled, then waits up to drain for in-flight
// screenings. Those keep running on a context that ignores the shutdown
// signal, so a decision already requested is still recorded.
func (c *consumer) run(ctx context.Context) {
	sem := make(chan struct{}, max(1, c.concurrency))
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"queue_url":   c.queueURL,
		"concurrency": cap(sem),
		"visibility":  c.visibility.String(),
	})

	for ctx.Err() == nil {
		msgs, err := c.receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err})
			sleep(ctx, receiveBackoff)
			continue
		}
		// Messages not started before shutdown reappear after the visibility
		// timeout.
		for _, msg := range msgs {
			if !acquire(ctx, sem) {
				break
			}
			metrics.IncQueueReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				c.handle(context.WithoutCancel(ctx), m)
			}(msg)
		}
	}

	telemetry.Info("worker.shutdown", map[string]any{"drain": c.drain.String()})
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(c.drain):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
}

func (c *consumer) receive(ctx context.Context) ([]sqstypes.Message, error) {
	out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:                    aws.String(c.queueURL),
		MaxNumberOfMessages:         receiveBatch,
		WaitTimeSeconds:             int32(receiveWait / time.Second),
		VisibilityTimeout:           int32(c.visibility / time.Second),
		MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{sqstypes.MessageSystemAttributeNameApproximateReceiveCount},
	})
	if err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// handle deletes the message after success or when the payload can never be
// processed. Other failures stay on the queue for redelivery.
func (c *consumer) handle(ctx context.Context, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	decoded, meta, err := workerproc.ParseMessage(body)
	fields := messageFields(msg, decoded)
	if err != nil {
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.screening.invalid_message", fields)
		if workerproc.Unrecoverable(err) && c.delete(ctx, msg, fields) {
			metrics.IncQueueDeletedUnrecoverable()
		}
		return
	}

	telemetry.Info("worker.screening.received", fields)
	if err := workerproc.HandleMessage(workerproc.WithParsedMessage(ctx, decoded), c.runner, body); err != nil {
		var procErr workerproc.ErrProcess
		if errors.As(err, &procErr) && procErr.Err != nil {
			err = procErr.Err
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.screening.failed", fields)
		return
	}
	if c.delete(ctx, msg, fields) {
		telemetry.Info("worker.screening.completed", fields)
	}
}

func (c *consumer) delete(ctx context.Context, msg sqstypes.Message, fields map[string]any) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	var err error
	if receipt == "" {
		err = errors.New("missing receipt handle")
	} else {
		_, err = c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(c.queueURL),
			ReceiptHandle: aws.String(receipt),
		})
	}
	if err != nil {
		failed := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			failed[k] = v
		}
		failed["error"] = err.Error()
		telemetry.Error("worker.screening.delete_failed", failed)
		return false
	}
	return true
}

func messageFields(msg sqstypes.Message, decoded queue.Message) map[string]any {
	fields := map[string]any{
		"application_id": decoded.ApplicationID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(decoded.RequestID) != "" {
		fields["request_id"] = decoded.RequestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func acquire(ctx context.Context, sem chan struct{}) bool {
	select {
	case <-ctx.Done():
		return false
	case sem <- struct{}{}:
		return true
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

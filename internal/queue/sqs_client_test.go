package queue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSClientSend(t *testing.T) {
	fake := &fakeSQS{}
	client := &SQSClient{client: fake, queueURL: "https://sqs.local/000/screening"}

	if err := client.Send(context.Background(), Message{ApplicationID: "app-1", JobID: "job-1", RequestID: "req-1", Version: MessageVersion}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if aws.ToString(fake.input.QueueUrl) != "https://sqs.local/000/screening" {
		t.Fatalf("unexpected queue url %q", aws.ToString(fake.input.QueueUrl))
	}
	if !strings.Contains(aws.ToString(fake.input.MessageBody), `"applicationId":"app-1"`) {
		t.Fatalf("unexpected body %q", aws.ToString(fake.input.MessageBody))
	}
	if fake.input.MessageGroupId != nil {
		t.Fatalf("standard queue must not set a message group")
	}
	if got := aws.ToString(fake.input.MessageAttributes["RequestId"].StringValue); got != "req-1" {
		t.Fatalf("expected RequestId attribute, got %q", got)
	}
	if got := aws.ToString(fake.input.MessageAttributes["Version"].StringValue); got != "1" {
		t.Fatalf("expected Version attribute 1, got %q", got)
	}
}

func TestSQSClientFIFOAndErrors(t *testing.T) {
	fake := &fakeSQS{}
	client := &SQSClient{client: fake, queueURL: "https://sqs.local/000/screening.fifo"}
	if err := client.Send(context.Background(), Message{ApplicationID: "app-1"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if aws.ToString(fake.input.MessageGroupId) != "app-1" {
		t.Fatalf("expected group id app-1, got %q", aws.ToString(fake.input.MessageGroupId))
	}
	if _, ok := fake.input.MessageAttributes["RequestId"]; ok {
		t.Fatalf("expected no RequestId attribute without a request id")
	}

	fake.err = errors.New("throttled")
	if err := client.Send(context.Background(), Message{ApplicationID: "app-2"}); err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
	if _, err := NewSQSClient(context.Background(), "", " "); err == nil {
		t.Fatalf("expected error without queue url")
	}
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func TestEncodeMessageFillsDefaults(t *testing.T) {
	msg := Message{
		GenerationID: "gen-123",
		RequestID:    "request-456",
		Source:       "from_text",
		Path:         "data/output/cv.docx",
		EnqueuedAt:   "2026-01-30T22:00:00Z",
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}

	var got Message
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("decode message: %v", err)
	}

	want := msg
	want.Type = EventCVGenerated
	want.Version = 1
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

type fakeSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	return &sqs.SendMessageOutput{}, f.err
}

func TestSQSClientSend(t *testing.T) {
	fake := &fakeSQS{}
	client := &SQSClient{client: fake, queueURL: "https://sqs.example/queue"}

	if err := client.Send(context.Background(), Message{GenerationID: "gen-1"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if aws.ToString(fake.input.QueueUrl) != "https://sqs.example/queue" {
		t.Fatalf("unexpected queue url %v", aws.ToString(fake.input.QueueUrl))
	}
	if !strings.Contains(aws.ToString(fake.input.MessageBody), `"generationId":"gen-1"`) {
		t.Fatalf("unexpected body %s", aws.ToString(fake.input.MessageBody))
	}
	if attr := fake.input.MessageAttributes["type"]; aws.ToString(attr.StringValue) != EventCVGenerated {
		t.Fatalf("unexpected type attribute %+v", attr)
	}

	fake.err = errors.New("throttled")
	if err := client.Send(context.Background(), Message{}); err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("expected send error, got %v", err)
	}
}

func TestNewSQSClientRequiresQueue(t *testing.T) {
	if _, err := NewSQSClient(context.Background(), "eu-west-3", " "); err == nil {
		t.Fatalf("expected error for missing queue url")
	}
}

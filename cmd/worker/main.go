package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"document-ingest/internal/bootstrap"
	"document-ingest/internal/shared/metrics"
	"document-ingest/internal/shared/telemetry"
	"document-ingest/internal/workerproc"
)

const (
	defaultVisibilitySeconds  = 900
	defaultShutdownTimeoutSec = 30
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := bootstrap.MustBuild(ctx)
	defer app.Close()
	defer telemetry.Sync()

	queueURL := strings.TrimSpace(app.Config.SQSQueueURL)
	if queueURL == "" {
		telemetry.Error("worker.config_invalid", map[string]any{"error": "SQS_QUEUE_URL is required"})
		return
	}

	visibilitySeconds := envInt("WORKER_SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	shutdownTimeout := time.Duration(envInt("WORKER_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	var loadOpts []func(*awsconfig.LoadOptions) error
	if app.Config.AWSRegion != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(app.Config.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		telemetry.Error("worker.aws_config_failed", map[string]any{"error": err.Error()})
		return
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	telemetry.Info("worker.started", map[string]any{
		"queue_url":          queueURL,
		"visibility_seconds": visibilitySeconds,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		pollLoop(ctx, app.Dispatcher, sqsClient, queueURL, int32(visibilitySeconds))
	}()

	<-ctx.Done()
	telemetry.Info("worker.shutdown_requested", map[string]any{"timeout": shutdownTimeout.String()})
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", map[string]any{"timeout": shutdownTimeout.String()})
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// pollLoop receives and handles one message at a time until ctx is done.
// A message already being processed finishes even after cancellation.
func pollLoop(ctx context.Context, d workerproc.Dispatcher, client sqsAPI, queueURL string, visibility int32) {
	for {
		if ctx.Err() != nil {
			return
		}

		resp, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 1,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   visibility,
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{
				sqstypes.MessageSystemAttributeNameApproximateReceiveCount,
			},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err.Error()})
			continue
		}

		for _, msg := range resp.Messages {
			handleMessage(context.WithoutCancel(ctx), d, client, queueURL, msg)
		}
	}
}

func handleMessage(ctx context.Context, d workerproc.Dispatcher, client sqsAPI, queueURL string, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	event, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		fields := baseFields(msg)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}

		var (
			emptyErr  workerproc.ErrEmptyBody
			testErr   workerproc.ErrTestEvent
			decodeErr workerproc.ErrDecode
		)
		switch {
		case errors.As(err, &emptyErr):
			telemetry.Error("worker.message.empty_body", fields)
		case errors.As(err, &testErr):
			telemetry.Info("worker.message.test_event", fields)
		case errors.As(err, &decodeErr):
			fields["error"] = decodeErr.Err.Error()
			telemetry.Error("worker.message.decode_failed", fields)
		default:
			fields["error"] = err.Error()
			telemetry.Error("worker.message.decode_failed", fields)
		}
		if deleteMessage(ctx, client, queueURL, msg) {
			metrics.IncQueueMessagesDiscarded()
		}
		return
	}

	fields := baseFields(msg)
	fields["records"] = len(event.Records)
	telemetry.Info("worker.message.received", fields)

	if _, err := workerproc.HandleEvent(ctx, d, event); err != nil {
		fields := baseFields(msg)
		fields["error"] = err.Error()
		var procErr workerproc.ErrProcess
		if errors.As(err, &procErr) {
			fields["status"] = procErr.StatusCode
		}
		telemetry.Error("worker.message.failed", fields)
		return
	}

	if deleteMessage(ctx, client, queueURL, msg) {
		telemetry.Info("worker.message.completed", baseFields(msg))
		metrics.IncQueueMessagesCompleted()
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.message.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg)
		fields["error"] = err.Error()
		telemetry.Error("worker.message.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message) map[string]any {
	return map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

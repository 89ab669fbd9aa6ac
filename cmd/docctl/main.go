package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"document-ingest/internal/bootstrap"
	"document-ingest/internal/documents"
	"document-ingest/internal/queue"
	"document-ingest/internal/shared/config"
	"document-ingest/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Configure(cfg.Env)
	defer telemetry.Sync()

	if err := newApp(cfg, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		telemetry.Sync()
		os.Exit(1)
	}
}

func newApp(cfg config.Config, out io.Writer) *cli.App {
	bucketFlag := &cli.StringFlag{
		Name:    "bucket",
		Aliases: []string{"b"},
		Usage:   "Bucket holding the object",
		Value:   cfg.S3Bucket,
	}
	keyFlag := &cli.StringFlag{
		Name:     "key",
		Aliases:  []string{"k"},
		Usage:    "Object key (unencoded)",
		Required: true,
	}

	return &cli.App{
		Name:   "docctl",
		Usage:  "Operate the document ingestion pipeline",
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:  "process",
				Usage: "Run one object through the pipeline as if it had just been uploaded",
				Flags: []cli.Flag{keyFlag, bucketFlag},
				Action: func(c *cli.Context) error {
					return processCommand(c, cfg)
				},
			},
			{
				Name:  "get",
				Usage: "Print a stored document record",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Document ID",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					return getCommand(c, cfg)
				},
			},
			{
				Name:  "enqueue",
				Usage: "Send an upload notification for an object to the worker queue",
				Flags: []cli.Flag{keyFlag, bucketFlag},
				Action: func(c *cli.Context) error {
					return enqueueCommand(c, cfg)
				},
			},
		},
	}
}

func processCommand(c *cli.Context, cfg config.Config) error {
	bucket, key, err := objectArgs(c)
	if err != nil {
		return err
	}

	ctx := c.Context
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	payload, err := queue.EncodeEvent(queue.NewNotification(bucket, key, time.Now().UTC()))
	if err != nil {
		return err
	}
	resp := app.Dispatcher.HandleRaw(ctx, payload)

	fmt.Fprintf(c.App.Writer, "status: %d\n", resp.StatusCode)
	if err := writeIndented(c.App.Writer, []byte(resp.Body)); err != nil {
		return err
	}
	if resp.StatusCode != 200 {
		return cli.Exit("batch failed", 2)
	}
	return nil
}

func getCommand(c *cli.Context, cfg config.Config) error {
	ctx := c.Context
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return printRecord(ctx, c.App.Writer, app.Records, c.String("id"))
}

func printRecord(ctx context.Context, w io.Writer, repo documents.Repo, id string) error {
	rec, err := repo.Get(ctx, id)
	if errors.Is(err, documents.ErrNotFound) {
		return cli.Exit(fmt.Sprintf("document %s not found", id), 3)
	}
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

func enqueueCommand(c *cli.Context, cfg config.Config) error {
	bucket, key, err := objectArgs(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.SQSQueueURL) == "" {
		return errors.New("SQS_QUEUE_URL is required")
	}

	client, err := queue.NewSQSClient(c.Context, cfg.AWSRegion, cfg.SQSQueueURL)
	if err != nil {
		return err
	}
	id, err := client.Send(c.Context, bucket, key)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "enqueued %s/%s as message %s\n", bucket, key, id)
	return nil
}

func objectArgs(c *cli.Context) (string, string, error) {
	bucket := strings.TrimSpace(c.String("bucket"))
	key := c.String("key")
	if bucket == "" {
		return "", "", errors.New("--bucket is required when S3_BUCKET_NAME is unset")
	}
	if strings.TrimSpace(key) == "" {
		return "", "", errors.New("--key must not be empty")
	}
	return bucket, key, nil
}

func writeIndented(w io.Writer, body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		_, err = fmt.Fprintln(w, string(body))
		return err
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

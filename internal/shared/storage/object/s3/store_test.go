package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	head    *s3.HeadObjectOutput
	headErr error
	body    string
	getErr  error

	gotBucket string
	gotKey    string
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	_ = ctx
	_ = optFns
	f.gotBucket = aws.ToString(params.Bucket)
	f.gotKey = aws.ToString(params.Key)
	return f.head, f.headErr
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	_ = ctx
	_ = optFns
	f.gotBucket = aws.ToString(params.Bucket)
	f.gotKey = aws.ToString(params.Key)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestHeadMapsAttributes(t *testing.T) {
	modified := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeS3{head: &s3.HeadObjectOutput{
		ContentType:   aws.String("application/pdf"),
		ContentLength: aws.Int64(2048),
		LastModified:  &modified,
		ETag:          aws.String(`"abc123"`),
		Metadata:      map[string]string{"owner": "finance"},
	}}
	store := NewWithClient(client)

	info, err := store.Head(context.Background(), "uploads", "reports/q1.pdf")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if client.gotBucket != "uploads" || client.gotKey != "reports/q1.pdf" {
		t.Fatalf("unexpected request bucket=%s key=%s", client.gotBucket, client.gotKey)
	}
	if info.ContentType != "application/pdf" || info.ContentLength != 2048 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if !info.LastModified.Equal(modified) {
		t.Fatalf("unexpected last modified: %v", info.LastModified)
	}
	if info.ETag != `"abc123"` {
		t.Fatalf("etag should be passed through untouched, got %q", info.ETag)
	}
	if info.Metadata["owner"] != "finance" {
		t.Fatalf("unexpected metadata: %v", info.Metadata)
	}
}

func TestHeadMissingAttributesStayZero(t *testing.T) {
	store := NewWithClient(&fakeS3{head: &s3.HeadObjectOutput{}})
	info, err := store.Head(context.Background(), "uploads", "x")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if info.ContentType != "" || info.ContentLength != 0 || !info.LastModified.IsZero() {
		t.Fatalf("expected zero info, got %+v", info)
	}
}

func TestHeadWrapsError(t *testing.T) {
	store := NewWithClient(&fakeS3{headErr: errors.New("forbidden")})
	_, err := store.Head(context.Background(), "uploads", "x.txt")
	if err == nil || !strings.Contains(err.Error(), "bucket=uploads key=x.txt") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestOpenReturnsBody(t *testing.T) {
	store := NewWithClient(&fakeS3{body: "hello"})
	rc, err := store.Open(context.Background(), "uploads", "notes.txt")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "hello" {
		t.Fatalf("unexpected body %q", data)
	}
}

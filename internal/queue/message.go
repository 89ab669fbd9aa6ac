package queue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

const (
	eventSource = "aws:s3"
	eventName   = "ObjectCreated:Put"
	testEvent   = "s3:TestEvent"
)

// ErrTestEvent marks the test message S3 sends when a notification is configured.
var ErrTestEvent = errors.New("s3 test event")

// NewNotification builds a single-record upload event for bucket/key. The key
// is form-encoded the way S3 encodes it in notifications.
func NewNotification(bucket, key string, at time.Time) events.S3Event {
	return events.S3Event{Records: []events.S3EventRecord{{
		EventVersion: "2.1",
		EventSource:  eventSource,
		EventTime:    at.UTC(),
		EventName:    eventName,
		S3: events.S3Entity{
			SchemaVersion: "1.0",
			Bucket:        events.S3Bucket{Name: bucket, Arn: "arn:aws:s3:::" + bucket},
			Object:        events.S3Object{Key: url.QueryEscape(key), URLDecodedKey: key},
		},
	}}}
}

// EncodeEvent returns the JSON representation of an event.
func EncodeEvent(event events.S3Event) ([]byte, error) {
	return json.Marshal(event)
}

// DecodeEvent parses an S3 event notification. A payload without a Records
// array is rejected; the configuration test message returns ErrTestEvent.
// Object keys with malformed escapes are decoded leniently, record by record.
func DecodeEvent(payload []byte) (events.S3Event, error) {
	var envelope struct {
		Records json.RawMessage `json:"Records"`
		Event   string          `json:"Event"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return events.S3Event{}, fmt.Errorf("decode event batch: %w", err)
	}
	if envelope.Event == testEvent {
		return events.S3Event{}, ErrTestEvent
	}
	if len(envelope.Records) == 0 || bytes.Equal(envelope.Records, []byte("null")) {
		return events.S3Event{}, errors.New("event batch has no Records")
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(envelope.Records, &raw); err != nil {
		return events.S3Event{}, fmt.Errorf("decode event batch: %w", err)
	}
	event := events.S3Event{Records: make([]events.S3EventRecord, 0, len(raw))}
	for i, r := range raw {
		rec, err := decodeRecord(r)
		if err != nil {
			return events.S3Event{}, fmt.Errorf("record %d: %w", i, err)
		}
		event.Records = append(event.Records, rec)
	}
	return event, nil
}

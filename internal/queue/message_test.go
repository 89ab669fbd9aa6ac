package queue

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNotificationRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	payload, err := EncodeEvent(NewNotification("uploads", "reports/Q1 summary.pdf", at))
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	if !strings.Contains(string(payload), `"key":"reports%2FQ1+summary.pdf"`) {
		t.Fatalf("key should be form-encoded on the wire: %s", payload)
	}

	got, err := DecodeEvent(payload)
	if err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if len(got.Records) != 1 {
		t.Fatalf("expected one record, got %d", len(got.Records))
	}
	rec := got.Records[0]
	if rec.EventSource != "aws:s3" || rec.S3.Bucket.Name != "uploads" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.S3.Object.URLDecodedKey != "reports/Q1 summary.pdf" {
		t.Fatalf("unexpected decoded key %q", rec.S3.Object.URLDecodedKey)
	}
	if !rec.EventTime.Equal(at) {
		t.Fatalf("unexpected event time %s", rec.EventTime)
	}
}

func TestDecodeEventRejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		testEvt bool
	}{
		{name: "invalid json", payload: "{bad-json"},
		{name: "no records", payload: `{"foo":1}`},
		{name: "null records", payload: `{"Records":null}`},
		{name: "test event", payload: `{"Service":"Amazon S3","Event":"s3:TestEvent","Bucket":"uploads"}`, testEvt: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(tt.payload))
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrTestEvent) != tt.testEvt {
				t.Fatalf("ErrTestEvent match = %v, want %v (%v)", !tt.testEvt, tt.testEvt, err)
			}
		})
	}
}

func TestUnescapeKey(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "plain.txt", want: "plain.txt"},
		{raw: "Q1+summary%281%29.pdf", want: "Q1 summary(1).pdf"},
		{raw: "100%.txt", want: "100%.txt"},
		{raw: "50%+off%21.txt", want: "50% off!.txt"},
		{raw: "trailing%2", want: "trailing%2"},
		{raw: "caf%C3%A9.txt", want: "café.txt"},
		{raw: "bad%FFbyte", want: "bad�byte"},
	}
	for _, tt := range tests {
		if got := UnescapeKey(tt.raw); got != tt.want {
			t.Fatalf("UnescapeKey(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestDecodeEventMalformedEscapeKeepsRecord(t *testing.T) {
	payload := `{"Records":[` +
		`{"eventSource":"aws:s3","eventName":"ObjectCreated:Put","s3":{"bucket":{"name":"uploads"},"object":{"key":"100%.txt","size":12}}},` +
		`{"eventSource":"aws:s3","s3":{"bucket":{"name":"uploads"},"object":{"key":"ok+file.txt"}}}]}`

	got, err := DecodeEvent([]byte(payload))
	if err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if len(got.Records) != 2 {
		t.Fatalf("expected two records, got %d", len(got.Records))
	}
	first := got.Records[0]
	if first.EventSource != "aws:s3" || first.EventName != "ObjectCreated:Put" || first.S3.Bucket.Name != "uploads" {
		t.Fatalf("record fields lost: %+v", first)
	}
	obj := first.S3.Object
	if obj.Key != "100%.txt" || obj.URLDecodedKey != "100%.txt" || obj.Size != 12 {
		t.Fatalf("unexpected object %+v", obj)
	}
	if got.Records[1].S3.Object.URLDecodedKey != "ok file.txt" {
		t.Fatalf("unexpected decoded key %q", got.Records[1].S3.Object.URLDecodedKey)
	}
}

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"document-ingest/internal/inference"
)

func TestNewClientRequiresModelAndKey(t *testing.T) {
	if _, err := NewClient("key", "", 0); err == nil {
		t.Fatal("expected model error")
	}
	if _, err := NewClient("", "gpt-4o-mini", 0); err == nil {
		t.Fatal("expected api key error")
	}
}

func TestNewClientTimeoutComesFromCaller(t *testing.T) {
	unbounded, err := NewClient("key", "gpt-4o-mini", 0)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if unbounded.httpClient.Timeout != 0 {
		t.Fatalf("expected no client timeout, got %s", unbounded.httpClient.Timeout)
	}

	bounded, err := NewClient("key", "gpt-4o-mini", 45*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if bounded.httpClient.Timeout != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %s", bounded.httpClient.Timeout)
	}
}

func TestInvokeSendsImageAsDataURL(t *testing.T) {
	var captured chatRequest
	var rawContent []contentPart
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var generic struct {
			Messages []struct {
				Content []contentPart `json:"content"`
			} `json:"messages"`
		}
		_ = json.Unmarshal(body, &captured)
		_ = json.Unmarshal(body, &generic)
		if len(generic.Messages) > 0 {
			rawContent = generic.Messages[0].Content
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"scanned text"}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient("secret", "gpt-4o-mini", 0)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.url = srv.URL

	resp, err := client.Invoke(context.Background(), inference.Request{
		Prompt:      "extract",
		Attachment:  &inference.Attachment{MediaType: "image/png", Data: "iVBORw0="},
		MaxTokens:   8000,
		Temperature: 0.1,
		TopP:        0.9,
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if resp.Text != "scanned text" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if captured.Model != "gpt-4o-mini" || captured.MaxTokens != 8000 || captured.TopP != 0.9 {
		t.Fatalf("unexpected request: %+v", captured)
	}
	if len(rawContent) != 2 || rawContent[1].ImageURL == nil || rawContent[1].ImageURL.URL != "data:image/png;base64,iVBORw0=" {
		t.Fatalf("unexpected content parts: %+v", rawContent)
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "no choices", status: 200, body: `{"choices":[]}`, want: inference.ErrEmptyResponse},
		{name: "null content", status: 200, body: `{"choices":[{"message":{"content":null}}]}`, want: inference.ErrMalformedResponse},
		{name: "garbage", status: 200, body: `nope`, want: inference.ErrMalformedResponse},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResponse(tt.status, []byte(tt.body))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	_, err := parseResponse(500, []byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	if err == nil || errors.Is(err, inference.ErrEmptyResponse) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

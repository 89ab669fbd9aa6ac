package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"document-ingest/internal/inference"
)

type fakeAPI struct {
	body  string
	err   error
	input *bedrockruntime.InvokeModelInput
}

func (f *fakeAPI) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	_ = ctx
	_ = optFns
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestInvokeVisionRequestShape(t *testing.T) {
	api := &fakeAPI{body: `{"content":[{"type":"text","text":"  extracted  "}]}`}
	client := NewWithAPI(api, "model-1")

	resp, err := client.Invoke(context.Background(), inference.Request{
		Prompt:      "extract",
		Attachment:  &inference.Attachment{MediaType: "application/pdf", Data: "JVBERi0="},
		MaxTokens:   8000,
		Temperature: 0.1,
		TopP:        0.9,
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if resp.Text != "  extracted  " {
		t.Fatalf("expected untrimmed provider text, got %q", resp.Text)
	}
	if aws.ToString(api.input.ModelId) != "model-1" || aws.ToString(api.input.ContentType) != "application/json" {
		t.Fatalf("unexpected input: model=%s content-type=%s", aws.ToString(api.input.ModelId), aws.ToString(api.input.ContentType))
	}

	var body map[string]any
	if err := json.Unmarshal(api.input.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["anthropic_version"] != "bedrock-2023-05-31" || body["max_tokens"] != float64(8000) {
		t.Fatalf("unexpected body header fields: %v", body)
	}
	if body["temperature"] != 0.1 || body["top_p"] != 0.9 {
		t.Fatalf("unexpected sampling fields: %v", body)
	}
	messages := body["messages"].([]any)
	content := messages[0].(map[string]any)["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("expected text and image blocks, got %d", len(content))
	}
	image := content[1].(map[string]any)
	source := image["source"].(map[string]any)
	if image["type"] != "image" || source["type"] != "base64" || source["media_type"] != "application/pdf" || source["data"] != "JVBERi0=" {
		t.Fatalf("unexpected image block: %v", image)
	}
}

func TestInvokeTextOnlyUsesStringContent(t *testing.T) {
	api := &fakeAPI{body: `{"content":[{"type":"text","text":"summary"}]}`}
	client := NewWithAPI(api, "model-1")
	if _, err := client.Invoke(context.Background(), inference.Request{Prompt: "summarize", MaxTokens: 1000, Temperature: 0.3, TopP: 0.9}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	var body struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(api.input.Body, &body); err != nil {
		t.Fatalf("expected string content: %v", err)
	}
	if body.Messages[0].Role != "user" || body.Messages[0].Content != "summarize" {
		t.Fatalf("unexpected message: %+v", body.Messages[0])
	}
}

func TestParseResponseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{name: "no content key", body: `{}`, want: inference.ErrEmptyResponse},
		{name: "empty content", body: `{"content":[]}`, want: inference.ErrEmptyResponse},
		{name: "not json", body: `<html>`, want: inference.ErrMalformedResponse},
		{name: "block without text", body: `{"content":[{"type":"tool_use"}]}`, want: inference.ErrMalformedResponse},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResponse([]byte(tt.body))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestInvokeWrapsServiceError(t *testing.T) {
	client := NewWithAPI(&fakeAPI{err: errors.New("ThrottlingException")}, "model-1")
	_, err := client.Invoke(context.Background(), inference.Request{Prompt: "x", MaxTokens: 1})
	if err == nil || errors.Is(err, inference.ErrEmptyResponse) {
		t.Fatalf("expected service error, got %v", err)
	}
}

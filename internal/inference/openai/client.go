package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"document-ingest/internal/inference"
)

const (
	apiURL = "https://api.openai.com/v1/chat/completions"
)

// Client implements inference.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client. A zero timeout leaves calls bounded
// only by the caller's context.
func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("BEDROCK_MODEL_ID is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		url:    apiURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Invoke sends a single chat completion.
func (c *Client) Invoke(ctx context.Context, req inference.Request) (inference.Response, error) {
	if err := req.Validate(); err != nil {
		return inference.Response{}, err
	}
	model := req.ModelID
	if model == "" {
		model = c.model
	}

	msg := chatMessage{Role: "user", Content: req.Prompt}
	if req.Attachment != nil {
		msg.Content = []contentPart{
			{Type: "text", Text: req.Prompt},
			{Type: "image_url", ImageURL: &imageURL{
				URL: "data:" + req.Attachment.MediaType + ";base64," + req.Attachment.Data,
			}},
		}
	}
	payload, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    []chatMessage{msg},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	})
	if err != nil {
		return inference.Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return inference.Response{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return inference.Response{}, fmt.Errorf("openai request timeout: %w", err)
		}
		return inference.Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return inference.Response{}, err
	}
	return parseResponse(resp.StatusCode, body)
}

func parseResponse(status int, body []byte) (inference.Response, error) {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if status >= 400 {
			return inference.Response{}, fmt.Errorf("openai http status %d: %s", status, strings.TrimSpace(string(body)))
		}
		return inference.Response{}, fmt.Errorf("%w: openai response parse: %v", inference.ErrMalformedResponse, err)
	}
	if parsed.Error != nil {
		return inference.Response{}, fmt.Errorf("openai http status %d: %s (%s)", status, parsed.Error.Message, parsed.Error.Type)
	}
	if status >= 400 {
		return inference.Response{}, fmt.Errorf("openai http status %d: %s", status, strings.TrimSpace(string(body)))
	}
	if len(parsed.Choices) == 0 {
		return inference.Response{}, inference.ErrEmptyResponse
	}
	content := parsed.Choices[0].Message.Content
	if content == nil {
		return inference.Response{}, fmt.Errorf("%w: openai choice has no content", inference.ErrMalformedResponse)
	}
	return inference.Response{Text: *content}, nil
}

var _ inference.Client = (*Client)(nil)

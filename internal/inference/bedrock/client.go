package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"document-ingest/internal/inference"
)

const anthropicVersion = "bedrock-2023-05-31"

// API is the subset of the Bedrock Runtime client used by Client.
type API interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client implements inference.Client with Anthropic Messages bodies sent
// through Bedrock Runtime InvokeModel.
type Client struct {
	api     API
	modelID string
}

// New loads the default AWS config and builds a Bedrock Runtime client.
func New(ctx context.Context, region, modelID string) (*Client, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, fmt.Errorf("BEDROCK_MODEL_ID is required for bedrock")
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithAPI(bedrockruntime.NewFromConfig(cfg), modelID), nil
}

// NewWithAPI wraps an existing Bedrock Runtime client.
func NewWithAPI(api API, modelID string) *Client {
	return &Client{api: api, modelID: modelID}
}

type messagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []message `json:"messages"`
	Temperature      float64   `json:"temperature"`
	TopP             float64   `json:"top_p"`
}

// message.Content is either a plain string or a slice of contentBlock.
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	Content []responseBlock `json:"content"`
}

type responseBlock struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
}

// Invoke sends one request; there is no retry.
func (c *Client) Invoke(ctx context.Context, req inference.Request) (inference.Response, error) {
	if err := req.Validate(); err != nil {
		return inference.Response{}, err
	}
	modelID := req.ModelID
	if modelID == "" {
		modelID = c.modelID
	}

	payload, err := json.Marshal(buildRequest(req))
	if err != nil {
		return inference.Response{}, fmt.Errorf("encode bedrock request: %w", err)
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        payload,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return inference.Response{}, fmt.Errorf("bedrock invoke model=%s: %w", modelID, err)
	}
	return parseResponse(out.Body)
}

func buildRequest(req inference.Request) messagesRequest {
	msg := message{Role: "user", Content: req.Prompt}
	if req.Attachment != nil {
		msg.Content = []contentBlock{
			{Type: "text", Text: req.Prompt},
			{Type: "image", Source: &imageSource{
				Type:      "base64",
				MediaType: req.Attachment.MediaType,
				Data:      req.Attachment.Data,
			}},
		}
	}
	return messagesRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        req.MaxTokens,
		Messages:         []message{msg},
		Temperature:      req.Temperature,
		TopP:             req.TopP,
	}
}

func parseResponse(body []byte) (inference.Response, error) {
	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return inference.Response{}, fmt.Errorf("%w: %v", inference.ErrMalformedResponse, err)
	}
	if len(parsed.Content) == 0 {
		return inference.Response{}, inference.ErrEmptyResponse
	}
	if parsed.Content[0].Text == nil {
		return inference.Response{}, fmt.Errorf("%w: first content block has no text", inference.ErrMalformedResponse)
	}
	return inference.Response{Text: *parsed.Content[0].Text}, nil
}

var _ inference.Client = (*Client)(nil)

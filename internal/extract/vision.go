package extract

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"

	"document-ingest/internal/inference"
	"document-ingest/internal/shared/storage/object"
	"document-ingest/internal/shared/telemetry"
	"document-ingest/internal/shared/util"
)

const (
	visionMaxTokens   = 8000
	visionTemperature = 0.1
	visionTopP        = 0.9

	emptyVisionResponse = "Unable to extract text - empty response from Bedrock"
)

const extractionPrompt = `Please extract all text content from this document.
Provide the extracted text in a clean, readable format.
Maintain the original structure and formatting where possible.
If there are tables, preserve their structure.
If there are multiple sections, clearly separate them.

Return only the extracted text content, without any additional commentary.`

var mediaTypes = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"tiff": "image/tiff",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
}

// MediaType maps a file extension to the media type sent with the document.
func MediaType(ext string) string {
	if mt, ok := mediaTypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// VisionExtractor sends document bytes to a multimodal model.
type VisionExtractor struct {
	Store    object.ObjectStore
	Client   inference.Client
	ModelID  string
	Fallback *DirectDecoder
}

// Extract returns the model's text. An empty model response yields a fixed
// notice; every other failure falls back to decoding the object's bytes.
func (v *VisionExtractor) Extract(ctx context.Context, bucket, key string) string {
	text, err := v.invoke(ctx, bucket, key)
	switch {
	case err == nil:
		telemetry.Info("extract.vision.completed", map[string]any{
			"bucket": bucket,
			"key":    key,
			"chars":  utf8.RuneCountInString(text),
		})
		return text
	case errors.Is(err, inference.ErrEmptyResponse):
		telemetry.Warn("extract.vision.empty", map[string]any{"bucket": bucket, "key": key})
		return emptyVisionResponse
	default:
		telemetry.Error("extract.vision.failed", map[string]any{
			"bucket": bucket,
			"key":    key,
			"error":  err.Error(),
		})
		return v.Fallback.Extract(ctx, bucket, key)
	}
}

func (v *VisionExtractor) invoke(ctx context.Context, bucket, key string) (string, error) {
	data, err := readAll(ctx, v.Store, bucket, key)
	if err != nil {
		return "", err
	}

	resp, err := v.Client.Invoke(ctx, inference.Request{
		ModelID: v.ModelID,
		Prompt:  extractionPrompt,
		Attachment: &inference.Attachment{
			MediaType: MediaType(util.Extension(key)),
			Data:      base64.StdEncoding.EncodeToString(data),
		},
		MaxTokens:   visionMaxTokens,
		Temperature: visionTemperature,
		TopP:        visionTopP,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

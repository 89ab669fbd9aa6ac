// Package local is an offline inference provider for development without
// model access. PDFs are read with a text-layer parser and summaries are the
// leading sentences of the document.
package local

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"document-ingest/internal/inference"
)

const (
	documentMarker   = "Document text:"
	summaryTrailer   = "Summary:"
	summarySentences = 3
)

// Client implements inference.Client without network calls.
type Client struct{}

// New returns an offline client.
func New() Client {
	return Client{}
}

// Invoke answers attachment requests by parsing PDFs and text-only requests
// with an extractive summary.
func (Client) Invoke(ctx context.Context, req inference.Request) (inference.Response, error) {
	if err := ctx.Err(); err != nil {
		return inference.Response{}, err
	}
	if err := req.Validate(); err != nil {
		return inference.Response{}, err
	}
	if req.Attachment != nil {
		return extractAttachment(req.Attachment)
	}
	return inference.Response{Text: leadingSentences(documentBody(req.Prompt), summarySentences)}, nil
}

func extractAttachment(att *inference.Attachment) (inference.Response, error) {
	if att.MediaType != "application/pdf" {
		return inference.Response{}, fmt.Errorf("local provider cannot read %s", att.MediaType)
	}
	data, err := base64.StdEncoding.DecodeString(att.Data)
	if err != nil {
		return inference.Response{}, fmt.Errorf("decode attachment: %w", err)
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return inference.Response{}, fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return inference.Response{}, fmt.Errorf("pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return inference.Response{}, fmt.Errorf("pdf text: %w", err)
	}
	if strings.TrimSpace(buf.String()) == "" {
		return inference.Response{}, inference.ErrEmptyResponse
	}
	return inference.Response{Text: buf.String()}, nil
}

// documentBody returns the text between the document marker and the summary
// trailer, or the whole prompt when the markers are absent.
func documentBody(prompt string) string {
	body := prompt
	if idx := strings.LastIndex(body, documentMarker); idx >= 0 {
		body = body[idx+len(documentMarker):]
	}
	if idx := strings.LastIndex(body, summaryTrailer); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func leadingSentences(text string, n int) string {
	fields := strings.Fields(text)
	var b strings.Builder
	count := 0
	for _, f := range fields {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f)
		if strings.HasSuffix(f, ".") || strings.HasSuffix(f, "!") || strings.HasSuffix(f, "?") {
			count++
			if count == n {
				break
			}
		}
	}
	return b.String()
}

var _ inference.Client = Client{}

package extract

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"document-ingest/internal/shared/storage/object"
	"document-ingest/internal/shared/telemetry"
)

// Decode turns raw bytes into text: UTF-8 when valid, otherwise Latin-1,
// otherwise UTF-8 with undecodable bytes dropped. It never fails.
func Decode(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	if latin, err := charmap.ISO8859_1.NewDecoder().Bytes(data); err == nil {
		return string(latin)
	}
	return strings.ToValidUTF8(string(data), "")
}

// DirectDecoder reads an object and decodes its bytes as text.
type DirectDecoder struct {
	Store object.ObjectStore
}

// ReadText fetches the object and decodes it. Only fetch failures return an error.
func (d *DirectDecoder) ReadText(ctx context.Context, bucket, key string) (string, error) {
	data, err := readAll(ctx, d.Store, bucket, key)
	if err != nil {
		return "", err
	}
	return Decode(data), nil
}

// Extract is ReadText with fetch failures mapped to a placeholder string.
func (d *DirectDecoder) Extract(ctx context.Context, bucket, key string) string {
	text, err := d.ReadText(ctx, bucket, key)
	if err != nil {
		telemetry.Error("extract.direct.failed", map[string]any{
			"bucket": bucket,
			"key":    key,
			"error":  err.Error(),
		})
		return fmt.Sprintf("Unable to extract text from file: %s", err.Error())
	}
	return text
}

func readAll(ctx context.Context, store object.ObjectStore, bucket, key string) ([]byte, error) {
	body, err := store.Open(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read object bucket=%s key=%s: %w", bucket, key, err)
	}
	return data, nil
}

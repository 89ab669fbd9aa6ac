package extract

import (
	"context"
	"errors"
	"fmt"

	"document-ingest/internal/shared/telemetry"
	"document-ingest/internal/shared/util"
)

var visionExtensions = map[string]bool{
	"pdf":  true,
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"tiff": true,
	"gif":  true,
	"bmp":  true,
}

// UsesVision reports whether a key's extension routes to vision extraction.
func UsesVision(key string) bool {
	return visionExtensions[util.Extension(key)]
}

// Extractor routes an object to vision extraction or direct decoding by its
// key's extension. Content-type metadata is not consulted.
type Extractor struct {
	Vision *VisionExtractor
	Direct *DirectDecoder
}

// Extract always returns text; failures become a descriptive placeholder.
func (e *Extractor) Extract(ctx context.Context, bucket, key string) string {
	text, err := e.extract(ctx, bucket, key)
	if err != nil {
		telemetry.Error("extract.failed", map[string]any{
			"bucket": bucket,
			"key":    key,
			"error":  err.Error(),
		})
		return fmt.Sprintf("Error extracting text: %s", err.Error())
	}
	return text
}

func (e *Extractor) extract(ctx context.Context, bucket, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if key == "" {
		return "", errors.New("object key is empty")
	}
	telemetry.Info("extract.start", map[string]any{"bucket": bucket, "key": key})
	if UsesVision(key) {
		return e.Vision.Extract(ctx, bucket, key), nil
	}
	return e.Direct.Extract(ctx, bucket, key), nil
}

package queue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// UnescapeKey decodes a form-encoded object key the way S3 notification
// consumers expect: '+' is a space and %XX is a byte. Malformed escapes are
// kept literally and invalid UTF-8 becomes U+FFFD, so decoding never fails.
func UnescapeKey(raw string) string {
	if !strings.ContainsAny(raw, "+%") {
		return raw
	}
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(raw) && isHex(raw[i+1]) && isHex(raw[i+2]):
			b.WriteByte(unhex(raw[i+1])<<4 | unhex(raw[i+2]))
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return strings.ToValidUTF8(b.String(), "�")
}

// plainObject has the fields of events.S3Object without its strict key
// unescaping.
type plainObject events.S3Object

// decodeRecord unmarshals one notification record. When the object key holds
// a malformed escape, the record is decoded again with UnescapeKey filling
// URLDecodedKey instead of failing the whole batch.
func decodeRecord(raw json.RawMessage) (events.S3EventRecord, error) {
	var rec events.S3EventRecord
	strictErr := json.Unmarshal(raw, &rec)
	if strictErr == nil {
		return rec, nil
	}

	var lenient struct {
		events.S3EventRecord
		S3 struct {
			events.S3Entity
			Object plainObject `json:"object"`
		} `json:"s3"`
	}
	if err := json.Unmarshal(raw, &lenient); err != nil {
		return events.S3EventRecord{}, fmt.Errorf("decode event record: %w", strictErr)
	}
	rec = lenient.S3EventRecord
	rec.S3 = lenient.S3.S3Entity
	rec.S3.Object = events.S3Object(lenient.S3.Object)
	rec.S3.Object.URLDecodedKey = UnescapeKey(rec.S3.Object.Key)
	return rec, nil
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

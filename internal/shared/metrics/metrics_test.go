package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 || snap.sum != 555 {
		t.Fatalf("unexpected snapshot totals: count=%d sum=%v", snap.count, snap.sum)
	}

	var buf bytes.Buffer
	writeHistogram(&buf, "x", "test histogram", snap)
	out := buf.String()
	for _, want := range []string{
		`x_bucket{le="10"} 1`,
		`x_bucket{le="100"} 2`,
		`x_bucket{le="+Inf"} 3`,
		`x_sum 555`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderIncludesCounters(t *testing.T) {
	IncDocumentsReceived()
	IncDocumentsProcessed()
	out := Render()
	for _, name := range []string{"documents_received_total", "documents_processed_total", "documents_failed_total", "inference_duration_ms_count"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in rendered metrics", name)
		}
	}
}

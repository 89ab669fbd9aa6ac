package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	documentsReceivedTotal  atomic.Uint64
	documentsProcessedTotal atomic.Uint64
	documentsFailedTotal    atomic.Uint64
	inferenceCallsTotal     atomic.Uint64
	inferenceFailuresTotal  atomic.Uint64
	queueMessagesCompleted  atomic.Uint64
	queueMessagesDiscarded  atomic.Uint64

	inferenceDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncDocumentsReceived counts an upload notification accepted for processing.
func IncDocumentsReceived() {
	documentsReceivedTotal.Add(1)
}

// IncDocumentsProcessed counts a notification that produced a stored record.
func IncDocumentsProcessed() {
	documentsProcessedTotal.Add(1)
}

// IncDocumentsFailed counts a notification that ended with an error result.
func IncDocumentsFailed() {
	documentsFailedTotal.Add(1)
}

// IncQueueMessagesCompleted counts a queue message processed and deleted.
func IncQueueMessagesCompleted() {
	queueMessagesCompleted.Add(1)
}

// IncQueueMessagesDiscarded counts a queue message deleted without processing.
func IncQueueMessagesDiscarded() {
	queueMessagesDiscarded.Add(1)
}

// ObserveInference records one inference call, its latency and whether it failed.
func ObserveInference(start time.Time, err error) {
	inferenceCallsTotal.Add(1)
	if err != nil {
		inferenceFailuresTotal.Add(1)
	}
	ms := float64(time.Since(start).Microseconds()) / 1000.0
	if ms < 0 {
		ms = 0
	}
	inferenceDuration.Observe(ms)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "documents_received_total", "Upload notifications accepted", documentsReceivedTotal.Load())
	writeCounter(&buf, "documents_processed_total", "Documents stored successfully", documentsProcessedTotal.Load())
	writeCounter(&buf, "documents_failed_total", "Documents that ended in an error result", documentsFailedTotal.Load())
	writeCounter(&buf, "inference_calls_total", "Inference endpoint invocations", inferenceCallsTotal.Load())
	writeCounter(&buf, "inference_failures_total", "Inference endpoint invocations that failed", inferenceFailuresTotal.Load())
	writeCounter(&buf, "queue_messages_completed_total", "Queue messages processed and deleted", queueMessagesCompleted.Load())
	writeCounter(&buf, "queue_messages_discarded_total", "Queue messages deleted without processing", queueMessagesDiscarded.Load())
	writeHistogram(&buf, "inference_duration_ms", "Inference call duration in milliseconds", inferenceDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe places value in the first bucket whose bound covers it.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

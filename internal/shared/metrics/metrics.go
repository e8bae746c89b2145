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
	screeningStartedTotal   atomic.Uint64
	screeningCompletedTotal atomic.Uint64
	screeningFailedTotal    atomic.Uint64
	screeningAbortedTotal   atomic.Uint64
	screeningDroppedTotal   atomic.Uint64

	decisionAcceptedTotal atomic.Uint64
	decisionRejectedTotal atomic.Uint64
	decisionPendingTotal  atomic.Uint64

	notificationSentTotal   atomic.Uint64
	notificationFailedTotal atomic.Uint64

	queueReceivedTotal      atomic.Uint64
	queueDeletedUnrecovered atomic.Uint64

	screeningDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncScreeningStarted increments the started counter.
func IncScreeningStarted() {
	screeningStartedTotal.Add(1)
}

// IncScreeningCompleted increments the completed counter.
func IncScreeningCompleted() {
	screeningCompletedTotal.Add(1)
}

// IncScreeningFailed counts units that rolled back on an unexpected error.
func IncScreeningFailed() {
	screeningFailedTotal.Add(1)
}

// IncScreeningAborted counts units that found their application or job missing.
func IncScreeningAborted() {
	screeningAbortedTotal.Add(1)
}

// IncScreeningDropped counts units the scheduler could not accept.
func IncScreeningDropped() {
	screeningDroppedTotal.Add(1)
}

// IncDecision counts a recorded screening outcome by status.
func IncDecision(status string) {
	switch status {
	case "ACCEPTED":
		decisionAcceptedTotal.Add(1)
	case "REJECTED":
		decisionRejectedTotal.Add(1)
	default:
		decisionPendingTotal.Add(1)
	}
}

// IncNotificationSent increments the delivered notification counter.
func IncNotificationSent() {
	notificationSentTotal.Add(1)
}

// IncNotificationFailed increments the failed notification counter.
func IncNotificationFailed() {
	notificationFailedTotal.Add(1)
}

// IncQueueReceived counts screening messages pulled from the queue.
func IncQueueReceived() {
	queueReceivedTotal.Add(1)
}

// IncQueueDeletedUnrecoverable counts malformed messages removed without processing.
func IncQueueDeletedUnrecoverable() {
	queueDeletedUnrecovered.Add(1)
}

// ObserveScreeningDurationMs records a screening duration in milliseconds.
func ObserveScreeningDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	screeningDuration.Observe(value)
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
	writeCounter(&buf, "screening_started_total", "Total screenings started", screeningStartedTotal.Load())
	writeCounter(&buf, "screening_completed_total", "Total screenings completed", screeningCompletedTotal.Load())
	writeCounter(&buf, "screening_failed_total", "Total screenings rolled back on error", screeningFailedTotal.Load())
	writeCounter(&buf, "screening_aborted_total", "Total screenings aborted on missing records", screeningAbortedTotal.Load())
	writeCounter(&buf, "screening_dropped_total", "Total screenings dropped by the scheduler", screeningDroppedTotal.Load())
	fmt.Fprintf(&buf, "# HELP screening_decisions_total Recorded screening outcomes\n")
	fmt.Fprintf(&buf, "# TYPE screening_decisions_total counter\n")
	fmt.Fprintf(&buf, "screening_decisions_total{status=\"ACCEPTED\"} %d\n", decisionAcceptedTotal.Load())
	fmt.Fprintf(&buf, "screening_decisions_total{status=\"REJECTED\"} %d\n", decisionRejectedTotal.Load())
	fmt.Fprintf(&buf, "screening_decisions_total{status=\"PENDING\"} %d\n", decisionPendingTotal.Load())
	writeCounter(&buf, "notification_sent_total", "Total status emails delivered", notificationSentTotal.Load())
	writeCounter(&buf, "notification_failed_total", "Total status emails that failed", notificationFailedTotal.Load())
	writeCounter(&buf, "screening_queue_received_total", "Total screening messages received", queueReceivedTotal.Load())
	writeCounter(&buf, "screening_queue_deleted_unrecoverable_total", "Total malformed screening messages deleted", queueDeletedUnrecovered.Load())
	writeHistogram(&buf, "screening_duration_ms", "Screening duration in milliseconds", screeningDuration.Snapshot())
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

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
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

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

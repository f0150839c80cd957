package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PumpScan/internal/domain/models"
	domrepo "PumpScan/internal/domain/repository"
	pkgkafka "PumpScan/pkg/kafka"
)

// ReportsHandler consumes published reports and records them to history.
// With the Kafka backend this is the only writer of history, so every replica's scans land once.
type ReportsHandler struct {
	topic    string
	recorder *ReportRecorder
	metrics  domrepo.Metrics
}

func NewReportsHandler(topic string, recorder *ReportRecorder, metrics domrepo.Metrics) *ReportsHandler {
	return &ReportsHandler{topic: topic, recorder: recorder, metrics: metrics}
}

func (h *ReportsHandler) Topic() string { return h.topic }

func (h *ReportsHandler) Handle(ctx context.Context, b []byte) error {
	var r models.ScanReport
	if err := json.Unmarshal(b, &r); err != nil {
		h.metrics.RecordConsumed(h.topic, "invalid", 0)
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode report: %w", err)
	}
	if r.ScanID == "" {
		h.metrics.RecordConsumed(h.topic, "invalid", 0)
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("report without scan id")
	}

	start := time.Now()
	if _, err := h.recorder.Record(ctx, &r); err != nil {
		h.metrics.RecordConsumed(h.topic, "error", time.Since(start).Seconds())
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordConsumed(h.topic, "ok", time.Since(start).Seconds())
	return nil
}

var _ pkgkafka.MessageHandler = (*ReportsHandler)(nil)

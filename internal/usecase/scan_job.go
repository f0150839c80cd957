package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"PumpScan/internal/domain/models"
	"PumpScan/pkg/queue"
)

// ScanJobType is the queue message type of async scans.
const ScanJobType = "scan.run"

// busyRetry is how long a queued scan waits when another scan holds the lock.
const busyRetry = 30 * time.Second

// ScanJob runs queued scan requests.
type ScanJob struct {
	scanner Scanner
}

func NewScanJob(scanner Scanner) *ScanJob {
	return &ScanJob{scanner: scanner}
}

func (j *ScanJob) Name() string { return "scan_job" }

func (j *ScanJob) Type() string { return ScanJobType }

func (j *ScanJob) Handle(ctx context.Context, payload json.RawMessage) error {
	p, err := queue.ParsePayload[models.ScanJobPayload](payload)
	if err != nil {
		return queue.Permanent(fmt.Errorf("scan job payload: %w", err))
	}
	// ErrScanInProgress is returned as is; RetryAfter schedules the next try.
	_, err = j.scanner.Run(ctx, ScanParams{
		ScanID:     p.ScanID,
		Trigger:    TriggerQueue,
		AnalyzeTop: p.AnalyzeTop,
		Sources:    p.Sources,
	})
	return err
}

// RetryAfter retries a scan blocked by a running one at a fixed pace; the
// lock frees when that scan ends, not on an exponential schedule.
func (j *ScanJob) RetryAfter(err error, _ int) (time.Duration, bool) {
	if errors.Is(err, ErrScanInProgress) {
		return busyRetry, true
	}
	return 0, false
}

var (
	_ queue.Job            = (*ScanJob)(nil)
	_ queue.RetryScheduler = (*ScanJob)(nil)
)

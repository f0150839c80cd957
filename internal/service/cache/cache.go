package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PumpScan/internal/domain/models"
	pkgcache "PumpScan/pkg/cache"
)

const (
	latestKey    = "report:latest"
	reportPrefix = "report"
	scanLockKey  = "lock:scan"
)

// ErrNotFound is returned when no report is cached under the key.
var ErrNotFound = errors.New("report not found")

// ReportCache keeps the latest report, recent reports by scan id, and the scan lock.
type ReportCache struct {
	c       pkgcache.Service
	ttl     time.Duration
	lockTTL time.Duration
}

func NewReportCache(c pkgcache.Service, ttl, lockTTL time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if lockTTL <= 0 {
		lockTTL = 25 * time.Minute
	}
	return &ReportCache{c: c, ttl: ttl, lockTTL: lockTTL}
}

func (rc *ReportCache) SaveReport(ctx context.Context, r *models.ScanReport) error {
	if err := rc.c.Set(ctx, pkgcache.GenerateKey(reportPrefix, r.ScanID), r, rc.ttl); err != nil {
		return fmt.Errorf("cache report %s: %w", r.ScanID, err)
	}
	if err := rc.c.Set(ctx, latestKey, r, rc.ttl); err != nil {
		return fmt.Errorf("cache latest report: %w", err)
	}
	return nil
}

func (rc *ReportCache) Latest(ctx context.Context) (*models.ScanReport, error) {
	return rc.get(ctx, latestKey)
}

func (rc *ReportCache) Report(ctx context.Context, scanID string) (*models.ScanReport, error) {
	return rc.get(ctx, pkgcache.GenerateKey(reportPrefix, scanID))
}

func (rc *ReportCache) get(ctx context.Context, key string) (*models.ScanReport, error) {
	var r models.ScanReport
	if err := rc.c.Get(ctx, key, &r); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (rc *ReportCache) AcquireScanLock(ctx context.Context) (bool, error) {
	return rc.c.TryLock(ctx, scanLockKey, rc.lockTTL)
}

func (rc *ReportCache) ReleaseScanLock(ctx context.Context) error {
	return rc.c.Unlock(ctx, scanLockKey)
}

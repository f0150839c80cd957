package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"PumpScan/internal/domain/models"
	domrepo "PumpScan/internal/domain/repository"
	applogger "PumpScan/pkg/logger"
)

// Collector runs source fetchers on a bounded worker pool.
// A fetch that fails or times out becomes an unavailable result; it never fails the scan.
type Collector struct {
	fetchers []domrepo.SourceFetcher
	workers  int
	timeout  time.Duration
	metrics  domrepo.Metrics
	log      *applogger.Logger
}

func NewCollector(
	fetchers []domrepo.SourceFetcher,
	workers int,
	timeout time.Duration,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *Collector {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &Collector{
		fetchers: fetchers,
		workers:  workers,
		timeout:  timeout,
		metrics:  metrics,
		log:      log.With(applogger.Component("collector")),
	}
}

// Sources lists the configured source names.
func (c *Collector) Sources() []string {
	names := make([]string, len(c.fetchers))
	for i, f := range c.fetchers {
		names[i] = f.Name()
	}
	return names
}

// Collect fetches from every source whose name is in only (all when only is empty).
// Results are ordered by source name.
func (c *Collector) Collect(ctx context.Context, only []string) []models.SourceResult {
	selected := c.selected(only)
	if len(selected) == 0 {
		return nil
	}

	jobs := make(chan domrepo.SourceFetcher)
	out := make(chan models.SourceResult, len(selected))

	workers := c.workers
	if workers > len(selected) {
		workers = len(selected)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				out <- c.fetch(ctx, f)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, f := range selected {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() { wg.Wait(); close(out) }()

	results := make([]models.SourceResult, 0, len(selected))
	seen := make(map[string]bool, len(selected))
	for r := range out {
		results = append(results, r)
		seen[r.Source] = true
	}
	// sources never dispatched because ctx ended
	for _, f := range selected {
		if !seen[f.Name()] {
			results = append(results, models.Unavailable(f.Name(), f.Platform(), "scan cancelled", 0))
		}
	}
	// arrival order varies between runs; downstream sums and dedupe follow this order
	sort.SliceStable(results, func(i, j int) bool { return results[i].Source < results[j].Source })
	return results
}

func (c *Collector) fetch(ctx context.Context, f domrepo.SourceFetcher) (res models.SourceResult) {
	start := time.Now()
	fctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			res = models.Unavailable(f.Name(), f.Platform(), fmt.Sprintf("panic: %v", p), time.Since(start))
		}
		c.metrics.RecordSource(res.Source, string(res.Status), res.Duration.Seconds())
		if res.OK() {
			c.log.Debug("source fetched",
				applogger.String("source", res.Source),
				applogger.Int("records", res.Records),
				applogger.Duration("took", res.Duration))
		} else {
			c.log.Warn("source unavailable",
				applogger.String("source", res.Source),
				applogger.String("reason", res.Reason),
				applogger.Duration("took", res.Duration))
		}
	}()

	batch, err := f.Fetch(fctx)
	took := time.Since(start)
	switch {
	case err == nil && batch == nil:
		return models.Unavailable(f.Name(), f.Platform(), "no data", took)
	case err == nil:
		if batch.Source == "" {
			batch.Source = f.Name()
		}
		if batch.Platform == "" {
			batch.Platform = f.Platform()
		}
		return models.Success(batch, took)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(fctx.Err(), context.DeadlineExceeded):
		return models.Unavailable(f.Name(), f.Platform(), fmt.Sprintf("timeout after %s", c.timeout), took)
	default:
		return models.Unavailable(f.Name(), f.Platform(), err.Error(), took)
	}
}

func (c *Collector) selected(only []string) []domrepo.SourceFetcher {
	if len(only) == 0 {
		return c.fetchers
	}
	want := make(map[string]bool, len(only))
	for _, n := range only {
		want[n] = true
	}
	var out []domrepo.SourceFetcher
	for _, f := range c.fetchers {
		if want[f.Name()] {
			out = append(out, f)
		}
	}
	return out
}

// Batches extracts the successful batches.
func Batches(results []models.SourceResult) []models.SourceBatch {
	out := make([]models.SourceBatch, 0, len(results))
	for _, r := range results {
		if r.OK() {
			out = append(out, *r.Batch)
		}
	}
	return out
}

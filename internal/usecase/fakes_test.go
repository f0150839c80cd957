package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"PumpScan/internal/domain/models"
	domrepo "PumpScan/internal/domain/repository"
	"PumpScan/internal/repository"
	icache "PumpScan/internal/service/cache"
	"PumpScan/internal/services/momentum"
	pkgcache "PumpScan/pkg/cache"
	"PumpScan/pkg/metrics"
)

type fakeFetcher struct {
	name, platform string
	batch          *models.SourceBatch
	err            error
	block          bool
	panics         bool
	delay          time.Duration
}

func (f *fakeFetcher) Name() string     { return f.name }
func (f *fakeFetcher) Platform() string { return f.platform }

func (f *fakeFetcher) Fetch(ctx context.Context) (*models.SourceBatch, error) {
	if f.panics {
		panic("parser exploded")
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.batch, f.err
}

func threadFetcher(name, platform string, threads ...models.Thread) *fakeFetcher {
	return &fakeFetcher{name: name, platform: platform, batch: &models.SourceBatch{
		Shape:   models.SourceForumThread,
		Threads: threads,
	}}
}

// squeezeFetchers yield one squeeze_play cluster across two platforms.
func squeezeFetchers() []domrepo.SourceFetcher {
	return []domrepo.SourceFetcher{
		threadFetcher("4chan", "4chan", models.Thread{ID: "t1", Subject: "GME short squeeze", Replies: 150}),
		threadFetcher("bitcointalk", "bitcointalk",
			models.Thread{ID: "b1", Subject: "squeeze incoming", Replies: 100},
			models.Thread{ID: "b2", Subject: "quiet topic", Replies: 3}),
		&fakeFetcher{name: "reddit", platform: "reddit", err: errors.New("status 503")},
	}
}

type fakeAnalyst struct {
	mu          sync.Mutex
	probability map[models.ThemeTag]float64
	clusterErr  error
	platformErr error
	calls       int
}

func (a *fakeAnalyst) AnalyzeCluster(_ context.Context, c models.MomentumCluster) (*models.ClusterAnalysis, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.clusterErr != nil {
		return nil, a.clusterErr
	}
	return &models.ClusterAnalysis{PumpProbability: a.probability[c.Theme], PumpType: "squeeze_play"}, nil
}

func (a *fakeAnalyst) AnalyzePlatforms(context.Context, map[string]float64) (*models.PlatformAnalysis, error) {
	if a.platformErr != nil {
		return nil, a.platformErr
	}
	return &models.PlatformAnalysis{SpreadPattern: "coordinated", Confidence: 60}, nil
}

type fakeSink struct {
	mu      sync.Mutex
	reports []*models.ScanReport
	err     error
}

func (s *fakeSink) PublishReport(_ context.Context, r *models.ScanReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.reports = append(s.reports, r)
	return nil
}

func (s *fakeSink) Close() error { return nil }

type captureListener struct {
	mu      sync.Mutex
	reports []*models.ScanReport
}

func (l *captureListener) Broadcast(r *models.ScanReport) {
	l.mu.Lock()
	l.reports = append(l.reports, r)
	l.mu.Unlock()
}

type scanFixture struct {
	uc       *ScanUseCase
	reports  *icache.ReportCache
	history  domrepo.HistoryStore
	sink     *fakeSink
	listener *captureListener
}

func newScanFixture(t *testing.T, fetchers []domrepo.SourceFetcher, analyst domrepo.Analyst) *scanFixture {
	t.Helper()
	mem := pkgcache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })

	reports := icache.NewReportCache(mem, time.Hour, time.Minute)
	history := repository.NewCacheHistory(mem, 50)
	sink := &fakeSink{}
	listener := &captureListener{}
	m := metrics.Nop{}

	var analysis *AnalysisUseCase
	if analyst != nil {
		analysis = NewAnalysisUseCase(analyst, nil)
	}
	uc := NewScanUseCase(
		NewCollector(fetchers, 2, time.Second, m, nil),
		momentum.NewPipeline(momentum.DefaultRules()),
		analysis,
		reports,
		sink,
		"kafka",
		NewReportRecorder(history, true, m, nil),
		[]domrepo.ReportListener{listener},
		m,
		nil,
	)
	return &scanFixture{uc: uc, reports: reports, history: history, sink: sink, listener: listener}
}

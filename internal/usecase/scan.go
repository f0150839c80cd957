package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"PumpScan/internal/domain/models"
	domrepo "PumpScan/internal/domain/repository"
	"PumpScan/internal/services/momentum"
	applogger "PumpScan/pkg/logger"
)

// ErrScanInProgress is returned when another scan holds the scan lock.
var ErrScanInProgress = errors.New("scan already in progress")

const (
	TriggerAPI     = "api"
	TriggerMonitor = "monitor"
	TriggerOnce    = "once"
	TriggerQueue   = "queue"

	reportClusters   = 10
	reportSamples    = 3
	reportPreviewLen = 100
	sideEffectBudget = 15 * time.Second
)

// ScanParams selects what one scan does.
type ScanParams struct {
	ScanID     string
	Trigger    string
	AnalyzeTop int
	Sources    []string
}

// ScanUseCase runs collect, score, analyze and deliver for one scan.
type ScanUseCase struct {
	collector *Collector
	pipeline  *momentum.Pipeline
	analysis  *AnalysisUseCase
	cache     domrepo.ReportCache
	sink      domrepo.ReportPublisher
	sinkName  string
	recorder  *ReportRecorder
	listeners []domrepo.ReportListener
	metrics   domrepo.Metrics
	log       *applogger.Logger
}

// NewScanUseCase wires a scan. sink, recorder and listeners may be nil.
func NewScanUseCase(
	collector *Collector,
	pipeline *momentum.Pipeline,
	analysis *AnalysisUseCase,
	cache domrepo.ReportCache,
	sink domrepo.ReportPublisher,
	sinkName string,
	recorder *ReportRecorder,
	listeners []domrepo.ReportListener,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *ScanUseCase {
	if log == nil {
		log = applogger.Nop()
	}
	return &ScanUseCase{
		collector: collector,
		pipeline:  pipeline,
		analysis:  analysis,
		cache:     cache,
		sink:      sink,
		sinkName:  sinkName,
		recorder:  recorder,
		listeners: listeners,
		metrics:   metrics,
		log:       log.With(applogger.Component("scan")),
	}
}

// AddListener subscribes l to every finished report.
func (uc *ScanUseCase) AddListener(l domrepo.ReportListener) {
	uc.listeners = append(uc.listeners, l)
}

// Run executes one scan. Only one scan runs at a time across replicas sharing the cache.
func (uc *ScanUseCase) Run(ctx context.Context, p ScanParams) (*models.ScanReport, error) {
	ok, err := uc.cache.AcquireScanLock(ctx)
	if err != nil {
		uc.metrics.RecordError("lock")
		uc.log.Warn("scan lock unavailable, running unlocked", applogger.Error(err))
	} else if !ok {
		return nil, ErrScanInProgress
	} else {
		defer func() {
			if err := uc.cache.ReleaseScanLock(context.WithoutCancel(ctx)); err != nil {
				uc.log.Warn("release scan lock", applogger.Error(err))
			}
		}()
	}

	if p.ScanID == "" {
		p.ScanID = uuid.NewString()
	}
	if p.Trigger == "" {
		p.Trigger = TriggerAPI
	}

	start := time.Now()
	log := uc.log.With(applogger.String("scan_id", p.ScanID), applogger.String("trigger", p.Trigger))
	log.Info("scan started", applogger.Strings("sources", p.Sources), applogger.Int("analyze_top", p.AnalyzeTop))

	results := uc.collector.Collect(ctx, p.Sources)
	res := uc.pipeline.Run(Batches(results))
	ai := uc.analysis.Analyze(ctx, res.Clusters, res.Summary, p.AnalyzeTop)

	report := BuildReport(p, start, time.Since(start), res, results, ai)

	log.Info("scan finished",
		applogger.Int("events", res.Summary.MomentumEvents),
		applogger.Int("clusters", res.Summary.ClustersFound),
		applogger.Int("malformed", res.Stats.Malformed),
		applogger.String("recommendation", string(res.Summary.Recommendation.Level)),
		applogger.Duration("took", report.ScanTime))

	uc.metrics.RecordScan(p.Trigger, report.ScanTime.Seconds(), res.Summary.MomentumEvents, res.Summary.ClustersFound)
	uc.metrics.RecordRisk(string(res.Summary.Recommendation.Level),
		res.Summary.RiskIndicators.HighRiskPatternCount,
		res.Summary.RiskIndicators.VolumeSpikeCount)

	uc.deliver(ctx, log, report)
	return report, nil
}

// deliver runs the side effects of a finished scan. Failures are logged and counted only.
func (uc *ScanUseCase) deliver(ctx context.Context, log *applogger.Logger, report *models.ScanReport) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectBudget)
	defer cancel()

	if err := uc.cache.SaveReport(ctx, report); err != nil {
		uc.metrics.RecordError("cache")
		log.Warn("cache report", applogger.Error(err))
	}

	if uc.sink != nil {
		if err := uc.sink.PublishReport(ctx, report); err != nil {
			uc.metrics.RecordError("publish")
			log.Error("publish report", applogger.String("sink", uc.sinkName), applogger.Error(err))
		} else {
			uc.metrics.RecordDelivery(uc.sinkName)
		}
	}

	if uc.recorder != nil {
		if _, err := uc.recorder.Record(ctx, report); err != nil {
			log.Error("record report", applogger.Error(err))
		}
	}

	for _, l := range uc.listeners {
		l.Broadcast(report)
	}
}

// BuildReport assembles the report of one scan.
func BuildReport(
	p ScanParams,
	start time.Time,
	took time.Duration,
	res momentum.Result,
	sources []models.SourceResult,
	ai *models.AIAnalysis,
) *models.ScanReport {
	n := len(res.Clusters)
	if n > reportClusters {
		n = reportClusters
	}
	digests := make([]models.ClusterDigest, n)
	for i := 0; i < n; i++ {
		digests[i] = res.Clusters[i].Digest(reportSamples, reportPreviewLen)
	}

	return &models.ScanReport{
		ScanID:    p.ScanID,
		Timestamp: start.UTC(),
		ScanTime:  took,
		Trigger:   p.Trigger,
		Summary:   res.Summary,
		Clusters:  digests,
		Sources:   sources,
		AI:        ai,
	}
}

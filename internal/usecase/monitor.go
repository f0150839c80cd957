package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"PumpScan/internal/domain/models"
	"PumpScan/internal/report"
	applogger "PumpScan/pkg/logger"
)

// Scanner runs one scan. Implemented by ScanUseCase.
type Scanner interface {
	Run(ctx context.Context, p ScanParams) (*models.ScanReport, error)
}

// Monitor re-runs the scan on a cron schedule. Rounds are independent.
type Monitor struct {
	scanner    Scanner
	schedule   string
	runOnBoot  bool
	analyzeTop int
	reportDir  string
	log        *applogger.Logger

	cron    *cron.Cron
	rounds  sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewMonitor(scanner Scanner, schedule string, runOnBoot bool, analyzeTop int, reportDir string, log *applogger.Logger) *Monitor {
	if log == nil {
		log = applogger.Nop()
	}
	return &Monitor{
		scanner:    scanner,
		schedule:   schedule,
		runOnBoot:  runOnBoot,
		analyzeTop: analyzeTop,
		reportDir:  reportDir,
		log:        log.With(applogger.Component("monitor")),
	}
}

// Start registers the schedule and returns. Rounds use ctx; cancel it to abort a running round.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("monitor already running")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(m.schedule, func() { m.round(ctx) }); err != nil {
		return fmt.Errorf("monitor schedule %q: %w", m.schedule, err)
	}
	c.Start()
	m.cron = c
	m.running = true

	m.log.Info("monitor started", applogger.String("schedule", m.schedule), applogger.Bool("run_on_boot", m.runOnBoot))

	if m.runOnBoot {
		m.rounds.Add(1)
		go func() {
			defer m.rounds.Done()
			m.round(ctx)
		}()
	}
	return nil
}

// Stop stops scheduling and waits for the running round, bounded by ctx.
// cron's Stop covers scheduled rounds; rounds tracks the boot round.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	cronDone := m.cron.Stop()
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		m.rounds.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.log.Info("monitor stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("monitor stop: %w", ctx.Err())
	}
}

// RunRound executes one round synchronously.
func (m *Monitor) RunRound(ctx context.Context) (*models.ScanReport, error) {
	r, err := m.scanner.Run(ctx, ScanParams{Trigger: TriggerMonitor, AnalyzeTop: m.analyzeTop})
	if err != nil {
		return nil, err
	}
	if m.reportDir != "" {
		path := filepath.Join(m.reportDir, ReportFileName(r.Timestamp))
		if err := report.WriteJSONFile(path, r); err != nil {
			return r, fmt.Errorf("write report: %w", err)
		}
		m.log.Info("report saved", applogger.String("path", path))
	}
	return r, nil
}

func (m *Monitor) round(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	_, err := m.RunRound(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrScanInProgress):
		m.log.Info("round skipped, another scan is running")
	default:
		m.log.Error("monitor round failed", applogger.Error(err))
	}
}

// ReportFileName names the report file of a scan started at ts.
func ReportFileName(ts time.Time) string {
	return fmt.Sprintf("momentum_report_%s.json", ts.UTC().Format("20060102_150405"))
}

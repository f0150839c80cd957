package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PumpScan/internal/domain/models"
	"PumpScan/internal/handler/ws"
	"PumpScan/internal/report"
	"PumpScan/internal/service/ratelimit"
	"PumpScan/internal/usecase"
	"PumpScan/pkg/config"
	xhttp "PumpScan/pkg/http"
	pkgkafka "PumpScan/pkg/kafka"
	applogger "PumpScan/pkg/logger"
	"PumpScan/pkg/queue"
)

const limiterSweepInterval = time.Minute

// Components groups everything the App starts and stops.
// Any field except Config, Log and Scan may be nil.
type Components struct {
	Config      *config.Config
	Log         *applogger.Logger
	Scan        *usecase.ScanUseCase
	Monitor     *usecase.Monitor
	Queue       *queue.RedisQueue
	Consumer    *pkgkafka.Consumer
	Reports     pkgkafka.MessageHandler
	Hub         *ws.Hub
	Limiter     *ratelimit.Limiter
	HTTPHandler xhttp.Handler
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	scan       *usecase.ScanUseCase
	monitor    *usecase.Monitor
	queue      *queue.RedisQueue
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	hub        *ws.Hub
	limiter    *ratelimit.Limiter
	handler    xhttp.Handler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(c Components) *App {
	l := c.Log
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:      c.Config,
		log:      l.With(applogger.Component("app")),
		scan:     c.Scan,
		monitor:  c.Monitor,
		queue:    c.Queue,
		consumer: c.Consumer,
		kh:       c.Reports,
		hub:      c.Hub,
		limiter:  c.Limiter,
		handler:  c.HTTPHandler,
	}
}

// RunOnce performs a single scan, renders it to w and optionally writes the JSON report to out.
func (a *App) RunOnce(ctx context.Context, analyzeTop int, out string, w io.Writer) (*models.ScanReport, error) {
	r, err := a.scan.Run(ctx, usecase.ScanParams{
		Trigger:    usecase.TriggerOnce,
		AnalyzeTop: analyzeTop,
	})
	if err != nil {
		return nil, err
	}
	if err := report.Render(w, r); err != nil {
		return r, err
	}
	if out != "" {
		if err := report.WriteJSONFile(out, r); err != nil {
			return r, err
		}
		a.log.Info("report written", applogger.String("path", out))
	}
	return r, nil
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		a.shutdown()
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	a.shutdown()
	return nil
}

func (a *App) start(ctx context.Context) error {
	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			return err
		}
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.log.Info("history consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.monitor != nil {
		if err := a.monitor.Start(ctx); err != nil {
			return err
		}
		a.log.Info("monitor started", applogger.String("schedule", a.cfg.Monitor.Schedule))
	}

	if a.limiter != nil {
		go a.sweepLimiter(ctx)
	}

	if !a.cfg.Server.Enabled {
		return nil
	}
	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(a.log),
	)
	return a.httpServer.Start()
}

func (a *App) sweepLimiter(ctx context.Context) {
	t := time.NewTicker(limiterSweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.limiter.Sweep(); n > 0 {
				a.log.Debug("rate limiter swept", applogger.Int("removed", n))
			}
		}
	}
}

// shutdown stops services in reverse dependency order. Infrastructure clients
// are closed by the cleanup function returned from dependency injection.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.log.Info("shutting down...")

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.monitor != nil {
		if err := a.monitor.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("monitor stop error", applogger.Error(err))
		}
	}
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.log.Warn("queue stop error", applogger.Error(err))
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}

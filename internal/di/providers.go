package di

import (
	"context"
	"fmt"
	"time"

	"PumpScan/internal/domain/models"
	"PumpScan/internal/domain/repository"
	"PumpScan/internal/handler/api"
	"PumpScan/internal/handler/ws"
	internalrepo "PumpScan/internal/repository"
	icache "PumpScan/internal/service/cache"
	"PumpScan/internal/service/llm"
	"PumpScan/internal/service/ratelimit"
	"PumpScan/internal/service/sources"
	"PumpScan/internal/services/momentum"
	"PumpScan/internal/usecase"
	pkgcache "PumpScan/pkg/cache"
	pkgch "PumpScan/pkg/clickhouse"
	"PumpScan/pkg/config"
	xhttp "PumpScan/pkg/http"
	pkgkafka "PumpScan/pkg/kafka"
	applogger "PumpScan/pkg/logger"
	"PumpScan/pkg/metrics"
	"PumpScan/pkg/queue"
	"PumpScan/pkg/server"
)

const (
	backendKafka      = "kafka"
	backendClickHouse = "clickhouse"
)

// consumesReports reports whether published reports are read back by the consumer,
// which then owns history and alerts.
func consumesReports(cfg *config.Config) bool {
	return cfg.Backend.Type == backendKafka && cfg.Kafka.Consumer.Enabled
}

// Sink is the optional report publisher and the name it is reported under.
type Sink struct {
	Publisher repository.ReportPublisher
	Name      string
}

// ProvideLogger creates the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op one when disabled.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(nil)
}

// ProvideClickHouseClient creates a ClickHouse client.
// It returns nil unless the clickhouse backend is selected.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if cfg.Backend.Type != backendClickHouse {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxIdleConns, cfg.ClickHouse.ConnMaxLifetime),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideKafkaProducer creates a Kafka producer. It is needed by the kafka
// backend and by the log collector; otherwise it returns nil.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if cfg.Backend.Type != backendKafka && !cfg.Kafka.LogCollector.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopics(cfg.Kafka.Producer.AutoCreateTopics),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideRedisCache connects to Redis when enabled, otherwise returns nil.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideCache layers an in-process cache over Redis, or runs in memory only.
func ProvideCache(cfg *config.Config, rc *pkgcache.RedisCache) (pkgcache.Service, func()) {
	if rc != nil {
		lc := pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize))
		return lc, func() { _ = lc.Close() }
	}
	mc := pkgcache.NewMemoryCache(
		pkgcache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
		pkgcache.WithMemoryCleanup(cfg.Cache.MemoryCleanup),
	)
	return mc, func() { _ = mc.Close() }
}

// ProvideReportCache stores reports by scan ID and holds the scan lock.
func ProvideReportCache(cfg *config.Config, c pkgcache.Service) repository.ReportCache {
	return icache.NewReportCache(c, cfg.Cache.ReportTTL, cfg.Cache.LockTTL)
}

// ProvideHistoryStore keeps report history in ClickHouse when that backend is
// selected, otherwise in the cache. The store's schema is created here.
func ProvideHistoryStore(cfg *config.Config, ch *pkgch.Client, c pkgcache.Service, l *applogger.Logger) (repository.HistoryStore, error) {
	var h repository.HistoryStore
	if ch != nil {
		h = internalrepo.NewClickHouseHistory(ch, l)
	} else {
		h = internalrepo.NewCacheHistory(c, cfg.Alerts.Keep)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.Init(ctx); err != nil {
		return nil, fmt.Errorf("history schema: %w", err)
	}
	return h, nil
}

// ProvideSink publishes finished reports to Kafka when that backend is selected.
func ProvideSink(cfg *config.Config, producer *pkgkafka.Producer) Sink {
	if cfg.Backend.Type != backendKafka || producer == nil {
		return Sink{}
	}
	return Sink{
		Publisher: internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic),
		Name:      backendKafka,
	}
}

// ProvideReportRecorder writes history and derives alerts.
func ProvideReportRecorder(cfg *config.Config, history repository.HistoryStore, m repository.Metrics, l *applogger.Logger) *usecase.ReportRecorder {
	return usecase.NewReportRecorder(history, cfg.Alerts.Enabled, m, l)
}

func sourceClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Sources.Timeout),
		xhttp.WithUserAgent(cfg.Sources.UserAgent),
		xhttp.WithRateLimit(cfg.Sources.RatePerSecond, cfg.Sources.RateBurst),
	)
}

// ProvideFetchers builds the enabled sources. Each gets its own client so
// request pacing applies per platform.
func ProvideFetchers(cfg *config.Config, l *applogger.Logger) []repository.SourceFetcher {
	sc := cfg.Sources
	var out []repository.SourceFetcher
	if sc.Reddit.Enabled {
		out = append(out, sources.NewReddit(sources.RedditConfig{
			BaseURL:         sc.Reddit.BaseURL,
			Subreddits:      sc.Reddit.Subreddits,
			MajorSubreddits: sc.Reddit.MajorSubreddits,
			HotLimit:        sc.Reddit.HotLimit,
			MajorHotLimit:   sc.Reddit.MajorHotLimit,
			RisingLimit:     sc.Reddit.RisingLimit,
		}, sourceClient(cfg), l))
	}
	if sc.StockTwits.Enabled {
		out = append(out, sources.NewStockTwits(sources.StockTwitsConfig{
			BaseURL:      sc.StockTwits.BaseURL,
			TopSymbols:   sc.StockTwits.TopSymbols,
			MessageLimit: sc.StockTwits.MessageLimit,
		}, sourceClient(cfg), l))
	}
	if sc.FourChan.Enabled {
		out = append(out, sources.NewFourChan(sources.FourChanConfig{
			BaseURL: sc.FourChan.BaseURL,
			Board:   sc.FourChan.Board,
		}, sourceClient(cfg), l))
	}
	if sc.BitcoinTalk.Enabled {
		out = append(out, sources.NewBitcoinTalk(sources.BitcoinTalkConfig{
			BaseURL: sc.BitcoinTalk.BaseURL,
			Boards:  sc.BitcoinTalk.Boards,
			Pages:   sc.BitcoinTalk.Pages,
		}, sourceClient(cfg), l))
	}
	return out
}

// ProvideCollector runs the fetchers on a bounded pool.
func ProvideCollector(cfg *config.Config, fetchers []repository.SourceFetcher, m repository.Metrics, l *applogger.Logger) *usecase.Collector {
	return usecase.NewCollector(fetchers, cfg.Sources.Workers, cfg.Sources.Timeout, m, l)
}

func keywordRules(tables []config.KeywordTable) []momentum.KeywordRule {
	out := make([]momentum.KeywordRule, 0, len(tables))
	for _, t := range tables {
		out = append(out, momentum.KeywordRule{Tag: models.ThemeTag(t.Tag), Keywords: t.Keywords})
	}
	return out
}

// ProvideRules starts from the built-in rules and applies configured overrides.
func ProvideRules(cfg *config.Config) momentum.Rules {
	d := cfg.Detection
	r := momentum.DefaultRules()
	if len(d.Themes) > 0 {
		r.Themes = keywordRules(d.Themes)
	}
	if len(d.Sectors) > 0 {
		r.Sectors = keywordRules(d.Sectors)
	}
	if d.PostMomentumFloor > 0 {
		r.PostMomentumFloor = d.PostMomentumFloor
	}
	if d.BurstWindow > 0 {
		r.BurstWindow = d.BurstWindow
	}
	if d.BurstMinMessages > 0 {
		r.BurstMinMessages = d.BurstMinMessages
	}
	if d.ThreadMinReplies > 0 {
		r.ThreadMinReplies = d.ThreadMinReplies
	}
	if d.MinClusterSize > 0 {
		r.MinClusterSize = d.MinClusterSize
	}
	if d.CoordinationSpan > 0 {
		r.CoordinationSpan = d.CoordinationSpan
	}
	if d.VolumeSpikeMomentum > 0 {
		r.VolumeSpikeMomentum = d.VolumeSpikeMomentum
	}
	if d.HighRiskPatterns > 0 {
		r.HighRiskPatterns = d.HighRiskPatterns
	}
	if d.ElevatedClusters > 0 {
		r.ElevatedClusters = d.ElevatedClusters
	}
	return r
}

func ProvidePipeline(rules momentum.Rules) *momentum.Pipeline {
	return momentum.NewPipeline(rules)
}

// ProvideAnalyst returns the Claude analyst, or nil when AI analysis is off.
func ProvideAnalyst(cfg *config.Config, l *applogger.Logger) (repository.Analyst, error) {
	if !cfg.LLM.Enabled || cfg.LLM.AnalyzeTop == 0 {
		return nil, nil
	}
	if cfg.LLM.APIKey == "" {
		l.Warn("llm enabled without api key; AI analysis disabled")
		return nil, nil
	}
	c, err := llm.NewClaude(llm.Config{
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	return llm.NewAnalyst(c, cfg.LLM.Timeout, l), nil
}

func ProvideAnalysisUseCase(analyst repository.Analyst, l *applogger.Logger) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(analyst, l)
}

func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideScanUseCase wires one scan. With the kafka backend and the history
// consumer enabled, the consumer is the only history writer.
func ProvideScanUseCase(
	cfg *config.Config,
	collector *usecase.Collector,
	pipeline *momentum.Pipeline,
	analysis *usecase.AnalysisUseCase,
	reports repository.ReportCache,
	sink Sink,
	recorder *usecase.ReportRecorder,
	hub *ws.Hub,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ScanUseCase {
	rec := recorder
	if consumesReports(cfg) {
		rec = nil
	}
	return usecase.NewScanUseCase(
		collector, pipeline, analysis, reports,
		sink.Publisher, sink.Name, rec,
		[]repository.ReportListener{hub},
		m, l,
	)
}

// ProvideQueue runs queued scans through Redis when enabled.
func ProvideQueue(cfg *config.Config, rc *pkgcache.RedisCache, scan *usecase.ScanUseCase, l *applogger.Logger) *queue.RedisQueue {
	if !cfg.Queue.Enabled || rc == nil {
		return nil
	}
	opts := []queue.RedisQueueOption{queue.WithKeyPrefix(cfg.Redis.Prefix + ":queue:" + cfg.Queue.Name)}
	if !cfg.Queue.Consume {
		opts = append(opts, queue.WithProducerOnly())
	}
	q := queue.NewRedisQueue(l.With(applogger.Component("queue")), queue.Config{
		Workers:       cfg.Queue.Workers,
		RetryLimit:    cfg.Queue.MaxRetries,
		RetryDelay:    cfg.Queue.RetryDelay,
		MaxRetryDelay: cfg.Queue.MaxRetryDelay,
		PollTimeout:   cfg.Queue.PollTimeout,
		JobTimeout:    cfg.Queue.JobTimeout,
	}, rc.Client(), opts...)
	q.RegisterJob(usecase.NewScanJob(scan))
	return q
}

// ProvideMonitor schedules recurring scans when enabled.
func ProvideMonitor(cfg *config.Config, scan *usecase.ScanUseCase, l *applogger.Logger) *usecase.Monitor {
	if !cfg.Monitor.Enabled {
		return nil
	}
	return usecase.NewMonitor(scan, cfg.Monitor.Schedule, cfg.Monitor.RunOnBoot, cfg.LLM.AnalyzeTop, cfg.Monitor.ReportDir, l)
}

// ProvideKafkaConsumer creates the history consumer when enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	if !consumesReports(cfg) {
		l.Warn("kafka consumer disabled: reports are only published with the kafka backend",
			applogger.String("backend", cfg.Backend.Type),
			applogger.String("topic", cfg.Kafka.Topic))
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook{Log: l, Slow: 2 * time.Second}))
	return consumer, nil
}

// ProvideReportsHandler records reports read back from the report topic.
func ProvideReportsHandler(cfg *config.Config, recorder *usecase.ReportRecorder, m repository.Metrics) *usecase.ReportsHandler {
	return usecase.NewReportsHandler(cfg.Kafka.Topic, recorder, m)
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.ScanBurst, cfg.Server.ScanPerMinute)
}

// ProvideHTTPHandler registers the REST API and the live report feed.
func ProvideHTTPHandler(
	l *applogger.Logger,
	scan *usecase.ScanUseCase,
	reports repository.ReportCache,
	history repository.HistoryStore,
	q *queue.RedisQueue,
	limiter *ratelimit.Limiter,
	hub *ws.Hub,
	ch *pkgch.Client,
	rc *pkgcache.RedisCache,
) xhttp.Handler {
	var enq api.Enqueuer
	if q != nil {
		enq = q
	}
	h := api.NewScansEchoHandler(l, scan, reports, history, enq, limiter)
	if ch != nil {
		h.AddHealthCheck("clickhouse", ch.Health)
	}
	if rc != nil {
		client := rc.Client()
		h.AddHealthCheck("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	if q != nil {
		h.AddHealthCheck("queue", q.Health)
	}
	return xhttp.Handlers{h, hub}
}

// ProvideApp creates the application server and attaches the log collector.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	producer *pkgkafka.Producer,
	scan *usecase.ScanUseCase,
	monitor *usecase.Monitor,
	q *queue.RedisQueue,
	consumer *pkgkafka.Consumer,
	kh *usecase.ReportsHandler,
	hub *ws.Hub,
	limiter *ratelimit.Limiter,
	handler xhttp.Handler,
) *server.App {
	if cfg.Kafka.LogCollector.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Kafka.LogCollector.Interval,
			CountThreshold: cfg.Kafka.LogCollector.CountThreshold,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return server.New(server.Components{
		Config:      cfg,
		Log:         l,
		Scan:        scan,
		Monitor:     monitor,
		Queue:       q,
		Consumer:    consumer,
		Reports:     kh,
		Hub:         hub,
		Limiter:     limiter,
		HTTPHandler: handler,
	})
}

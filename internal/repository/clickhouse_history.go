package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"PumpScan/internal/domain/models"
	"PumpScan/internal/domain/repository"
	pkgch "PumpScan/pkg/clickhouse"
	applogger "PumpScan/pkg/logger"
)

const (
	summariesTable = "scan_summaries"
	clustersTable  = "scan_clusters"
	alertsTable    = "alerts"
)

// HistorySchema returns the idempotent DDL for the history tables.
func HistorySchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			scan_id String,
			ts DateTime64(3, 'UTC'),
			trigger LowCardinality(String),
			events UInt32,
			clusters UInt32,
			top_theme LowCardinality(String),
			high_risk UInt32,
			coordinated UInt32,
			spikes UInt32,
			new_account_ratio Float64,
			recommendation LowCardinality(String),
			ai_risk_level LowCardinality(String),
			report String
		) ENGINE = MergeTree ORDER BY ts TTL toDateTime(ts) + INTERVAL 90 DAY`, database, summariesTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			scan_id String,
			ts DateTime64(3, 'UTC'),
			theme LowCardinality(String),
			events UInt32,
			total_momentum Float64,
			platform_diversity UInt8,
			platforms Array(String)
		) ENGINE = MergeTree ORDER BY (theme, ts) TTL toDateTime(ts) + INTERVAL 90 DAY`, database, clustersTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			id String,
			scan_id String,
			ts DateTime64(3, 'UTC'),
			type LowCardinality(String),
			severity LowCardinality(String),
			theme LowCardinality(String),
			message String,
			high_risk UInt32,
			coordinated UInt32,
			spikes UInt32,
			new_account_ratio Float64,
			status LowCardinality(String)
		) ENGINE = MergeTree ORDER BY ts`, database, alertsTable),
	}
}

// ClickHouseHistory implements HistoryStore on ClickHouse.
type ClickHouseHistory struct {
	ch       *pkgch.Client
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewClickHouseHistory(ch *pkgch.Client, l *applogger.Logger) repository.HistoryStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseHistory{ch: ch, db: ch.DB(), database: ch.Database(), l: l.With(applogger.Component("history"))}
}

func (s *ClickHouseHistory) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, HistorySchema(s.database))
}

func (s *ClickHouseHistory) SaveReport(ctx context.Context, r *models.ScanReport) error {
	q, args, err := summaryInsert(s.table(summariesTable), r)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}

	if q, args := clusterInsert(s.table(clustersTable), r); q != "" {
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert clusters: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseHistory) SaveAlert(ctx context.Context, a *models.Alert) error {
	q := fmt.Sprintf(`INSERT INTO %s (id, scan_id, ts, type, severity, theme, message,
		high_risk, coordinated, spikes, new_account_ratio, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.table(alertsTable))
	_, err := s.db.ExecContext(ctx, q,
		a.ID, a.ScanID, a.CreatedAt, a.Type, a.Severity, string(a.Theme), a.Message,
		uint32(a.Indicators.HighRiskPatternCount),
		uint32(a.Indicators.CoordinatedPlatformMax),
		uint32(a.Indicators.VolumeSpikeCount),
		a.Indicators.NewAccountRatioEstimate,
		a.Status,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *ClickHouseHistory) RecentSummaries(ctx context.Context, limit int) ([]models.SummaryRecord, error) {
	q := fmt.Sprintf(`SELECT scan_id, ts, events, clusters, top_theme, high_risk, spikes, recommendation, ai_risk_level
		FROM %s ORDER BY ts DESC LIMIT ?`, s.table(summariesTable))
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		s.l.Error("clickhouse recent summaries query error", applogger.Error(err))
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	out := make([]models.SummaryRecord, 0, limit)
	for rows.Next() {
		var (
			rec                            models.SummaryRecord
			events, clusters, high, spikes uint32
			level                          string
		)
		if err := rows.Scan(&rec.ScanID, &rec.Timestamp, &events, &clusters, &rec.TopTheme, &high, &spikes, &level, &rec.AIRiskLevel); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		rec.Events, rec.Clusters = int(events), int(clusters)
		rec.HighRisk, rec.VolumeSpikes = int(high), int(spikes)
		rec.Recommendation = models.RiskLevel(level)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *ClickHouseHistory) RecentAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	q := fmt.Sprintf(`SELECT id, scan_id, ts, type, severity, theme, message,
		high_risk, coordinated, spikes, new_account_ratio, status
		FROM %s ORDER BY ts DESC LIMIT ?`, s.table(alertsTable))
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		s.l.Error("clickhouse recent alerts query error", applogger.Error(err))
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	out := make([]models.Alert, 0, limit)
	for rows.Next() {
		var (
			a                         models.Alert
			theme                     string
			high, coordinated, spikes uint32
		)
		if err := rows.Scan(&a.ID, &a.ScanID, &a.CreatedAt, &a.Type, &a.Severity, &theme, &a.Message,
			&high, &coordinated, &spikes, &a.Indicators.NewAccountRatioEstimate, &a.Status); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Theme = models.ThemeTag(theme)
		a.Indicators.HighRiskPatternCount = int(high)
		a.Indicators.CoordinatedPlatformMax = int(coordinated)
		a.Indicators.VolumeSpikeCount = int(spikes)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *ClickHouseHistory) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *ClickHouseHistory) Close() error {
	return nil // client owned by DI
}

func (s *ClickHouseHistory) table(name string) string {
	return s.database + "." + name
}

func summaryInsert(table string, r *models.ScanReport) (string, []interface{}, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return "", nil, fmt.Errorf("marshal report: %w", err)
	}
	aiLevel := ""
	if r.AI != nil && r.AI.Overall != nil {
		aiLevel = string(r.AI.Overall.RiskLevel)
	}
	s := r.Summary
	q := fmt.Sprintf(`INSERT INTO %s (scan_id, ts, trigger, events, clusters, top_theme, high_risk,
		coordinated, spikes, new_account_ratio, recommendation, ai_risk_level, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table)
	args := []interface{}{
		r.ScanID,
		r.Timestamp,
		r.Trigger,
		uint32(s.MomentumEvents),
		uint32(s.ClustersFound),
		string(s.TopTheme),
		uint32(s.RiskIndicators.HighRiskPatternCount),
		uint32(s.RiskIndicators.CoordinatedPlatformMax),
		uint32(s.RiskIndicators.VolumeSpikeCount),
		s.RiskIndicators.NewAccountRatioEstimate,
		string(s.Recommendation.Level),
		aiLevel,
		string(body),
	}
	return q, args, nil
}

// clusterInsert builds one multi-row insert for the report clusters; empty query when there are none.
func clusterInsert(table string, r *models.ScanReport) (string, []interface{}) {
	if len(r.Clusters) == 0 {
		return "", nil
	}
	values := make([]string, 0, len(r.Clusters))
	args := make([]interface{}, 0, len(r.Clusters)*7)
	for _, c := range r.Clusters {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			r.ScanID,
			r.Timestamp,
			string(c.Theme),
			uint32(c.Events),
			c.TotalMomentum,
			uint8(c.PlatformDiversity),
			c.Platforms,
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (scan_id, ts, theme, events, total_momentum, platform_diversity, platforms) VALUES %s",
		table, strings.Join(values, ","))
	return q, args
}

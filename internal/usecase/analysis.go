package usecase

import (
	"context"

	"PumpScan/internal/domain/models"
	domrepo "PumpScan/internal/domain/repository"
	applogger "PumpScan/pkg/logger"
)

const (
	aiHighThreshold   = 70.0
	aiMediumThreshold = 40.0
)

// AnalysisUseCase asks the analyst about the strongest clusters.
type AnalysisUseCase struct {
	analyst domrepo.Analyst
	log     *applogger.Logger
}

func NewAnalysisUseCase(analyst domrepo.Analyst, log *applogger.Logger) *AnalysisUseCase {
	if log == nil {
		log = applogger.Nop()
	}
	return &AnalysisUseCase{analyst: analyst, log: log.With(applogger.Component("analysis"))}
}

// Enabled reports whether an analyst is configured.
func (uc *AnalysisUseCase) Enabled() bool {
	return uc != nil && uc.analyst != nil
}

// Analyze runs the analyst on the first top clusters (already sorted by momentum).
// It returns nil when top is zero, there are no clusters, or no analyst is configured.
// Failures are recorded per cluster; they never abort the scan.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, clusters []models.MomentumCluster, summary models.RiskSummary, top int) *models.AIAnalysis {
	if !uc.Enabled() || top <= 0 || len(clusters) == 0 {
		return nil
	}
	if top > len(clusters) {
		top = len(clusters)
	}

	out := &models.AIAnalysis{ClusterAnalyses: make([]models.ThemeAnalysis, 0, top)}
	for _, c := range clusters[:top] {
		if ctx.Err() != nil {
			out.ClusterAnalyses = append(out.ClusterAnalyses, models.ThemeAnalysis{Theme: c.Theme, Error: ctx.Err().Error()})
			continue
		}
		a, err := uc.analyst.AnalyzeCluster(ctx, c)
		if err != nil {
			uc.log.Warn("cluster analysis failed",
				applogger.String("theme", string(c.Theme)),
				applogger.Error(err))
			out.ClusterAnalyses = append(out.ClusterAnalyses, models.ThemeAnalysis{Theme: c.Theme, Error: err.Error()})
			continue
		}
		out.ClusterAnalyses = append(out.ClusterAnalyses, models.ThemeAnalysis{Theme: c.Theme, Analysis: a})
	}

	if len(summary.PlatformMomentum) > 0 && ctx.Err() == nil {
		pa, err := uc.analyst.AnalyzePlatforms(ctx, summary.PlatformMomentum)
		if err != nil {
			uc.log.Warn("platform analysis failed", applogger.Error(err))
			out.PlatformError = err.Error()
		} else {
			out.PlatformAnalysis = pa
		}
	}

	out.Overall = Overall(out.ClusterAnalyses)
	return out
}

// Overall rolls successful cluster analyses into one risk level.
// It returns nil when no cluster was analyzed successfully.
func Overall(analyses []models.ThemeAnalysis) *models.OverallAssessment {
	var (
		best     float64
		analyzed int
	)
	for _, ta := range analyses {
		if ta.Analysis == nil {
			continue
		}
		analyzed++
		if ta.Analysis.PumpProbability > best {
			best = ta.Analysis.PumpProbability
		}
	}
	if analyzed == 0 {
		return nil
	}

	level := models.AIRiskLow
	switch {
	case best > aiHighThreshold:
		level = models.AIRiskHigh
	case best > aiMediumThreshold:
		level = models.AIRiskMedium
	}
	return &models.OverallAssessment{
		HighestPumpProbability: best,
		ThemesAnalyzed:         analyzed,
		RiskLevel:              level,
	}
}

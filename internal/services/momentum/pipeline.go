package momentum

import (
	"PumpScan/internal/domain/models"
)

// Result is everything one pipeline run produces.
type Result struct {
	Events   []models.MomentumEvent   `json:"events"`
	Tagged   []models.TaggedEvent     `json:"-"`
	Clusters []models.MomentumCluster `json:"clusters"`
	Summary  models.RiskSummary       `json:"summary"`
	Stats    NormalizeStats           `json:"stats"`
}

// Pipeline chains normalizer, classifier, aggregator and summarizer.
// It performs no I/O and holds no mutable state between runs.
type Pipeline struct {
	normalizer *Normalizer
	classifier *Classifier
	aggregator *Aggregator
	summarizer *Summarizer
}

func NewPipeline(rules Rules, opts ...NormalizerOption) *Pipeline {
	return &Pipeline{
		normalizer: NewNormalizer(rules, opts...),
		classifier: NewClassifier(rules),
		aggregator: NewAggregator(rules),
		summarizer: NewSummarizer(rules),
	}
}

// Run processes the batches in order. An event ID seen in an earlier batch is dropped,
// so a post listed both as hot and rising counts once.
func (p *Pipeline) Run(batches []models.SourceBatch) Result {
	var (
		res  Result
		seen = make(map[string]struct{})
	)
	for _, b := range batches {
		events, stats := p.normalizer.Normalize(b)
		for _, e := range events {
			if _, dup := seen[e.ID]; dup {
				stats.Events--
				continue
			}
			seen[e.ID] = struct{}{}
			res.Events = append(res.Events, e)
		}
		res.Stats.add(stats)
	}

	res.Tagged = p.classifier.Tag(res.Events)
	res.Clusters = p.aggregator.Aggregate(res.Tagged)
	res.Summary = p.summarizer.Summarize(res.Clusters, res.Events)
	return res
}

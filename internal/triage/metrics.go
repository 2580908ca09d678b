package triage

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type serviceMetrics struct {
	tabsScored    metric.Int64Counter
	scores        metric.Int64Histogram
	suggestions   metric.Int64Counter
	sessionsSaved metric.Int64Counter
}

func newServiceMetrics(meter metric.Meter) (*serviceMetrics, error) {
	tabsScored, err := meter.Int64Counter("tabtriage.tabs.scored",
		metric.WithDescription("Tabs scored by enrichment passes"))
	if err != nil {
		return nil, err
	}
	scores, err := meter.Int64Histogram("tabtriage.anxiety.score",
		metric.WithDescription("Distribution of anxiety scores"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100))
	if err != nil {
		return nil, err
	}
	suggestions, err := meter.Int64Counter("tabtriage.suggestions",
		metric.WithDescription("Tabs placed in each suggestion bucket"))
	if err != nil {
		return nil, err
	}
	sessionsSaved, err := meter.Int64Counter("tabtriage.sessions.saved",
		metric.WithDescription("Sessions archived"))
	if err != nil {
		return nil, err
	}
	return &serviceMetrics{
		tabsScored:    tabsScored,
		scores:        scores,
		suggestions:   suggestions,
		sessionsSaved: sessionsSaved,
	}, nil
}

func (m *serviceMetrics) recordScore(ctx context.Context, score int, category string) {
	m.tabsScored.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
	m.scores.Record(ctx, int64(score))
}

func (m *serviceMetrics) recordBucket(ctx context.Context, bucket string, n int) {
	if n == 0 {
		return
	}
	m.suggestions.Add(ctx, int64(n), metric.WithAttributes(attribute.String("bucket", bucket)))
}

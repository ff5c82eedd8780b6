package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"linearsolve/api/internal/solver"
)

const instrumentationName = "linearsolve/solver"

var tracer = otel.Tracer(instrumentationName)

// SolveMetrics counts solve requests and records their duration.
type SolveMetrics struct {
	solvesCounter   metric.Int64Counter
	failuresCounter metric.Int64Counter
	durationHist    metric.Float64Histogram
	inFlightGauge   metric.Int64UpDownCounter
}

// NewSolveMetrics registers the instruments on the global meter provider.
func NewSolveMetrics() (*SolveMetrics, error) {
	return NewSolveMetricsFrom(otel.GetMeterProvider())
}

func NewSolveMetricsFrom(mp metric.MeterProvider) (*SolveMetrics, error) {
	meter := mp.Meter(instrumentationName)

	solvesCounter, err := meter.Int64Counter(
		"linearsolve.solves.started",
		metric.WithDescription("Total number of solve requests sent to the model"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	failuresCounter, err := meter.Int64Counter(
		"linearsolve.solves.failed",
		metric.WithDescription("Total number of solve requests that failed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"linearsolve.solve.duration",
		metric.WithDescription("Duration of solve requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	inFlightGauge, err := meter.Int64UpDownCounter(
		"linearsolve.solves.active",
		metric.WithDescription("Number of solve requests currently in flight"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &SolveMetrics{
		solvesCounter:   solvesCounter,
		failuresCounter: failuresCounter,
		durationHist:    durationHist,
		inFlightGauge:   inFlightGauge,
	}, nil
}

func (m *SolveMetrics) begin(ctx context.Context, attrs ...attribute.KeyValue) {
	m.solvesCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.inFlightGauge.Add(ctx, 1)
}

func (m *SolveMetrics) end(ctx context.Context, d time.Duration, failed bool, attrs ...attribute.KeyValue) {
	status := "completed"
	if failed {
		status = "failed"
		m.failuresCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	attrs = append(attrs, attribute.String("status", status))
	m.durationHist.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
	m.inFlightGauge.Add(ctx, -1)
}

type instrumented struct {
	next    solver.Solver
	metrics *SolveMetrics
	source  string
}

// Instrument wraps s with a span and the solve metrics. source tags the front-end ("web", "api", "telegram").
func Instrument(s solver.Solver, m *SolveMetrics, source string) solver.Solver {
	return &instrumented{next: s, metrics: m, source: source}
}

func (i *instrumented) Solve(ctx context.Context, p solver.Problem) (string, error) {
	attrs := []attribute.KeyValue{
		attribute.String("solve.source", i.source),
		attribute.Bool("solve.has_image", p.HasImage()),
	}
	ctx, span := tracer.Start(ctx, "solver.Solve", trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	if i.metrics != nil {
		i.metrics.begin(ctx, attrs...)
	}

	out, err := i.next.Solve(ctx, p)

	if i.metrics != nil {
		i.metrics.end(ctx, time.Since(start), err != nil, attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, solver.ErrSolveFailed) {
			return "", solver.ErrSolveFailed
		}
		return "", err
	}
	span.SetAttributes(attribute.Int("solve.answer_bytes", len(out)))
	return out, nil
}

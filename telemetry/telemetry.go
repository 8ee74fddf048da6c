// Package telemetry exports render instrumentation events as OpenTelemetry
// spans: one span per render call with a child span per expansion
// wavefront, correlated through the render id.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"

	"github.com/fieldlens/fieldlens/internal/eventbus"
	"github.com/fieldlens/fieldlens/internal/events"
	"github.com/fieldlens/fieldlens/internal/renderid"
)

// Setup configures OpenTelemetry and attaches the event subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	eventbus.Use(eventbus.New())
	sub := &subscriber{tracer: otel.Tracer("fieldlens")}
	sub.register()

	return tp.Shutdown, nil
}

type subscriber struct {
	tracer      trace.Tracer
	renderSpans sync.Map // rid -> trace.Span
	waveSpans   sync.Map // rid -> trace.Span
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.RenderStart) {
		rid, _ := renderid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "fieldlens.render")
		span.SetAttributes(
			attribute.String("fieldlens.model", e.Model),
			attribute.StringSlice("fieldlens.fields", e.Fields),
		)
		s.renderSpans.Store(rid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.RenderFinish) {
		rid, _ := renderid.FromContext(ctx)
		v, ok := s.renderSpans.LoadAndDelete(rid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		if e.Err != nil {
			span.RecordError(e.Err)
			span.SetStatus(codes.Error, e.Err.Error())
		}
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.WavefrontStart) {
		rid, _ := renderid.FromContext(ctx)
		parent := ctx
		if v, ok := s.renderSpans.Load(rid); ok {
			parent = trace.ContextWithSpan(ctx, v.(trace.Span))
		}
		_, span := s.tracer.Start(parent, "fieldlens.wavefront")
		span.SetAttributes(
			attribute.Int("fieldlens.wavefront.depth", e.Depth),
			attribute.Int("fieldlens.wavefront.size", e.Size),
		)
		// Wavefronts within one render are sequential, so the slot is free
		// again before the next start.
		s.waveSpans.Store(rid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.WavefrontFinish) {
		rid, _ := renderid.FromContext(ctx)
		v, ok := s.waveSpans.LoadAndDelete(rid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		if e.Err != nil {
			span.RecordError(e.Err)
			span.SetStatus(codes.Error, e.Err.Error())
		}
		span.End()
	})
}

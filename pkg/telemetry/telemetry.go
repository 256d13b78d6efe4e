// Package telemetry bridges the engine's Trace hook to OpenTelemetry.
// It also ships a no-op TracerProvider for tests that want the wiring
// without a backend.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloud-shuttle/go-fsm"
	"github.com/cloud-shuttle/go-fsm/elements"
)

// Tracing adapts an OpenTelemetry tracer into the engine's Trace hook.
// Each engine step becomes a span carrying the qualified names of the
// elements involved; errors passed to the end function mark the span
// failed.
func Tracing(tracer trace.Tracer) fsm.Trace {
	return func(step string, elems ...elements.Element) func(...any) {
		_, span := tracer.Start(context.Background(), step)
		attrs := make([]attribute.KeyValue, 0, len(elems))
		for i, elem := range elems {
			attrs = append(attrs, attribute.String(fmt.Sprintf("fsm.element.%d", i), elem.QualifiedName()))
		}
		span.SetAttributes(attrs...)
		return func(args ...any) {
			for _, arg := range args {
				if err, ok := arg.(error); ok && err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
				}
			}
			span.End()
		}
	}
}

/******* no-op provider *******/

type Provider struct {
	trace.TracerProvider
}

var (
	provider    = &Provider{}
	tracer      = &Tracer{}
	span        = &Span{}
	spanContext = trace.SpanContext{}
)

func NewProvider() *Provider {
	return provider
}

func (provider *Provider) Tracer(name string, options ...trace.TracerOption) trace.Tracer {
	return tracer
}

type Tracer struct {
	trace.Tracer
}

func (tracer *Tracer) Start(ctx context.Context, name string, options ...trace.SpanStartOption) (context.Context, trace.Span) {
	return ctx, span
}

type Span struct {
	trace.Span
}

func (span *Span) End(options ...trace.SpanEndOption)                  {}
func (span *Span) AddEvent(name string, options ...trace.EventOption)  {}
func (span *Span) AddLink(link trace.Link)                             {}
func (span *Span) IsRecording() bool                                   { return false }
func (span *Span) RecordError(err error, options ...trace.EventOption) {}
func (span *Span) SetAttributes(kv ...attribute.KeyValue)              {}
func (span *Span) SetName(name string)                                 {}
func (span *Span) SetStatus(code codes.Code, description string)       {}
func (span *Span) SpanContext() trace.SpanContext                      { return spanContext }
func (span *Span) TracerProvider() trace.TracerProvider                { return provider }

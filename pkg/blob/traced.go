package blob

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used when no tracer is supplied.
const TracerName = "github.com/dmitrymomot/blobdrop/pkg/blob"

// TracedStore records one span per Store call.
type TracedStore struct {
	store  Store
	tracer trace.Tracer
}

// Traced wraps store with tracing. A nil tracer resolves from the global provider.
func Traced(store Store, tracer trace.Tracer) *TracedStore {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &TracedStore{store: store, tracer: tracer}
}

// Put stores the blob inside a blob.Put span.
func (s *TracedStore) Put(ctx context.Context, key string, r io.Reader, opts ...PutOption) (*Object, error) {
	ctx, span := s.start(ctx, "blob.Put", key)
	defer span.End()

	obj, err := s.store.Put(ctx, key, r, opts...)
	if err == nil {
		span.SetAttributes(
			attribute.Int64("blob.size", obj.Size),
			attribute.String("blob.content_type", obj.ContentType),
		)
	}
	finish(span, err)
	return obj, err
}

// Get opens the blob inside a blob.Get span.
func (s *TracedStore) Get(ctx context.Context, key string) (io.ReadCloser, *Object, error) {
	ctx, span := s.start(ctx, "blob.Get", key)
	defer span.End()

	rc, obj, err := s.store.Get(ctx, key)
	if err == nil {
		span.SetAttributes(attribute.Int64("blob.size", obj.Size))
	}
	finish(span, err)
	return rc, obj, err
}

// Head reads the descriptor inside a blob.Head span.
func (s *TracedStore) Head(ctx context.Context, key string) (*Object, error) {
	ctx, span := s.start(ctx, "blob.Head", key)
	defer span.End()

	obj, err := s.store.Head(ctx, key)
	if err == nil {
		span.SetAttributes(attribute.Int64("blob.size", obj.Size))
	}
	finish(span, err)
	return obj, err
}

// Delete removes the blob inside a blob.Delete span.
func (s *TracedStore) Delete(ctx context.Context, key string) error {
	ctx, span := s.start(ctx, "blob.Delete", key)
	defer span.End()

	err := s.store.Delete(ctx, key)
	finish(span, err)
	return err
}

// Ping checks the wrapped store inside a blob.Ping span.
func (s *TracedStore) Ping(ctx context.Context) error {
	p, ok := s.store.(Pinger)
	if !ok {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "blob.Ping", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	err := p.Ping(ctx)
	finish(span, err)
	return err
}

func (s *TracedStore) start(ctx context.Context, name, key string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("blob.key", key)),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

var (
	_ Store  = (*TracedStore)(nil)
	_ Pinger = (*TracedStore)(nil)
)

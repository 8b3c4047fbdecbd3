package blob

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ctfer-io/scenario-editor/global"
)

// Traced records a span per blob operation.
type Traced struct {
	next Store
}

var _ Store = (*Traced)(nil)

func NewTraced(store Store) *Traced {
	return &Traced{next: store}
}

func (t *Traced) Driver() Driver { return t.next.Driver() }

func (t *Traced) Fetch(ctx context.Context, container, name string) ([]byte, error) {
	ctx, span := global.Tracer.Start(ctx, "blob-fetch", trace.WithAttributes(
		attribute.String("blob.driver", string(t.next.Driver())),
		attribute.String("blob.container", container),
		attribute.String("blob.name", name),
	))
	defer span.End()

	b, err := t.next.Fetch(ctx, container, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("blob.size", len(b)))
	return b, nil
}

func (t *Traced) Store(ctx context.Context, container, name string, data []byte) error {
	ctx, span := global.Tracer.Start(ctx, "blob-store", trace.WithAttributes(
		attribute.String("blob.driver", string(t.next.Driver())),
		attribute.String("blob.container", container),
		attribute.String("blob.name", name),
		attribute.Int("blob.size", len(data)),
	))
	defer span.End()

	if err := t.next.Store(ctx, container, name, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		return err
	}
	return nil
}

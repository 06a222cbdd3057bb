package soundalike

import (
	"context"
	"fmt"

	"github.com/hupe1980/soundalike/artifact"
	"github.com/hupe1980/soundalike/blobstore"
	"github.com/hupe1980/soundalike/featurestore"
)

// StoreFromBundle builds a feature store from a fitted bundle. Raw bundles
// carry no cluster assignments and fail with *SchemaError.
func StoreFromBundle(b *artifact.Bundle, optFns ...featurestore.Option) (*featurestore.Store, error) {
	if b.Kind != artifact.KindFitted {
		return nil, &SchemaError{Reason: fmt.Sprintf("bundle kind is %q, want %q", b.Kind, artifact.KindFitted)}
	}

	st, err := featurestore.NewFlat(b.Vectors, b.Dim, b.IDs, b.Clusters, optFns...)
	if err != nil {
		return nil, translateError(err)
	}
	return st, nil
}

// LoadStore reads the bundle in bs and builds its feature store.
func LoadStore(ctx context.Context, bs blobstore.BlobStore, optFns ...Option) (*featurestore.Store, error) {
	o := applyOptions(optFns)
	return loadStore(ctx, bs, o.separator)
}

func loadStore(ctx context.Context, bs blobstore.BlobStore, sep string) (*featurestore.Store, error) {
	b, _, err := artifact.Read(ctx, bs)
	if err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}
	return StoreFromBundle(b, featurestore.WithSeparator(sep))
}

// Load reads the bundle in bs and returns an engine serving it.
//
// Example:
//
//	eng, err := soundalike.Load(ctx, blobstore.NewLocalStore("./model"))
//	if err != nil {
//		return err
//	}
//	res, err := eng.RecommendByTrack(ctx, "jazz.00042.wav", 5)
func Load(ctx context.Context, bs blobstore.BlobStore, optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)

	st, err := loadStore(ctx, bs, o.separator)
	if err != nil {
		o.logger.LogReload(ctx, 0, 0, 0, 0, err)
		o.metricsCollector.RecordReload(0, 0, err)
		return nil, err
	}
	return New(st, optFns...)
}

// ReloadFrom reads the bundle in bs and hot-swaps it in. On failure the
// engine keeps serving the store it had.
func (e *Engine) ReloadFrom(ctx context.Context, bs blobstore.BlobStore) error {
	st, err := loadStore(ctx, bs, e.separator)
	if err != nil {
		e.logger.LogReload(ctx, 0, 0, 0, 0, err)
		e.metrics.RecordReload(0, 0, err)
		return err
	}
	return e.Reload(ctx, st)
}

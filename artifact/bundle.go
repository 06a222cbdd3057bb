package artifact

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/soundalike/blobstore"
	"github.com/hupe1980/soundalike/codec"
	"github.com/hupe1980/soundalike/internal/hash"
)

// Bundle is the in-memory form of a bundle.
type Bundle struct {
	Kind Kind
	Dim  int
	// Vectors is the row-major len(IDs) x Dim feature matrix.
	Vectors []float32
	IDs     []string
	// Clusters holds one assignment per track. Nil for raw bundles.
	Clusters []int
	// Features names the matrix columns when known.
	Features []string
	Model    *Model
}

// Len returns the number of tracks.
func (b *Bundle) Len() int { return len(b.IDs) }

// Row returns the feature vector of track i without copying.
func (b *Bundle) Row(i int) []float32 {
	return b.Vectors[i*b.Dim : (i+1)*b.Dim : (i+1)*b.Dim]
}

// NumClusters returns one past the largest assignment, or 0.
func (b *Bundle) NumClusters() int {
	k := 0
	for _, c := range b.Clusters {
		if c+1 > k {
			k = c + 1
		}
	}
	return k
}

func (b *Bundle) validate() error {
	if b.Dim <= 0 {
		return fmt.Errorf("artifact: dimension must be positive, got %d", b.Dim)
	}
	if len(b.Vectors) != len(b.IDs)*b.Dim {
		return fmt.Errorf("artifact: matrix has %d values, want %d tracks x %d", len(b.Vectors), len(b.IDs), b.Dim)
	}
	if b.Features != nil && len(b.Features) != b.Dim {
		return fmt.Errorf("artifact: %d feature names for dimension %d", len(b.Features), b.Dim)
	}
	switch b.Kind {
	case KindRaw:
		if b.Clusters != nil {
			return errors.New("artifact: raw bundle carries cluster assignments")
		}
	case KindFitted:
		if len(b.Clusters) != len(b.IDs) {
			return fmt.Errorf("artifact: %d assignments for %d tracks", len(b.Clusters), len(b.IDs))
		}
	default:
		return fmt.Errorf("artifact: unknown kind %q", b.Kind)
	}
	return nil
}

// Model is the fitted scaler and clustering of a bundle.
type Model struct {
	// Mean and Scale are the per-column StandardScaler parameters.
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
	K     int       `json:"k"`
	// Centroids is the row-major K x dim centroid matrix in scaled space.
	Centroids []float32 `json:"centroids"`
	Inertia   float64   `json:"inertia"`
	Seed      int64     `json:"seed"`
	NInit     int       `json:"n_init"`
	MaxIter   int       `json:"max_iter"`
}

type trackIndex struct {
	IDs      []string `json:"ids"`
	Clusters []int    `json:"clusters,omitempty"`
	Features []string `json:"features,omitempty"`
}

type writeOptions struct {
	compression Compression
	codec       codec.Codec
	createdAt   time.Time
}

// WriteOption configures Write.
type WriteOption func(*writeOptions)

// WithCompression sets the feature matrix compression. Default none.
func WithCompression(c Compression) WriteOption {
	return func(o *writeOptions) { o.compression = c }
}

// WithCodec sets the codec of the manifest, index and model blobs.
func WithCodec(c codec.Codec) WriteOption {
	return func(o *writeOptions) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCreatedAt overrides the manifest timestamp.
func WithCreatedAt(t time.Time) WriteOption {
	return func(o *writeOptions) { o.createdAt = t }
}

// Write stores b in bs and returns the committed manifest.
//
// Data blobs are named after their checksum and uploaded concurrently;
// the manifest is written after all of them succeed. After the commit,
// data blobs referenced by neither the new nor the previous manifest are
// removed, so a reader that loaded the previous manifest still finds its
// blobs.
func Write(ctx context.Context, bs blobstore.BlobStore, b *Bundle, optFns ...WriteOption) (*Manifest, error) {
	o := writeOptions{
		compression: CompressionNone,
		codec:       codec.Default,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.createdAt.IsZero() {
		o.createdAt = time.Now().UTC()
	}

	if err := b.validate(); err != nil {
		return nil, err
	}
	if _, err := ParseCompression(string(o.compression)); err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}

	// Errors only mean there is no readable previous bundle to protect.
	prev, _ := ReadManifest(ctx, bs)

	features, used, err := compress(encodeVectors(b.Vectors), o.compression)
	if err != nil {
		return nil, fmt.Errorf("artifact: compress features: %w", err)
	}

	idx := trackIndex{IDs: b.IDs, Features: b.Features}
	if b.Kind == KindFitted {
		idx.Clusters = b.Clusters
	}
	index, err := o.codec.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("artifact: encode track index: %w", err)
	}

	m := &Manifest{
		FormatVersion: FormatVersion,
		Kind:          b.Kind,
		Tracks:        len(b.IDs),
		Dim:           b.Dim,
		Compression:   used,
		Codec:         o.codec.Name(),
		Features:      ref(FeaturesName+used.suffix(), features),
		Index:         ref(TracksName, index),
		CreatedAt:     o.createdAt,
	}
	if b.Kind == KindFitted {
		m.Clusters = b.NumClusters()
	}

	blobs := map[string][]byte{
		m.Features.Name: features,
		m.Index.Name:    index,
	}
	if b.Model != nil {
		model, err := o.codec.Marshal(b.Model)
		if err != nil {
			return nil, fmt.Errorf("artifact: encode model: %w", err)
		}
		r := ref(ModelName, model)
		m.Model = &r
		blobs[r.Name] = model
	}

	g, gctx := errgroup.WithContext(ctx)
	for name, data := range blobs {
		g.Go(func() error {
			if err := bs.Put(gctx, name, data); err != nil {
				return fmt.Errorf("artifact: put %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	manifest, err := o.codec.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("artifact: encode manifest: %w", err)
	}
	if err := bs.Put(ctx, ManifestName, manifest); err != nil {
		return nil, fmt.Errorf("artifact: put %s: %w", ManifestName, err)
	}

	if err := collect(ctx, bs, m, prev); err != nil {
		return m, err
	}

	return m, nil
}

// ReadManifest reads and validates the manifest of the bundle in bs.
// Manifests are JSON in every supported codec, so it is decoded with
// codec.Default.
func ReadManifest(ctx context.Context, bs blobstore.BlobStore) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, bs, ManifestName)
	if err != nil {
		return nil, fmt.Errorf("artifact: read manifest: %w", err)
	}

	var m Manifest
	if err := codec.Default.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode manifest: %w", ErrCorrupt, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Read loads the bundle in bs. The feature matrix, track index and model
// are fetched concurrently and checked against the manifest's sizes and
// checksums.
func Read(ctx context.Context, bs blobstore.BlobStore) (*Bundle, *Manifest, error) {
	m, err := ReadManifest(ctx, bs)
	if err != nil {
		return nil, nil, err
	}

	c, ok := codec.ByName(m.Codec)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown codec %q", ErrCorrupt, m.Codec)
	}

	var featuresData, indexData, modelData []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		featuresData, err = fetch(gctx, bs, m.Features)
		return err
	})
	g.Go(func() (err error) {
		indexData, err = fetch(gctx, bs, m.Index)
		return err
	})
	if m.Model != nil {
		g.Go(func() (err error) {
			modelData, err = fetch(gctx, bs, *m.Model)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	raw, err := decompress(featuresData, m.Compression, m.RawSize())
	if err != nil {
		return nil, nil, fmt.Errorf("artifact: features: %w", err)
	}

	var idx trackIndex
	if err := c.Unmarshal(indexData, &idx); err != nil {
		return nil, nil, fmt.Errorf("%w: decode track index: %w", ErrCorrupt, err)
	}
	if len(idx.IDs) != m.Tracks {
		return nil, nil, fmt.Errorf("%w: index lists %d tracks, manifest %d", ErrCorrupt, len(idx.IDs), m.Tracks)
	}

	b := &Bundle{
		Kind:     m.Kind,
		Dim:      m.Dim,
		Vectors:  decodeVectors(raw),
		IDs:      idx.IDs,
		Features: idx.Features,
	}
	if m.Kind == KindFitted {
		if len(idx.Clusters) != m.Tracks {
			return nil, nil, fmt.Errorf("%w: index lists %d assignments, manifest %d", ErrCorrupt, len(idx.Clusters), m.Tracks)
		}
		b.Clusters = idx.Clusters
	}

	if modelData != nil {
		var model Model
		if err := c.Unmarshal(modelData, &model); err != nil {
			return nil, nil, fmt.Errorf("%w: decode model: %w", ErrCorrupt, err)
		}
		if len(model.Centroids) != model.K*m.Dim {
			return nil, nil, fmt.Errorf("%w: model has %d centroid values, want %d", ErrCorrupt, len(model.Centroids), model.K*m.Dim)
		}
		b.Model = &model
	}

	return b, m, nil
}

// ref describes data stored under the checksummed form of base.
func ref(base string, data []byte) BlobRef {
	sum := hash.CRC32C(data)
	return BlobRef{Name: BlobName(base, sum), Size: int64(len(data)), CRC32C: sum}
}

// collect removes data blobs that neither cur nor prev references.
func collect(ctx context.Context, bs blobstore.BlobStore, cur, prev *Manifest) error {
	keep := make(map[string]bool)
	for _, r := range cur.refs() {
		keep[r.Name] = true
	}
	if prev != nil {
		for _, r := range prev.refs() {
			keep[r.Name] = true
		}
	}

	names, err := bs.List(ctx, "")
	if err != nil {
		return fmt.Errorf("artifact: list blobs: %w", err)
	}
	for _, name := range names {
		if !isDataBlob(name) || keep[name] {
			continue
		}
		if err := bs.Delete(ctx, name); err != nil {
			return fmt.Errorf("artifact: remove stale %s: %w", name, err)
		}
	}
	return nil
}

func fetch(ctx context.Context, bs blobstore.BlobStore, r BlobRef) ([]byte, error) {
	data, err := blobstore.ReadAll(ctx, bs, r.Name)
	if err != nil {
		return nil, fmt.Errorf("artifact: read %s: %w", r.Name, err)
	}
	if int64(len(data)) != r.Size {
		return nil, fmt.Errorf("%w: %s is %d bytes, manifest says %d", ErrCorrupt, r.Name, len(data), r.Size)
	}
	if sum := hash.CRC32C(data); sum != r.CRC32C {
		return nil, fmt.Errorf("%w: %s checksum %08x, manifest says %08x", ErrCorrupt, r.Name, sum, r.CRC32C)
	}
	return data, nil
}

func encodeVectors(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(f))
	}
	return out
}

func decodeVectors(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

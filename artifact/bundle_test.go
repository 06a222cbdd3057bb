package artifact

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/soundalike/blobstore"
	"github.com/hupe1980/soundalike/codec"
)

func fittedBundle(n, dim int) *Bundle {
	b := &Bundle{Kind: KindFitted, Dim: dim}
	for i := 0; i < n; i++ {
		b.IDs = append(b.IDs, fmt.Sprintf("genre%d.%05d.wav", i%3, i))
		b.Clusters = append(b.Clusters, i%4)
		for j := 0; j < dim; j++ {
			b.Vectors = append(b.Vectors, float32((i+j)%5)*0.5)
		}
	}
	return b
}

func TestWriteRead(t *testing.T) {
	ctx := context.Background()

	for _, c := range []Compression{CompressionNone, CompressionZSTD, CompressionLZ4} {
		t.Run(string(c), func(t *testing.T) {
			bs := blobstore.NewMemoryStore()
			in := fittedBundle(200, 8)
			in.Model = &Model{
				Mean:      make([]float64, 8),
				Scale:     []float64{1, 1, 1, 1, 1, 1, 1, 1},
				K:         4,
				Centroids: make([]float32, 32),
				Inertia:   12.5,
				Seed:      42,
				NInit:     10,
				MaxIter:   300,
			}

			created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			m, err := Write(ctx, bs, in, WithCompression(c), WithCreatedAt(created))
			require.NoError(t, err)

			assert.Equal(t, c, m.Compression)
			assert.Equal(t, BlobName(FeaturesName+c.suffix(), m.Features.CRC32C), m.Features.Name)
			assert.Equal(t, 200, m.Tracks)
			assert.Equal(t, 8, m.Dim)
			assert.Equal(t, 4, m.Clusters)
			assert.Equal(t, "go-json", m.Codec)
			require.NotNil(t, m.Model)

			out, rm, err := Read(ctx, bs)
			require.NoError(t, err)

			assert.Equal(t, m.Features, rm.Features)
			assert.True(t, created.Equal(rm.CreatedAt))
			assert.Equal(t, in.Vectors, out.Vectors)
			assert.Equal(t, in.IDs, out.IDs)
			assert.Equal(t, in.Clusters, out.Clusters)
			assert.Equal(t, in.Model, out.Model)
			assert.Equal(t, KindFitted, out.Kind)
		})
	}
}

func TestWriteIncompressibleFallsBack(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	// Too small for lz4 to gain anything.
	in := &Bundle{Kind: KindRaw, Dim: 2, Vectors: []float32{0.1, 0.7}, IDs: []string{"a.1"}}

	m, err := Write(ctx, bs, in, WithCompression(CompressionLZ4))
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, m.Compression)
	assert.Equal(t, BlobName(FeaturesName, m.Features.CRC32C), m.Features.Name)

	out, _, err := Read(ctx, bs)
	require.NoError(t, err)
	assert.Equal(t, in.Vectors, out.Vectors)
	assert.Nil(t, out.Clusters)
	assert.Nil(t, out.Model)
}

func TestWriteRemovesStaleBlobs(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	// Blobs of other bundles below the root and legacy fixed names.
	require.NoError(t, bs.Put(ctx, "raw/"+BlobName(FeaturesName, 1), []byte{1}))
	require.NoError(t, bs.Put(ctx, TracksName, []byte("{}")))

	in := fittedBundle(100, 4)
	in.Model = &Model{K: 1, Centroids: make([]float32, 4)}
	first, err := Write(ctx, bs, in, WithCompression(CompressionZSTD))
	require.NoError(t, err)

	in.Model = nil
	second, err := Write(ctx, bs, in)
	require.NoError(t, err)

	// The first generation survives one more write.
	for _, r := range first.refs() {
		_, err := fetch(ctx, bs, r)
		require.NoError(t, err, r.Name)
	}

	_, err = Write(ctx, bs, in)
	require.NoError(t, err)

	names, err := bs.List(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		second.Features.Name,
		ManifestName,
		"raw/" + BlobName(FeaturesName, 1),
		second.Index.Name,
	}, names)
}

func TestWriteKeepsPreviousBundleReadable(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	old, err := Write(ctx, bs, fittedBundle(20, 3))
	require.NoError(t, err)

	// A reader holding the old manifest while a new bundle commits.
	next := fittedBundle(30, 3)
	m, err := Write(ctx, bs, next, WithCompression(CompressionLZ4))
	require.NoError(t, err)
	assert.NotEqual(t, old.Features.Name, m.Features.Name)
	assert.NotEqual(t, old.Index.Name, m.Index.Name)

	for _, r := range old.refs() {
		_, err := fetch(ctx, bs, r)
		assert.NoError(t, err, r.Name)
	}

	out, _, err := Read(ctx, bs)
	require.NoError(t, err)
	assert.Equal(t, next.IDs, out.IDs)
}

func TestWriteWithStdlibCodec(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	m, err := Write(ctx, bs, fittedBundle(10, 3), WithCodec(codec.JSON{}))
	require.NoError(t, err)
	assert.Equal(t, "json", m.Codec)

	out, _, err := Read(ctx, bs)
	require.NoError(t, err)
	assert.Equal(t, 10, out.Len())
	assert.Equal(t, 4, out.NumClusters())
}

func TestWriteValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		bundle *Bundle
	}{
		{"zero dim", &Bundle{Kind: KindRaw, Dim: 0}},
		{"short matrix", &Bundle{Kind: KindRaw, Dim: 2, Vectors: []float32{1}, IDs: []string{"a"}}},
		{"raw with clusters", &Bundle{Kind: KindRaw, Dim: 1, Vectors: []float32{1}, IDs: []string{"a"}, Clusters: []int{0}}},
		{"fitted without clusters", &Bundle{Kind: KindFitted, Dim: 1, Vectors: []float32{1}, IDs: []string{"a"}}},
		{"feature names", &Bundle{Kind: KindRaw, Dim: 1, Vectors: []float32{1}, IDs: []string{"a"}, Features: []string{"x", "y"}}},
		{"unknown kind", &Bundle{Kind: "other", Dim: 1, Vectors: []float32{1}, IDs: []string{"a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs := blobstore.NewMemoryStore()
			_, err := Write(ctx, bs, tt.bundle)
			require.Error(t, err)

			names, err := bs.List(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}

	_, err := Write(ctx, blobstore.NewMemoryStore(), fittedBundle(2, 2), WithCompression("brotli"))
	assert.Error(t, err)
}

func TestReadMissingManifest(t *testing.T) {
	_, _, err := Read(context.Background(), blobstore.NewMemoryStore())
	require.Error(t, err)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestReadCorrupt(t *testing.T) {
	ctx := context.Background()

	t.Run("tampered index", func(t *testing.T) {
		bs := blobstore.NewMemoryStore()
		m, err := Write(ctx, bs, fittedBundle(5, 2))
		require.NoError(t, err)

		data, err := blobstore.ReadAll(ctx, bs, m.Index.Name)
		require.NoError(t, err)
		data[len(data)-2] ^= 0x01
		require.NoError(t, bs.Put(ctx, m.Index.Name, data))

		_, _, err = Read(ctx, bs)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("truncated features", func(t *testing.T) {
		bs := blobstore.NewMemoryStore()
		m, err := Write(ctx, bs, fittedBundle(5, 2))
		require.NoError(t, err)

		data, err := blobstore.ReadAll(ctx, bs, m.Features.Name)
		require.NoError(t, err)
		require.NoError(t, bs.Put(ctx, m.Features.Name, data[:len(data)-4]))

		_, _, err = Read(ctx, bs)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("garbage manifest", func(t *testing.T) {
		bs := blobstore.NewMemoryStore()
		require.NoError(t, bs.Put(ctx, ManifestName, []byte("not json")))

		_, _, err := Read(ctx, bs)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("future version", func(t *testing.T) {
		bs := blobstore.NewMemoryStore()
		m := Manifest{
			FormatVersion: FormatVersion + 1,
			Kind:          KindRaw,
			Compression:   CompressionNone,
			Codec:         "json",
			Features:      BlobRef{Name: FeaturesName},
			Index:         BlobRef{Name: TracksName},
		}
		require.NoError(t, bs.Put(ctx, ManifestName, codec.MustMarshal(nil, m)))

		_, _, err := Read(ctx, bs)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("unknown codec", func(t *testing.T) {
		bs := blobstore.NewMemoryStore()
		m, err := Write(ctx, bs, fittedBundle(2, 2))
		require.NoError(t, err)

		m.Codec = "gob"
		require.NoError(t, bs.Put(ctx, ManifestName, codec.MustMarshal(nil, m)))

		_, _, err = Read(ctx, bs)
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestReadLocalStore(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewLocalStore(t.TempDir())

	in := fittedBundle(50, 6)
	_, err := Write(ctx, bs, in, WithCompression(CompressionZSTD))
	require.NoError(t, err)

	out, m, err := Read(ctx, bs)
	require.NoError(t, err)
	assert.Equal(t, CompressionZSTD, m.Compression)
	assert.Equal(t, in.Vectors, out.Vectors)
	assert.Equal(t, in.Row(7), out.Row(7))
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{
		"":     CompressionNone,
		"none": CompressionNone,
		"zstd": CompressionZSTD,
		"lz4":  CompressionLZ4,
	} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseCompression("gzip")
	assert.Error(t, err)
}

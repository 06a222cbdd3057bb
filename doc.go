// Package soundalike recommends musically similar tracks.
//
// Each track is a fixed-length acoustic feature vector with a cluster
// assignment produced by an offline fitting stage (see package fit). The
// Engine answers two kinds of questions:
//
//	// Similar songs for a genre: a random seed track from the category,
//	// ranked against the whole catalogue by cosine similarity.
//	res, _ := eng.RecommendByCategory(ctx, "jazz", 5)
//
//	// Similar songs for a track: the other members of its cluster,
//	// ranked by euclidean distance.
//	res, _ := eng.RecommendByTrack(ctx, "jazz.00042.wav", 5)
//
// # Loading
//
// Engines are built from a feature store or straight from an artifact
// bundle in any blobstore.BlobStore:
//
//	eng, _ := soundalike.Load(ctx, blobstore.NewLocalStore("./model"))
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("soundalike/"))
//	eng, _ := soundalike.Load(ctx, s3Store, soundalike.WithSeed(42))
//
// The store is immutable. A re-fitted bundle is installed with Reload or
// ReloadFrom, which swap it in atomically; calls in flight finish against
// the store they started with.
//
// # Categories
//
// The category of a track is the prefix of its id before the first ".",
// so "jazz.00042.wav" belongs to "jazz". Matching is exact and
// case-sensitive. Use WithSeparator to change the separator.
//
// # Errors
//
// Failures are reported as *SchemaError, *NotFoundError and
// *CategoryNotFoundError, which match ErrSchema, ErrNotFound and
// ErrCategoryNotFound with errors.Is. A negative topN yields
// ErrInvalidTopN; a topN of zero yields an empty result.
//
// # Observability
//
// WithLogger and WithMetricsCollector hook the engine into slog and any
// metrics backend. BasicMetricsCollector keeps in-memory counters.
package soundalike

// Package fit turns raw extractor features into the artifacts the engine
// serves: standard-scaled vectors, k-means cluster assignments and the
// model that produced them.
//
//	raw, _ := artifact.ReadCSV(f)
//	fitted, model, _ := fit.Bundle(ctx, raw, fit.DefaultConfig())
//	_, _ = artifact.Write(ctx, bs, fitted)
//
//	cluster, _ := model.Predict(rawFeatures)
//
// Training is deterministic for a given Config.Seed: restarts run
// concurrently but draw their seeds up front and the winner is chosen by
// inertia, then by restart order.
package fit

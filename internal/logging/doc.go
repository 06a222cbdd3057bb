// Package logging configures zerolog for the soundalike binaries and
// bridges log/slog onto it, so the engine's slog-based Logger and the
// CLI write to one sink in one format.
//
//	zl := logging.New(logging.Config{Level: "debug", Format: "console"})
//	eng, _ := soundalike.Load(ctx, bs,
//		soundalike.WithLogger(soundalike.NewLogger(logging.NewSlogHandler(zl))))
package logging

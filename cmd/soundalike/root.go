package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hupe1980/soundalike"
	"github.com/hupe1980/soundalike/artifact"
	"github.com/hupe1980/soundalike/blobstore"
	"github.com/hupe1980/soundalike/blobstore/minio"
	"github.com/hupe1980/soundalike/blobstore/s3"
	"github.com/hupe1980/soundalike/internal/config"
	"github.com/hupe1980/soundalike/internal/logging"
)

// app is the state shared by all subcommands.
type app struct {
	cfgPath  string
	logLevel string

	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "soundalike",
		Short:         "Recommend similar sounding tracks",
		Long:          "soundalike clusters tracks by their acoustic features and recommends tracks that sound alike.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "config file (default $"+config.PathEnvVar+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level")

	root.AddCommand(
		newImportCmd(a),
		newFitCmd(a),
		newRecommendCmd(a),
		newClustersCmd(a),
		newServeCmd(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	a.log = logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

// engineOptions routes the engine's slog output through zerolog.
func (a *app) engineOptions(extra ...soundalike.Option) []soundalike.Option {
	opts := []soundalike.Option{
		soundalike.WithLogger(soundalike.NewLogger(logging.NewSlogHandler(a.log))),
		soundalike.WithSeparator(a.cfg.Engine.Separator),
	}
	if a.cfg.Engine.Seed != 0 {
		opts = append(opts, soundalike.WithSeed(a.cfg.Engine.Seed))
	}
	return append(opts, extra...)
}

// openStore opens the configured bundle location. With create set, a
// missing minio bucket is created.
func (a *app) openStore(ctx context.Context, create bool) (blobstore.BlobStore, error) {
	ac := a.cfg.Artifacts

	switch ac.Source {
	case "local":
		return blobstore.NewLocalStore(ac.Path), nil
	case "minio":
		mc := a.cfg.MinIO
		st, err := minio.Dial(mc.Endpoint, mc.AccessKey, mc.SecretKey, mc.Secure, ac.Bucket, ac.Prefix)
		if err != nil {
			return nil, err
		}
		if create {
			if err := st.EnsureBucket(ctx); err != nil {
				return nil, fmt.Errorf("ensure bucket %s: %w", ac.Bucket, err)
			}
		}
		return st, nil
	case "s3":
		return s3.New(ctx, ac.Bucket,
			s3.WithPrefix(ac.Prefix),
			s3.WithRegion(a.cfg.S3.Region),
			s3.WithEndpoint(a.cfg.S3.Endpoint),
		)
	default:
		return nil, fmt.Errorf("unknown artifacts source %q", ac.Source)
	}
}

// rawStore is where import writes and fit reads raw bundles.
func (a *app) rawStore(dir string) blobstore.BlobStore {
	if dir == "" {
		dir = filepath.Join(a.cfg.Artifacts.Path, "raw")
	}
	return blobstore.NewLocalStore(dir)
}

func (a *app) compression() (artifact.Compression, error) {
	return artifact.ParseCompression(a.cfg.Artifacts.Compression)
}

// loadEngine loads the configured bundle.
func (a *app) loadEngine(ctx context.Context, extra ...soundalike.Option) (*soundalike.Engine, blobstore.BlobStore, error) {
	bs, err := a.openStore(ctx, false)
	if err != nil {
		return nil, nil, err
	}
	eng, err := soundalike.Load(ctx, bs, a.engineOptions(extra...)...)
	if err != nil {
		return nil, nil, err
	}
	return eng, bs, nil
}

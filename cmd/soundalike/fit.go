package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/soundalike/artifact"
	"github.com/hupe1980/soundalike/fit"
)

func newFitCmd(a *app) *cobra.Command {
	var (
		rawDir   string
		clusters int
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Scale the raw features, cluster them and write the fitted bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg := a.cfg.Fit
			if cmd.Flags().Changed("clusters") {
				cfg.Clusters = clusters
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}

			c, err := a.compression()
			if err != nil {
				return err
			}

			raw, _, err := artifact.Read(ctx, a.rawStore(rawDir))
			if err != nil {
				return fmt.Errorf("read raw bundle: %w", err)
			}

			fitted, model, err := fit.Bundle(ctx, raw, cfg)
			if err != nil {
				return err
			}

			bs, err := a.openStore(ctx, true)
			if err != nil {
				return err
			}
			if _, err := artifact.Write(ctx, bs, fitted, artifact.WithCompression(c)); err != nil {
				return err
			}

			a.log.Info().
				Int("tracks", fitted.Len()).
				Int("clusters", model.K).
				Float64("inertia", model.Inertia).
				Int64("seed", cfg.Seed).
				Msg("model fitted")
			fmt.Fprintf(cmd.OutOrStdout(), "fitted %d tracks into %d clusters (inertia %.4f)\n", fitted.Len(), model.K, model.Inertia)
			return nil
		},
	}

	cmd.Flags().StringVar(&rawDir, "raw", "", "raw bundle directory (default <artifacts.path>/raw)")
	cmd.Flags().IntVarP(&clusters, "clusters", "k", 0, "override fit.clusters")
	cmd.Flags().Int64Var(&seed, "seed", 0, "override fit.seed")
	return cmd
}

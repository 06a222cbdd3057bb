package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/soundalike/artifact"
)

func newImportCmd(a *app) *cobra.Command {
	var rawDir string

	cmd := &cobra.Command{
		Use:   "import <features.csv>",
		Short: "Import extracted features as a raw bundle",
		Long: "import reads the feature extractor's CSV (header row, track id in the first column) " +
			"and writes it as a raw bundle for fit.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.compression()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			b, err := artifact.ReadCSV(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			m, err := artifact.Write(cmd.Context(), a.rawStore(rawDir), b, artifact.WithCompression(c))
			if err != nil {
				return err
			}

			a.log.Info().
				Int("tracks", m.Tracks).
				Int("dim", m.Dim).
				Str("compression", string(m.Compression)).
				Msg("raw bundle written")
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d tracks with %d features\n", m.Tracks, m.Dim)
			return nil
		},
	}

	cmd.Flags().StringVar(&rawDir, "raw", "", "raw bundle directory (default <artifacts.path>/raw)")
	return cmd
}

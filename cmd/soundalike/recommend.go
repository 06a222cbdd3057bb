package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/soundalike"
)

func newRecommendCmd(a *app) *cobra.Command {
	var topN int

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend tracks for a track or a genre",
	}
	cmd.PersistentFlags().IntVarP(&topN, "top", "n", 0, "number of recommendations (default engine.top_n)")

	n := func(cmd *cobra.Command) int {
		if cmd.Flags().Changed("top") {
			return topN
		}
		return a.cfg.Engine.TopN
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "track <track-id>",
		Short: "Rank the tracks of the same cluster by euclidean distance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := a.loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			res, err := eng.RecommendByTrack(cmd.Context(), args[0], n(cmd))
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "genre <name>",
		Aliases: []string{"category"},
		Short:   "Rank all tracks by cosine similarity to a random track of the genre",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := a.loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			res, err := eng.RecommendByCategory(cmd.Context(), args[0], n(cmd))
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	})

	return cmd
}

func printResult(w io.Writer, res *soundalike.RecommendationResult) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	dim := color.New(color.Faint)

	bold.Fprintf(w, "Recommendations for %s", res.SeedID)
	dim.Fprintf(w, " (%s, %s, cluster %d)\n", res.Strategy, res.Metric, res.SeedCluster)

	if len(res.Items) == 0 {
		dim.Fprintln(w, "  no similar tracks")
		return
	}

	for i, it := range res.Items {
		fmt.Fprintf(w, "%3d. ", i+1)
		cyan.Fprintf(w, "%-32s", it.TrackID)
		fmt.Fprintf(w, " %8.4f  %-12s cluster %d\n", it.Score, it.Category, it.Cluster)
	}
}

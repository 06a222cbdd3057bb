package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newClustersCmd(a *app) *cobra.Command {
	var showTracks bool

	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "List the clusters with their dominant genre",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, _, err := a.loadEngine(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			green := color.New(color.FgGreen)

			for _, s := range eng.Clusters() {
				fmt.Fprintf(w, "%3d  ", s.ID)
				green.Fprintf(w, "%-24s", s.Label)
				fmt.Fprintf(w, " %d tracks\n", s.Size)
			}

			if showTracks {
				for _, as := range eng.Assignments() {
					fmt.Fprintf(w, "%s\t%d\n", as.TrackID, as.Cluster)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showTracks, "tracks", false, "also print the cluster of every track")
	return cmd
}

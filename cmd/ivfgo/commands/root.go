package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ivfgo",
	Short: "In-memory IVF vector search",
	Long: `ivfgo - an in-memory approximate nearest-neighbour index.

Vectors are partitioned into lists with k-means; a search scans only the
lists whose centroid is close to the query.

Examples:
  # Serve the HTTP API
  ivfgo serve --config ivfgo.yaml

  # Compare recall and throughput across probe counts
  ivfgo bench --dim 64 --vectors 50000 --lists 128 --nprobe 1,4,16`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

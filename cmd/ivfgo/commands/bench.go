package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/ivfgo"
	"github.com/hupe1980/ivfgo/testutil"
)

type benchParams struct {
	Dim          int
	Vectors      int
	Queries      int
	Lists        int
	Centers      int
	Spread       float32
	K            int
	NProbes      []int
	ProbeRatio   float32
	RefineFactor int
	Seed         int64
}

type benchRow struct {
	NProbe  int
	Recall  float64
	QPS     float64
	Scanned float64
}

var (
	bench      = benchParams{}
	benchProbe string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure recall and QPS on synthetic clustered data",
	Long: `Generate Gaussian clusters, build the index and compare searches against
exact brute force for every --nprobe value.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		probes, err := parseInts(benchProbe)
		if err != nil {
			return fmt.Errorf("--nprobe: %w", err)
		}
		p := bench
		p.NProbes = probes
		return runBench(cmd.Context(), cmd.OutOrStdout(), p)
	},
}

func init() {
	f := benchCmd.Flags()
	f.IntVar(&bench.Dim, "dim", 64, "vector dimension")
	f.IntVar(&bench.Vectors, "vectors", 20000, "number of stored vectors")
	f.IntVar(&bench.Queries, "queries", 100, "number of queries")
	f.IntVar(&bench.Lists, "lists", 64, "number of IVF lists")
	f.IntVar(&bench.Centers, "centers", 32, "number of generated clusters")
	f.Float32Var(&bench.Spread, "spread", 0.1, "standard deviation around each cluster center")
	f.IntVar(&bench.K, "k", 10, "neighbours per query")
	f.StringVar(&benchProbe, "nprobe", "1,2,4,8,16", "comma separated list caps to evaluate")
	f.Float32Var(&bench.ProbeRatio, "probe-ratio", 0.2, "adaptive probe ratio")
	f.IntVar(&bench.RefineFactor, "refine", 1, "candidate heap size as a multiple of k")
	f.Int64Var(&bench.Seed, "seed", 42, "data generator seed")
	rootCmd.AddCommand(benchCmd)
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no values in %q", s)
	}
	return out, nil
}

func runBench(ctx context.Context, out io.Writer, p benchParams) error {
	rng := testutil.NewRNG(p.Seed)
	data := rng.ClusteredVectors(p.Vectors+p.Queries, p.Dim, p.Centers, p.Spread)
	vectors, queries := data[:p.Vectors], data[p.Vectors:]

	metrics := &ivfgo.BasicMetricsCollector{}
	db, err := ivfgo.Open(ctx, p.Dim, p.Lists, ivfgo.WithMetricsCollector(metrics), ivfgo.WithoutAutoBuild())
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.BatchInsert(ctx, vectors); err != nil {
		return err
	}
	start := time.Now()
	if err := db.Build(ctx); err != nil {
		return err
	}
	st := db.Stats().Index
	fmt.Fprintf(out, "built %d vectors into %d lists in %s (iterations=%d converged=%t empty=%d)\n",
		st.Vectors, st.NLists, time.Since(start).Round(time.Millisecond), st.Iterations, st.Converged, st.EmptyLists)

	truth := make([][]ivfgo.Result, len(queries))
	for i, q := range queries {
		truth[i] = testutil.BruteForceSearch(vectors, q, p.K)
	}

	rows, err := benchProbes(ctx, db, queries, truth, p)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "nprobe\trecall@k\tqps\tscanned/query")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%.4f\t%.0f\t%.0f\n", r.NProbe, r.Recall, r.QPS, r.Scanned)
	}
	return tw.Flush()
}

func benchProbes(ctx context.Context, db *ivfgo.DB, queries [][]float32, truth [][]ivfgo.Result, p benchParams) ([]benchRow, error) {
	rows := make([]benchRow, 0, len(p.NProbes))
	for _, nprobe := range p.NProbes {
		opts := []ivfgo.SearchOption{
			ivfgo.WithNProbe(nprobe),
			ivfgo.WithProbeRatio(p.ProbeRatio),
			ivfgo.WithRefineFactor(p.RefineFactor),
		}

		var recall float64
		scanned := 0
		start := time.Now()
		for i, q := range queries {
			res, ex, err := db.Explain(ctx, q, p.K, opts...)
			if err != nil {
				return nil, err
			}
			recall += testutil.ComputeRecall(truth[i], res)
			scanned += ex.Scanned
		}
		elapsed := time.Since(start)

		n := float64(len(queries))
		rows = append(rows, benchRow{
			NProbe:  nprobe,
			Recall:  recall / n,
			QPS:     n / elapsed.Seconds(),
			Scanned: float64(scanned) / n,
		})
	}
	return rows, nil
}

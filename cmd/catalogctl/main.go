// catalogctl is the contributor and CI companion to the catalog service:
// it validates a local tree of catalog documents and reports every
// violation at once, keyed by path, so problems can be fixed in one pass.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agentcatalog/server/internal/catalog"
	"github.com/agentcatalog/server/internal/domain"
	"github.com/agentcatalog/server/internal/fswalk"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		glob    string
		workers int
	)

	rootCmd := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Validate and inspect agent catalog documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&glob, "glob", fswalk.DefaultGlob, "glob selecting catalog documents, relative to the root")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 4, "number of parallel validation workers")

	rootCmd.AddCommand(lintCmd(&glob, &workers), statsCmd(&glob, &workers))
	return rootCmd
}

func lintCmd(glob *string, workers *int) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [dir]",
		Short: "Validate every document under a directory",
		Long: `Lint walks the directory, validates each document's frontmatter, and
prints every violation grouped by document path. The exit status is non-zero
when any document fails, which makes lint suitable as a CI gate.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, total, err := buildIndex(cmd, args, *glob, *workers)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, f := range idx.Failures {
				fmt.Fprintln(out, f.SourcePath)
				for _, reason := range f.Reasons {
					fmt.Fprintln(out, "  -", reason)
				}
			}

			if n := len(idx.Failures); n > 0 {
				return fmt.Errorf("%d of %d documents failed validation", n, total)
			}

			fmt.Fprintf(out, "%d documents validated, 0 failures\n", total)
			return nil
		},
	}
}

func statsCmd(glob *string, workers *int) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [dir]",
		Short: "Print facet counts for a directory of documents",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, total, err := buildIndex(cmd, args, *glob, *workers)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "documents: %d (%d valid, %d failed)\n\n", total, len(idx.Entries), len(idx.Failures))
			printCounts(out, "platform", idx.CountByPlatform())
			printCounts(out, "type", idx.CountByType())
			return nil
		},
	}
}

func buildIndex(cmd *cobra.Command, args []string, glob string, workers int) (*domain.Index, int, error) {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	src := fswalk.Source{Root: root, Glob: glob}
	docs, err := src.Documents(cmd.Context())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to discover documents: %w", err)
	}

	idx, err := catalog.BuildIndexParallel(cmd.Context(), docs, workers)
	if err != nil {
		return nil, 0, err
	}
	return idx, len(docs), nil
}

func printCounts(out io.Writer, facet string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(out, "by %s:\n", facet)
	for _, k := range keys {
		fmt.Fprintf(out, "  %-12s %d\n", k, counts[k])
	}
	fmt.Fprintln(out)
}

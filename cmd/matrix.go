// ABOUTME: Matrix commands for the planner CLI
// ABOUTME: Searches curriculum codes and manages recent searches

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/markalston/maarif-planner/internal/matrix"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/spf13/cobra"
)

var (
	matrixAgeBand string
	matrixClear   bool
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Search the curriculum matrix",
}

var matrixSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search curriculum codes and outcomes",
	Args:  cobra.MinimumNArgs(1),
	Run: run(func(ctx context.Context, w io.Writer, args []string) int {
		return runMatrixSearch(ctx, w, strings.Join(args, " "), matrixAgeBand)
	}),
}

var matrixRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show or clear recent searches",
	Run: run(func(ctx context.Context, w io.Writer, _ []string) int {
		return runMatrixRecent(ctx, w, matrixClear)
	}),
}

func init() {
	rootCmd.AddCommand(matrixCmd)
	matrixCmd.AddCommand(matrixSearchCmd, matrixRecentCmd)
	matrixSearchCmd.Flags().StringVar(&matrixAgeBand, "age-band", "", "Only results for this age band")
	matrixRecentCmd.Flags().BoolVar(&matrixClear, "clear", false, "Forget recent searches")
}

// runMatrixSearch runs one search and returns exit code
func runMatrixSearch(ctx context.Context, w io.Writer, query, ageBand string) int {
	var band models.AgeBand
	if ageBand != "" {
		var err error
		if band, err = models.ParseAgeBand(ageBand); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
	}

	return withApp(ctx, w, func(a *app) int {
		searcher := matrix.NewSearcher(a.client, matrix.NewRecent(a.kv))
		results, err := searcher.Search(ctx, query, band)
		if err != nil {
			if errors.Is(err, matrix.ErrEmptyQuery) {
				fmt.Fprintf(w, "Error: %v\n", err)
				return 2
			}
			return reportError(w, err)
		}

		if IsJSONOutput() {
			data, _ := json.MarshalIndent(results, "", "  ")
			fmt.Fprintln(w, string(data))
			return 0
		}
		if len(results) == 0 {
			fmt.Fprintf(w, "No results for %q.\n", query)
			return 0
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tAREA\tAGE BAND\tTITLE")
		for _, r := range results {
			area := matrix.SubjectArea(r.Key())
			if area == "" {
				area = r.Type
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Key(), area, r.AgeBand.Label(), r.Title)
		}
		tw.Flush()
		return 0
	})
}

// runMatrixRecent lists or clears recent searches and returns exit code
func runMatrixRecent(ctx context.Context, w io.Writer, clear bool) int {
	return withApp(ctx, w, func(a *app) int {
		recent := matrix.NewRecent(a.kv)
		if clear {
			if err := recent.Clear(ctx); err != nil {
				return reportError(w, err)
			}
			fmt.Fprintln(w, "Recent searches cleared.")
			return 0
		}

		queries, err := recent.Load(ctx)
		if err != nil {
			return reportError(w, err)
		}
		if IsJSONOutput() {
			data, _ := json.MarshalIndent(queries, "", "  ")
			fmt.Fprintln(w, string(data))
			return 0
		}
		if len(queries) == 0 {
			fmt.Fprintln(w, "No recent searches.")
			return 0
		}
		for _, q := range queries {
			fmt.Fprintln(w, q)
		}
		return 0
	})
}

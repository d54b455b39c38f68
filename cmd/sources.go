package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solscout/scout-cli/internal/store"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Show the source performance ranking from the latest scan",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		scan, err := st.LatestReport(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Latest scan %s (%s)\n\n", scan.ID, scan.UpdatedAt.Format("2006-01-02 15:04"))
		for _, perf := range scan.Report.SourcePerformance {
			fmt.Printf("%d. %-15s score %5.1f  found %3d  unique %3d  avg quality %5.1f\n",
				perf.Rank, perf.SourceID, perf.PerformanceScore,
				perf.EntitiesFound, perf.UniqueEntities, perf.AvgQualityScore)
		}
		if pairs := scan.Report.ComplementarityPairs; len(pairs) > 0 {
			fmt.Printf("\nbest paired: %s + %s (complementarity %.2f, overlap %.2f)\n",
				pairs[0].SourceA, pairs[0].SourceB, pairs[0].ComplementarityScore, pairs[0].Overlap)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent scans",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		scans, err := st.ListScans(ctx, store.ScanFilter{Limit: 20})
		if err != nil {
			return err
		}
		if len(scans) == 0 {
			fmt.Println("no scans yet")
			return nil
		}
		for _, scan := range scans {
			entities := "-"
			if scan.Report != nil {
				entities = fmt.Sprintf("%d entities", scan.Report.TotalEntities)
			}
			fmt.Printf("%s  %-8s  %s  %s\n",
				scan.CreatedAt.Format("2006-01-02 15:04"), scan.Status, scan.ID, entities)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(historyCmd)
}

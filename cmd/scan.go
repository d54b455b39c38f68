package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solscout/scout-cli/internal/narrative"
	"github.com/solscout/scout-cli/internal/report"
	"github.com/solscout/scout-cli/internal/store"
)

var (
	scanOutJSON     string
	scanOutMarkdown string
	scanOutXLSX     string
	scanNoStore     bool
	scanSummarize   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan cycle across all enabled sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := buildEngine()
		if err != nil {
			return err
		}

		var (
			st     store.Store
			scanID string
		)
		if !scanNoStore {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			scan, err := st.CreateScan(ctx)
			if err != nil {
				return err
			}
			scanID = scan.ID
		}

		rep, err := eng.RunCycle(ctx)
		if err != nil {
			if scanID != "" {
				if ferr := st.FailScan(cmd.Context(), scanID, err.Error()); ferr != nil {
					zap.L().Error("record scan failure", zap.Error(ferr))
				}
			}
			return eris.Wrap(err, "scan cycle")
		}

		if scanSummarize && cfg.Anthropic.Key != "" {
			summary, err := narrative.New(cfg.Anthropic.Key, cfg.Anthropic.Model).Summarize(ctx, rep)
			if err != nil {
				zap.L().Warn("narrative summary unavailable", zap.Error(err))
			} else {
				rep.Insights = append([]string{summary}, rep.Insights...)
			}
		}

		if scanID != "" {
			if err := st.SaveReport(ctx, scanID, rep); err != nil {
				return err
			}
		}

		if scanOutJSON != "" {
			if err := report.WriteJSON(rep, scanOutJSON); err != nil {
				return err
			}
		}
		if scanOutXLSX != "" {
			if err := report.WriteXLSX(rep, scanOutXLSX); err != nil {
				return err
			}
		}
		if scanOutMarkdown != "" {
			if err := report.WriteMarkdown(rep, scanOutMarkdown); err != nil {
				return err
			}
		}

		fmt.Print(report.Markdown(rep))
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanOutJSON, "json", "", "write the report as JSON to this path")
	scanCmd.Flags().StringVar(&scanOutMarkdown, "markdown", "", "write the report as markdown to this path")
	scanCmd.Flags().StringVar(&scanOutXLSX, "xlsx", "", "write the report as a workbook to this path")
	scanCmd.Flags().BoolVar(&scanNoStore, "no-store", false, "skip persisting the scan to the database")
	scanCmd.Flags().BoolVar(&scanSummarize, "summarize", false, "prepend an AI-written summary to the insights")
	rootCmd.AddCommand(scanCmd)
}

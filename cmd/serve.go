package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solscout/scout-cli/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve scan history over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		eng, err := buildEngine()
		if err != nil {
			return err
		}

		srv := server.New(st, eng.RunCycle, cfg.Server)
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

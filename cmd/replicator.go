/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dhanasekaranr/screensync/internal/bootstrap"
	"github.com/dhanasekaranr/screensync/internal/config"
	"github.com/spf13/cobra"
)

var replicatorCmd = &cobra.Command{
	Use:   "replicator",
	Short: "Drain the outbox and replicate pending changes to the secondary database",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config error:", err)
			os.Exit(1)
		}
		if err := bootstrap.RunReplicator(ctx, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "replicator error:", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(replicatorCmd)
}

/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/dhanasekaranr/screensync/internal/bootstrap"
	"github.com/dhanasekaranr/screensync/internal/config"
	"github.com/spf13/cobra"
)

var seedCount int
var seedMenusPer int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the primary database with sample screens and menu items",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config error:", err)
			os.Exit(1)
		}
		if err := bootstrap.Seed(cmd.Context(), cfg, seedCount, seedMenusPer); err != nil {
			fmt.Fprintln(os.Stderr, "seed error:", err)
			os.Exit(1)
		}
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 10, "number of screens to seed")
	seedCmd.Flags().IntVar(&seedMenusPer, "menus-per", 3, "menu items per screen")
	rootCmd.AddCommand(seedCmd)
}

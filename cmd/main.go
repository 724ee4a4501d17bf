package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stock-recommender",
	Short: "A CLI for managing the weekly stock recommendation tracker",
	Long:  `Stock Recommender tracks weekly stock picks, resolves their codes, syncs prices and scores the recommenders...`,
}

func main() {

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "enerdex",
	Short: "Natural-language assistant for a global energy-producer directory",
	Long: `enerdex keeps a directory of energy producers in a local SQLite database
and answers questions about it: grounded chat answers, natural-language
queries translated to read-only SQL, and plain keyword search.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(producerCmd)
	rootCmd.AddCommand(interactionsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

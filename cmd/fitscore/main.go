// Package main provides the fitscore CLI, which extracts structured claims
// from resumes and job descriptions and scores how well they fit.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "fitscore",
	Short:         "Explainable resume to job description fit scoring",
	Long:          "fitscore extracts claims from a resume and a job description, matches every requirement against resume evidence, and composes a capped, explainable score in [0,100].",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML, TOML, or JSON config file (FITSCORE_* env vars override it)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

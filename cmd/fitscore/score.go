package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/observability"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/pipeline"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/schemas"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
	artifacts "github.com/matsha05/recruiter-in-your-pocket-sub007/schemas"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a resume against a job description",
	Long: `Runs the scoring pipeline end-to-end: claim extraction -> requirement matching -> verification of ambiguous matches -> domain gate -> score composition.

Configuration is loaded from --config and FITSCORE_* environment variables.`,
	RunE: runScore,
}

var (
	scoreResume      string
	scoreJD          string
	scoreJSON        bool
	scoreOutput      string
	scoreMetricsAddr string
	scoreVerbose     bool
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreResume, "resume", "r", "", "Path to resume text file (required)")
	scoreCmd.Flags().StringVarP(&scoreJD, "jd", "j", "", "Path to job description text file (required)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print the ScoreResult as JSON instead of tables")
	scoreCmd.Flags().StringVarP(&scoreOutput, "out", "o", "", "Also write the ScoreResult JSON to this file")
	scoreCmd.Flags().StringVar(&scoreMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while scoring (overrides metrics.addr)")
	scoreCmd.Flags().BoolVarP(&scoreVerbose, "verbose", "v", false, "Print pipeline progress to stderr")

	if err := scoreCmd.MarkFlagRequired("resume"); err != nil {
		panic(fmt.Sprintf("failed to mark resume flag as required: %v", err))
	}
	if err := scoreCmd.MarkFlagRequired("jd"); err != nil {
		panic(fmt.Sprintf("failed to mark jd flag as required: %v", err))
	}

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	resumeText, err := readText(scoreResume)
	if err != nil {
		return err
	}
	jdText, err := readText(scoreJD)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	metricsAddr := a.cfg.Metrics.Addr
	if cmd.Flags().Changed("metrics-addr") {
		metricsAddr = scoreMetricsAddr
	}
	if metricsAddr != "" {
		a.serveMetrics(metricsAddr)
	}

	ctx := cmd.Context()
	client, err := a.client(ctx)
	if err != nil {
		return err
	}

	var onProgress pipeline.ProgressCallback
	if scoreVerbose {
		onProgress = func(event pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", event.Step, event.Message)
		}
	}

	engine, err := a.engine(ctx, client, onProgress)
	if err != nil {
		return err
	}

	result, err := engine.ScoreText(ctx, resumeText, jdText)
	if err != nil {
		return userFacing(err)
	}

	if err := validateScore(result); err != nil {
		return err
	}

	if scoreOutput != "" {
		if err := writeJSON(cmd.OutOrStdout(), scoreOutput, result); err != nil {
			return err
		}
	}
	if scoreJSON {
		return writeJSON(cmd.OutOrStdout(), "", result)
	}
	return observability.NewPrinter(cmd.OutOrStdout()).PrintScore(result)
}

// validateScore checks the result against the published score_result schema
func validateScore(result *types.ScoreResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal score result: %w", err)
	}
	if err := schemas.Validate(artifacts.ScoreResult, payload); err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			return fmt.Errorf("generated score result is invalid: %w", err)
		}
		return fmt.Errorf("could not validate score result: %w", err)
	}
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/observability"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured claims from a resume or job description",
	Long:  "Extract a resume or job description text file into its claims JSON. Identical documents are served from the extraction cache.",
	RunE:  runExtract,
}

var (
	extractKind    string
	extractInput   string
	extractOutput  string
	extractSummary bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractKind, "kind", "k", "", "Document kind: resume or jd (required)")
	extractCmd.Flags().StringVarP(&extractInput, "in", "i", "", "Path to the document text file (required)")
	extractCmd.Flags().StringVarP(&extractOutput, "out", "o", "", "Path to output JSON file (default stdout)")
	extractCmd.Flags().BoolVar(&extractSummary, "summary", false, "Print a human-readable summary instead of JSON when writing to stdout")

	if err := extractCmd.MarkFlagRequired("kind"); err != nil {
		panic(fmt.Sprintf("failed to mark kind flag as required: %v", err))
	}
	if err := extractCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	kind := types.DocumentKind(extractKind)
	if !kind.Valid() {
		return fmt.Errorf("--kind must be %q or %q, got %q", types.KindResume, types.KindJD, extractKind)
	}

	text, err := readText(extractInput)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	client, err := a.client(ctx)
	if err != nil {
		return err
	}

	extraction, err := a.extractor(ctx, client).Extract(ctx, text, kind)
	if err != nil {
		return userFacing(err)
	}

	if extractSummary && extractOutput == "" {
		printer := observability.NewPrinter(cmd.OutOrStdout())
		if kind == types.KindResume {
			printer.PrintResume(extraction.Resume)
		} else {
			printer.PrintJD(extraction.JD)
		}
		return nil
	}

	var claims any = extraction.Resume
	if kind == types.KindJD {
		claims = extraction.JD
	}
	if err := writeJSON(cmd.OutOrStdout(), extractOutput, claims); err != nil {
		return err
	}
	if extractOutput != "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully extracted %s claims to %s\n", kind, extractOutput)
	}
	return nil
}

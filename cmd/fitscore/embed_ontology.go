package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/ontology"
)

var embedOntologyCmd = &cobra.Command{
	Use:   "embed-ontology",
	Short: "Precompute embeddings for an ontology catalog",
	Long:  "Reads a JSON catalog of skills, technologies, and abilities, embeds each entry with the configured embedding model, and writes the dataset loaded at startup. Paths ending in .gz are gzip-compressed.",
	RunE:  runEmbedOntology,
}

var (
	embedOntologyInput     string
	embedOntologyOutput    string
	embedOntologyBatchSize int
)

func init() {
	embedOntologyCmd.Flags().StringVarP(&embedOntologyInput, "in", "i", "", "Path to catalog JSON without embeddings (required)")
	embedOntologyCmd.Flags().StringVarP(&embedOntologyOutput, "out", "o", "", "Path to embedded ontology output (required)")
	embedOntologyCmd.Flags().IntVar(&embedOntologyBatchSize, "batch-size", 100, "Entries per embedding request")

	if err := embedOntologyCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}
	if err := embedOntologyCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(embedOntologyCmd)
}

func runEmbedOntology(cmd *cobra.Command, _ []string) error {
	entries, err := ontology.LoadCatalog(embedOntologyInput)
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

	if err := ontology.EmbedCatalog(ctx, entries, client, embedOntologyBatchSize); err != nil {
		return fmt.Errorf("failed to embed ontology: %w", err)
	}
	if err := ontology.Validate(entries); err != nil {
		return fmt.Errorf("embedded ontology is invalid: %w", err)
	}
	if err := ontology.Save(embedOntologyOutput, entries); err != nil {
		return err
	}

	a.log.Info("embedded ontology",
		zap.Int("entries", len(entries)),
		zap.Int("dimension", len(entries[0].Embedding)),
		zap.String("model", a.cfg.LLM.EmbeddingModel))
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully embedded %d entries to %s\n", len(entries), embedOntologyOutput)
	return nil
}

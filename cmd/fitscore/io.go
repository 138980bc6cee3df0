package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/claims"
)

func readText(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input file %s: %w", path, err)
	}
	return string(content), nil
}

// writeJSON writes v as indented JSON to path, or to w when path is empty
func writeJSON(w io.Writer, path string, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if path == "" {
		_, err := fmt.Fprintln(w, string(jsonBytes))
		return err
	}

	// Ensure output directory exists
	outputDir := filepath.Dir(path)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
		}
	}
	if err := os.WriteFile(path, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	return nil
}

// userFacing rewords extraction failures the way a reader of the document expects
func userFacing(err error) error {
	var extractErr *claims.ExtractionError
	if errors.As(err, &extractErr) {
		return fmt.Errorf("could not analyze this document: %w", err)
	}
	return err
}

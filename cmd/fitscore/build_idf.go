package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/idf"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/ontology"
)

var buildIDFCmd = &cobra.Command{
	Use:   "build-idf",
	Short: "Build the IDF term weight artifact from a job description corpus",
	Long:  "Counts document frequencies over every .txt and .md file under the corpus directory. Ontology names and aliases are counted as whole phrases.",
	RunE:  runBuildIDF,
}

var (
	buildIDFCorpus   string
	buildIDFOntology string
	buildIDFOutput   string
)

func init() {
	buildIDFCmd.Flags().StringVarP(&buildIDFCorpus, "corpus", "c", "", "Directory of job description text files (required)")
	buildIDFCmd.Flags().StringVar(&buildIDFOntology, "ontology", "", "Ontology catalog whose names and aliases become phrase terms")
	buildIDFCmd.Flags().StringVarP(&buildIDFOutput, "out", "o", "", "Path to output IDF JSON file (required)")

	if err := buildIDFCmd.MarkFlagRequired("corpus"); err != nil {
		panic(fmt.Sprintf("failed to mark corpus flag as required: %v", err))
	}
	if err := buildIDFCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(buildIDFCmd)
}

func runBuildIDF(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	corpus, err := readCorpus(buildIDFCorpus)
	if err != nil {
		return err
	}
	if len(corpus) == 0 {
		return fmt.Errorf("no .txt or .md documents found under %s", buildIDFCorpus)
	}

	var vocabulary []string
	if buildIDFOntology != "" {
		entries, err := ontology.LoadCatalog(buildIDFOntology)
		if err != nil {
			return err
		}
		for _, e := range entries {
			vocabulary = append(vocabulary, e.Name)
			vocabulary = append(vocabulary, e.Aliases...)
		}
	}

	index := idf.Build(corpus, vocabulary)
	if err := index.Save(buildIDFOutput); err != nil {
		return err
	}

	a.log.Info("built idf index",
		zap.Int("documents", index.Documents()),
		zap.Int("vocabulary", len(vocabulary)),
		zap.String("out", buildIDFOutput))
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully built IDF index from %d documents to %s\n", index.Documents(), buildIDFOutput)
	return nil
}

// readCorpus returns the contents of every text document under dir, in lexical path order
func readCorpus(dir string) ([]string, error) {
	var corpus []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
		default:
			return nil
		}
		text, err := readText(path)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) != "" {
			corpus = append(corpus, text)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", dir, err)
	}
	return corpus, nil
}

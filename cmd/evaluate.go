package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Measure retrieval quality against a labeled question set",
	Long: `The evaluate command runs each question of a labeled set through the
retriever and reports how often the expected source document shows up
in the retrieved chunks.

The input file is a JSON array of cases:
  [{"question": "...", "expected_sources": ["report.pdf"]}]`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringP("input", "i", "", "path to the labeled question set (required)")
	evaluateCmd.MarkFlagRequired("input")
}

type evaluationCase struct {
	Question        string   `json:"question"`
	ExpectedSources []string `json:"expected_sources"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read question set: %w", err)
	}

	var cases []evaluationCase
	if err := json.Unmarshal(raw, &cases); err != nil {
		return fmt.Errorf("failed to parse question set: %w", err)
	}
	if len(cases) == 0 {
		return fmt.Errorf("question set is empty")
	}

	provider, err := newLLMProvider()
	if err != nil {
		return err
	}
	r := newRetriever(provider, newWeaviateSDK())
	topK := viper.GetInt("rag.top_k")

	fmt.Printf("Evaluating %d question(s), top %d chunks each\n", len(cases), topK)
	bar := progressbar.Default(int64(len(cases)))

	ctx := cmd.Context()
	var hits, failures int
	var misses []string
	for _, c := range cases {
		chunks, err := r.Retrieve(ctx, c.Question, topK)
		if err != nil {
			failures++
			bar.Add(1)
			continue
		}

		retrieved := make(map[string]bool, len(chunks))
		for _, chunk := range chunks {
			retrieved[chunk.Source] = true
		}

		found := false
		for _, source := range c.ExpectedSources {
			if retrieved[source] {
				found = true
				break
			}
		}
		if found {
			hits++
		} else {
			misses = append(misses, c.Question)
		}
		bar.Add(1)
	}

	answered := len(cases) - failures
	fmt.Printf("\nHit rate: %d/%d", hits, answered)
	if answered > 0 {
		fmt.Printf(" (%.1f%%)", float64(hits)/float64(answered)*100)
	}
	fmt.Println()
	if failures > 0 {
		fmt.Printf("Retrieval errors: %d\n", failures)
	}
	for _, q := range misses {
		fmt.Printf("  miss: %s\n", q)
	}

	if failures == len(cases) {
		return fmt.Errorf("all retrievals failed")
	}
	return nil
}

package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docintel",
	Short: "Question answering over a folder of PDF documents",
	Long: `docintel indexes PDF documents into a vector store and answers
questions about them with retrieval-augmented generation.

Typical usage:
  docintel index --dir documents
  docintel ask`,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// The LLM credential is conventionally kept in a .env file.
	// A missing file is fine; the variable may come from the environment.
	_ = godotenv.Load()

	settingDefaultConfig()
}

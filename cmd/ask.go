package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docintel/src/core/answerflow"
	"docintel/src/core/qa"
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask questions about the indexed documents",
	Long: `The ask command answers questions against the indexed documents.
Without flags it starts an interactive session; with --question it
answers a single question and exits.`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringP("question", "q", "", "answer a single question and exit")
}

func runAsk(cmd *cobra.Command, args []string) error {
	provider, err := newLLMProvider()
	if err != nil {
		return err
	}

	flow := answerflow.NewAnswerFlow(
		newRetriever(provider, newWeaviateSDK()),
		provider,
		answerflow.WithTopK(viper.GetInt("rag.top_k")),
	)

	queryLog, err := newQueryLog()
	if err != nil {
		return err
	}

	// No chat persistence on the CLI path; history belongs to the server.
	var audit qa.AuditLog
	if queryLog != nil {
		audit = queryLog
	}
	service := qa.NewService(flow, nil, audit)

	sessionID := uuid.New().String()
	ctx := cmd.Context()

	if question, _ := cmd.Flags().GetString("question"); question != "" {
		answer, err := service.Ask(ctx, sessionID, question)
		if err != nil {
			return err
		}
		printAnswer(answer)
		return nil
	}

	fmt.Println("Ask questions about your documents. Type 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYour question: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "quit", "exit", "q":
			return nil
		case "":
			fmt.Println("Please enter a question.")
			continue
		}

		answer, err := service.Ask(ctx, sessionID, question)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printAnswer(answer)
	}

	return scanner.Err()
}

func printAnswer(answer *qa.Answer) {
	divider := strings.Repeat("-", 60)

	fmt.Println("\n" + divider)
	fmt.Println("ANSWER:")
	fmt.Println(divider)
	fmt.Println(answer.Answer)

	fmt.Printf("\nConfidence: %s\n", answer.Confidence)
	fmt.Printf("Sources Used: %d document chunks\n", answer.NumSources)
	fmt.Printf("Files Referenced: %s\n", strings.Join(answer.SourceFiles, ", "))
	fmt.Println(divider)
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"docrag/internal/adapter/validator"
	"docrag/internal/usecase"
)

var (
	askDataset string
	askText    string
	askStrict  bool
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Generate a validated answer from a dataset",
	Long: `Generate an answer to a question using retrieved passages as the only
source material. Every answer is validated for grounding before it is
shown; rejected answers are replaced with a refusal.

Examples:
  docrag ask --dataset support -q "how do I reset my vpn token?"
  docrag ask --dataset support -q "what is the refund window?" --strict`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askDataset, "dataset", "", "dataset to answer from (required)")
	askCmd.Flags().StringVarP(&askText, "question", "q", "", "question to answer (required)")
	askCmd.Flags().BoolVar(&askStrict, "strict", false, "reject flagged answers (overrides config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("dataset")
	askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	llmClient, err := newLLM()
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}

	strict := cfg.Validation.Strict
	if cmd.Flags().Changed("strict") {
		strict = askStrict
	}

	ask := usecase.NewAnswerUseCase(
		app.search,
		llmClient,
		validator.NewGroundingValidator(llmClient, nil),
		cfg.Search.TopK,
		strict,
		nil,
	)

	result, err := ask.Answer(cmd.Context(), askDataset, askText)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(result.Answer)
	fmt.Println()

	v := result.Validation
	fmt.Printf("Validation: %s (confidence %.2f", result.Recommendation, v.Confidence)
	if v.IsGrounded {
		fmt.Printf(", grounded")
	}
	fmt.Println(")")
	for _, c := range v.Concerns {
		fmt.Printf("  - %s\n", c)
	}

	if !result.Refused && len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, s := range result.Sources {
			fmt.Printf("  [%d] %s (score: %.2f)\n", i+1, s.Unit.UnitID(), s.Score)
		}
	}

	return nil
}

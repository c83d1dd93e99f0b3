// Package categorize handles the ad-hoc categorization command
package categorize

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/cmd/root"
	"fintrack/internal/categorize"
	"fintrack/internal/models"
	"fintrack/internal/normalize"
)

var (
	label  string
	amount string
	date   string
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize a single transaction label",
	Long: `Categorize runs one label through the rule set and, when enabled, the AI
classifier, and prints the decision. Useful for checking what a rule does.`,
	RunE: categorizeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&label, "label", "l", "", "Transaction label (required)")
	Cmd.Flags().StringVarP(&amount, "amount", "a", "0.00", "Transaction amount")
	Cmd.Flags().StringVarP(&date, "date", "t", "", "Transaction date (YYYY-MM-DD)")
	_ = Cmd.MarkFlagRequired("label")
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root.Log.Info("Categorize command called")

	amt, err := models.ParseAmount(amount)
	if err != nil {
		return fmt.Errorf("parsing amount: %w", err)
	}
	when := time.Now()
	if date != "" {
		when, err = time.Parse(models.DateLayout, date)
		if err != nil {
			return fmt.Errorf("parsing date: %w", err)
		}
	}

	app, err := root.OpenApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	normalized := normalize.Normalize(label)
	decision, err := app.Single.Categorize(ctx, label, normalized, amt, when)
	if err != nil {
		return err
	}

	fmt.Printf("Label:    %s\n", normalized)
	fmt.Printf("Category: %s\n", decision.Category)
	fmt.Printf("Source:   %s\n", decision.Source)
	if decision.Source == categorize.SourceRule {
		fmt.Printf("Rule:     #%d\n", decision.RuleID)
	}
	return nil
}

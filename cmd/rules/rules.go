// Package rules handles the learning-rule management commands
package rules

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fintrack/cmd/root"
	"fintrack/internal/models"
	"fintrack/internal/rules"
)

var (
	pattern  string
	category string
	priority int
	literal  bool
)

// Cmd represents the rules command
var Cmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage learning rules",
	Long:  `Rules lists, adds and deletes the categorization rules applied at import.`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in matching order",
	RunE:  listFunc,
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a rule",
	RunE:  addFunc,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a rule by id",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteFunc,
}

func init() {
	addCmd.Flags().StringVarP(&pattern, "pattern", "p", "", "Rule pattern, matched case-insensitively (required)")
	addCmd.Flags().StringVarP(&category, "category", "c", "", "Category to assign (required)")
	addCmd.Flags().IntVar(&priority, "priority", models.DefaultLearnedPriority, "Rule priority, higher wins")
	addCmd.Flags().BoolVar(&literal, "literal", false, "Escape the pattern so it matches as plain text")
	_ = addCmd.MarkFlagRequired("pattern")
	_ = addCmd.MarkFlagRequired("category")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(deleteCmd)
}

func listFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := root.OpenApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	stored, err := app.Store.ListRules(ctx)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		fmt.Println("No rules defined")
		return nil
	}
	for _, r := range stored {
		fmt.Printf("#%-4d prio %2d  %-30s -> %s\n", r.ID, r.Priority, r.Pattern, r.Category)
	}
	return nil
}

func addFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if literal {
		pattern = rules.EscapeLiteral(pattern)
	}
	if err := rules.ValidatePattern(pattern); err != nil {
		return err
	}

	app, err := root.OpenApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.Catalog.Has(category) {
		return fmt.Errorf("unknown category %q", category)
	}

	rule := &models.LearningRule{Pattern: pattern, Category: category, Priority: priority}
	if _, err := app.Store.CreateRule(ctx, rule); err != nil {
		return err
	}
	app.Matcher.Invalidate()

	fmt.Printf("Created rule #%d\n", rule.ID)
	return nil
}

func deleteFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid rule id %q", args[0])
	}

	app, err := root.OpenApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Store.DeleteRule(ctx, id); err != nil {
		return err
	}
	app.Matcher.Invalidate()

	fmt.Printf("Deleted rule #%d\n", id)
	return nil
}

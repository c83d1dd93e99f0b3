// Package validate handles the transaction validation commands
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/cmd/root"
	"fintrack/internal/validation"
)

var (
	ids         string
	category    string
	member      string
	beneficiary string
	tags        []string
	remember    bool
	pattern     string
)

// Cmd represents the validate command
var Cmd = &cobra.Command{
	Use:   "validate",
	Short: "Confirm pending transactions",
	Long: `Validate marks pending transactions as confirmed with a category and
optional attributes. All transactions in one call are updated atomically.
With --remember, a rule is learned so future imports match automatically.`,
	RunE: validateFunc,
}

var ungroupCmd = &cobra.Command{
	Use:   "ungroup <id>",
	Short: "Permanently exclude a transaction from grouping",
	Args:  cobra.ExactArgs(1),
	RunE:  ungroupFunc,
}

func init() {
	Cmd.Flags().StringVar(&ids, "ids", "", "Comma-separated transaction ids (required)")
	Cmd.Flags().StringVarP(&category, "category", "c", "", "Validated category (required)")
	Cmd.Flags().StringVarP(&member, "member", "m", "", "Household member")
	Cmd.Flags().StringVarP(&beneficiary, "beneficiary", "b", "", "Beneficiary")
	Cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags to attach")
	Cmd.Flags().BoolVar(&remember, "remember", false, "Learn a rule from the first transaction's label")
	Cmd.Flags().StringVar(&pattern, "pattern", "", "Pattern for the learned rule (defaults to the transaction label)")
	_ = Cmd.MarkFlagRequired("ids")
	_ = Cmd.MarkFlagRequired("category")

	Cmd.AddCommand(ungroupCmd)
}

func parseIDs(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid transaction id %q", p)
		}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no transaction ids given")
	}
	return out, nil
}

func validateFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root.Log.Info("Validate command called")

	parsed, err := parseIDs(ids)
	if err != nil {
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

	requests := make([]validation.Request, 0, len(parsed))
	for i, id := range parsed {
		req := validation.Request{
			ID:          id,
			Category:    category,
			Member:      member,
			Beneficiary: beneficiary,
			Tags:        tags,
		}
		// The rule is learned once, from the first transaction.
		if remember && i == 0 {
			req.RememberPattern = true
			req.Pattern = pattern
		}
		requests = append(requests, req)
	}

	v := validation.New(app.Store, app.Matcher, root.Log)
	if err := v.Validate(ctx, requests); err != nil {
		return err
	}

	fmt.Printf("Validated %d transactions as %s\n", len(parsed), category)
	return nil
}

func ungroupFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid transaction id %q", args[0])
	}

	app, err := root.OpenApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	v := validation.New(app.Store, app.Matcher, root.Log)
	if err := v.Ungroup(ctx, id); err != nil {
		return err
	}

	fmt.Printf("Transaction #%d excluded from grouping\n", id)
	return nil
}

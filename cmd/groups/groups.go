// Package groups handles the group listing command
package groups

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/cmd/root"
	"fintrack/internal/grouping"
)

var singletons bool

// Cmd represents the groups command
var Cmd = &cobra.Command{
	Use:   "groups",
	Short: "List groups of pending transactions",
	Long: `Groups clusters pending transactions by normalized label so recurring
merchants can be validated in one pass. Checks only group on identical
amounts; manually ungrouped transactions stay alone.`,
	RunE: groupsFunc,
}

func init() {
	Cmd.Flags().BoolVar(&singletons, "singletons", false, "Also list manually ungrouped transactions")
}

func groupsFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root.Log.Info("Groups command called")

	app, err := root.OpenApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	pending, err := app.Store.ListPending(ctx)
	if err != nil {
		return err
	}
	result := grouping.Group(pending)

	shown := 0
	for _, stat := range result.Stats() {
		if stat.Singleton && !singletons {
			continue
		}
		fmt.Printf("%-40s  %3d transactions  last %s  max %s\n",
			stat.Key, stat.Count, stat.LastDate.Format("2006-01-02"), stat.MaxAmount.StringFixed(2))
		shown++
	}
	if shown == 0 {
		fmt.Println("No groups to show")
	}
	return nil
}

// Package ingest handles the statement import command
package ingest

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fintrack/cmd/root"
	"fintrack/internal/importer"
	"fintrack/internal/logging"
	"fintrack/internal/models"
	"fintrack/internal/statementparser"
)

var (
	inputFile string
	generic   bool
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import a bank statement CSV export",
	Long: `Import parses a statement CSV, drops transactions already stored and saves
the rest as pending with a suggested category.`,
	RunE: importFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "file", "f", "", "Statement CSV file (required)")
	Cmd.Flags().BoolVar(&generic, "generic", false, "Use the configured column mapping instead of the Bourso preset")
	_ = Cmd.MarkFlagRequired("file")
}

func importFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root.Log.WithField(logging.FieldFile, inputFile).Info("Import command called")

	var rows []models.RawTransaction
	var err error
	if generic {
		file, openErr := os.Open(inputFile) // #nosec G304
		if openErr != nil {
			return fmt.Errorf("opening statement file: %w", openErr)
		}
		defer func() {
			if err := file.Close(); err != nil {
				root.Log.WithError(err).Warn("Failed to close statement file")
			}
		}()
		mapping := statementparser.Mapping{
			Delimiter:     []rune(root.Cfg.Import.Delimiter)[0],
			DateColumn:    root.Cfg.Import.DateColumn,
			LabelColumn:   root.Cfg.Import.LabelColumn,
			AmountColumn:  root.Cfg.Import.AmountColumn,
			AccountColumn: root.Cfg.Import.AccountColumn,
		}
		rows, err = statementparser.ParseGeneric(file, mapping, root.Log)
	} else {
		rows, err = statementparser.ParseFile(inputFile, root.Log)
	}
	if err != nil {
		return err
	}

	app, err := root.OpenApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	imp := importer.New(app.Store, app.Categorizer, root.Log)
	stats, err := imp.ImportBatch(ctx, rows)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d of %d transactions (%d duplicates)\n",
		stats.Imported, stats.Received, stats.Duplicates)
	fmt.Printf("Categorized: %d by rules, %d by AI, %d left uncategorized\n",
		stats.RuleMatched, stats.AISuggested, stats.Uncategorized)
	return nil
}

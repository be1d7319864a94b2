package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/ingest"
)

var importSchema string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import content into a database",
}

var importSuttasCmd = &cobra.Command{
	Use:   "suttas <file.jsonl>",
	Short: "Import sutta records, one JSON object per line",
	Long: `Imports sutta records and indexes them. Records of the same sutta are
merged: a segments record replaces an HTML one, a root text replaces other
records, reference and variant copies are skipped and comments are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema := common.SchemaName(importSchema)
		if schema != common.AppData && schema != common.UserData {
			return fmt.Errorf("cannot import into %q, expected %s or %s", importSchema, common.AppData, common.UserData)
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := ingest.NewImporter(a.store, a.indexes).ImportSuttasFile(ctx, args[0], schema)
		if err != nil {
			return err
		}
		m := stats.Merge
		cmd.Printf("records: %d, added: %d, replaced: %d, known duplicates: %d, unknown duplicates: %d, ignored: %d\n",
			m.Total, m.Added, m.Replaced, m.KnownDuplicate, m.UnknownDup, m.Ignored)
		cmd.Printf("inserted: %d, updated: %d, kept stored: %d\n", stats.Inserted, stats.Updated, stats.Kept)
		return nil
	},
}

func init() {
	importSuttasCmd.Flags().StringVar(&importSchema, "schema", string(common.UserData), "database to import into")
	importCmd.AddCommand(importSuttasCmd)
	rootCmd.AddCommand(importCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/results"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <word>",
	Short: "Find the DPD headwords or roots of an inflected or compound word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.store.HasDpd() {
			return fmt.Errorf("%w: the DPD database is not installed", common.ErrDataSourceUnavailable)
		}

		word := args[0]
		rows, stage, err := a.svc.Resolver().LookupStaged(ctx, word)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			cmd.Printf("no headwords for %q\n", word)
		} else {
			cmd.Printf("found by %s:\n", stage)
		}
		for _, r := range rows {
			res := results.FromRow(r, "")
			cmd.Printf("  %s\t%s\t%s\n", res.Uid, res.Title, results.StripTags(res.Snippet))
		}

		variants, err := a.svc.Resolver().DeconstructorVariants(ctx, word)
		if err != nil {
			return err
		}
		for _, v := range variants {
			cmd.Printf("deconstructor: %s\n", v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

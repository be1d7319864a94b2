package main

import (
	"github.com/spf13/cobra"
)

var indexOnlyIfEmpty bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and inspect the fulltext indexes",
}

var indexCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Index the suttas and dictionary words of every language",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.indexes.IndexAll(cmd.Context(), indexOnlyIfEmpty)
	},
}

var indexReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Delete the indexes and build them again",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.indexes.OpenAll(ctx, true); err != nil {
			return err
		}
		return a.indexes.IndexAll(ctx, false)
	},
}

var indexSuttasLangCmd = &cobra.Command{
	Use:   "suttas-lang <lang>",
	Short: "Index the suttas of one language",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.indexes.IndexAllSuttasLang(cmd.Context(), args[0], indexOnlyIfEmpty)
	},
}

var indexDictWordsLangCmd = &cobra.Command{
	Use:   "dict-words-lang <lang>",
	Short: "Index the dictionary words of one language",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.indexes.IndexAllDictWordsLang(cmd.Context(), args[0], indexOnlyIfEmpty)
	},
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the document count of every index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		for _, s := range a.indexes.Status() {
			cmd.Printf("%s\t%s\t%d\n", s.Area, s.Lang, s.DocCount)
		}
		if a.indexes.HasEmptyIndex() {
			cmd.Println("some mandatory indexes are empty, run: simsapa index create")
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{indexCreateCmd, indexSuttasLangCmd, indexDictWordsLangCmd} {
		c.Flags().BoolVar(&indexOnlyIfEmpty, "only-if-empty", false, "skip indexes which already have documents")
	}
	indexCmd.AddCommand(indexCreateCmd, indexReindexCmd, indexSuttasLangCmd, indexDictWordsLangCmd, indexStatusCmd)
	rootCmd.AddCommand(indexCmd)
}

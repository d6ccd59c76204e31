package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"buildlens/internal/classify"
	"buildlens/internal/diag"
	"buildlens/internal/fix"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List issue categories and which of them are fixed automatically",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		auto := color.New(color.FgGreen)
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Category", "Auto-fix", "Default suggestion"})
		for _, c := range diag.Categories() {
			mark := "-"
			if fix.Supported(c) {
				mark = auto.Sprint("yes")
			}
			t.AppendRow(table.Row{c.String(), mark, classify.Suggest(c, classify.Params{})})
		}
		t.Render()
		fmt.Fprintf(cmd.OutOrStdout(), "%d categories, %d with an automatic fix\n", diag.CategoryCount, len(fix.SupportedCategories()))
		return nil
	},
}

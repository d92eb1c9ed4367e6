package commands

import (
	"time"

	"seoassist-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit *int

func init() {
	historyLimit = historyCmd.Flags().Int("limit", 20, "The maximum amount of reports to list.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "List previously generated reports, newest first.",
	Run: func(cmd *cobra.Command, args []string) {
		service := newResearch(readConfig())

		reports, err := service.History(cmd.Context(), *historyLimit)
		if err != nil {
			serviceutil.Fatal("list reports", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"slug", "kind", "keyword", "created"})
		for _, report := range reports {
			t.AppendRow(table.Row{
				report.Slug,
				report.Kind,
				report.Keyword,
				report.CreatedAt.Format(time.DateTime),
			})
		}
		t.Render()
	},
}

package commands

import (
	"fmt"
	"strings"

	"seoassist-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan <keyword>",
	Short: "Build a content strategy of topic clusters around a keyword.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service := newResearch(readConfig())

		report, err := service.PlanContent(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("plan content", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"topic", "intent", "titles"})
		for _, cluster := range report.Clusters {
			t.AppendRow(table.Row{cluster.Topic, cluster.Intent, strings.Join(cluster.Titles, "\n")})
		}
		t.Render()

		fmt.Println(report.Summary)
	},
}

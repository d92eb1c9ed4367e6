package commands

import (
	"fmt"
	"strings"

	"seoassist-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(competitionCmd)
}

var competitionCmd = &cobra.Command{
	Use:   "competition <keyword>",
	Short: "Score how hard it is to rank for a keyword.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service := newResearch(readConfig())

		report, err := service.ScoreCompetition(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("score competition", err)
		}

		t := newTable()
		t.AppendRow(table.Row{"keyword", report.Keyword})
		t.AppendRow(table.Row{"score", fmt.Sprintf("%d/100", report.Score)})
		t.AppendRow(table.Row{"tier", report.Tier})
		t.AppendRow(table.Row{"rationale", report.Rationale})
		t.AppendRow(table.Row{"competitors", strings.Join(report.TopCompetitors, "\n")})
		t.AppendRow(table.Row{"alternatives", strings.Join(report.EasierAlternatives, "\n")})
		t.Render()
	},
}

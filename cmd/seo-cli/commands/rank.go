package commands

import (
	"fmt"
	"strings"

	"seoassist-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rankCmd)
}

var rankCmd = &cobra.Command{
	Use:   "rank <keyword> <url>",
	Short: "Benchmark how well a blog post can rank for a keyword.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		service := newResearch(readConfig())

		ranking, err := service.RankBlog(cmd.Context(), args[0], args[1])
		if err != nil {
			serviceutil.Fatal("rank blog", err)
		}

		t := newTable()
		t.AppendRow(table.Row{"keyword", ranking.Keyword})
		t.AppendRow(table.Row{"url", ranking.Url})
		t.AppendRow(table.Row{"score", fmt.Sprintf("%d/100", ranking.Score)})
		t.AppendRow(table.Row{"title", ranking.Profile.Title})
		t.AppendRow(table.Row{"words", ranking.Profile.WordCount})
		t.AppendRow(table.Row{"headings", ranking.Profile.HeadingCount})
		t.AppendRow(table.Row{"links", ranking.Profile.LinkCount})
		t.AppendRow(table.Row{"keyword hits", ranking.Profile.KeywordHits})
		t.AppendRow(table.Row{"strengths", strings.Join(ranking.Strengths, "\n")})
		t.AppendRow(table.Row{"weaknesses", strings.Join(ranking.Weaknesses, "\n")})
		t.AppendRow(table.Row{"actions", strings.Join(ranking.Actions, "\n")})
		t.Render()
	},
}

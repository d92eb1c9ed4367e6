package commands

import (
	"fmt"

	"seoassist-backend/lib/proxyfetch"
	"seoassist-backend/lib/serviceutil"
	"seoassist-backend/services/suggest"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(suggestCmd)
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <keyword>",
	Short: "Expand a keyword into ranked autocomplete suggestions.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		service := newSuggest(cfg.Suggest, proxyfetch.NewFetcher(proxyfetch.DefaultConfig()))

		suggestions, err := service.Expand(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("expand keyword", err)
		}
		renderSuggestions(suggestions)
	},
}

func renderSuggestions(suggestions []suggest.Suggestion) {
	t := newTable()
	t.AppendHeader(table.Row{"phrase", "seed", "relevance"})
	for _, s := range suggestions {
		t.AppendRow(table.Row{s.Phrase, s.Seed, fmt.Sprintf("%.3f", s.Relevance)})
	}
	t.Render()
}

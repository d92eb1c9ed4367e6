package commands

import (
	"seoassist-backend/lib/proxyfetch"
	"seoassist-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(questionsCmd)
}

var questionsCmd = &cobra.Command{
	Use:   "questions <keyword>",
	Short: "List the questions and comparisons people search around a keyword.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		service := newSuggest(cfg.Suggest, proxyfetch.NewFetcher(proxyfetch.DefaultConfig()))

		suggestions, err := service.Questions(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("gather questions", err)
		}
		renderSuggestions(suggestions)
	},
}

package commands

import (
	"log/slog"

	"seoassist-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(emailCmd)
}

var emailCmd = &cobra.Command{
	Use:   "email <slug> <recipient>",
	Short: "Send a stored report to an email address.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		service := newResearch(readConfig())

		err := service.EmailReport(cmd.Context(), args[0], args[1])
		if err != nil {
			serviceutil.Fatal("email report", err)
		}
		slog.Info("report emailed", "slug", args[0], "to", args[1])
	},
}

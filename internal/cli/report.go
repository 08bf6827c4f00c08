// report.go implements the "inspector report" command rendering a stored session.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/laksh02009/Telegram-bot/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report <user-id>",
	Short: "Render the report for a user's stored session",
	Long: `Render the inspection report for a stored session. Incomplete
sessions show the answers recorded so far. Output is plain text unless
--markdown is given, which prints the MarkdownV2 text the bot would send.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

var reportMarkdown bool

func init() {
	reportCmd.Flags().BoolVar(&reportMarkdown, "markdown", false, "Emit Telegram MarkdownV2 instead of plain text")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Log.Events = false

	e, err := openEnv(cfg, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	format := report.Plain
	if reportMarkdown {
		format = report.MarkdownV2
	}
	text, err := e.bot.Report(args[0], format)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}

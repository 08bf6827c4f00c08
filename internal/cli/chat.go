// chat.go implements the "inspector chat" command: an interview on the terminal.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/laksh02009/Telegram-bot/internal/config"
	"github.com/laksh02009/Telegram-bot/internal/console"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interview in the terminal",
	Long: `Run the same interview the bot conducts, on stdin and stdout. Options
can be picked by number or by typing the label. Sessions are kept in memory
unless --persist is given.`,
	RunE: runChat,
}

var (
	chatUser    string
	chatName    string
	chatPersist bool
)

func init() {
	chatCmd.Flags().StringVar(&chatUser, "user", "console", "User id for the session")
	chatCmd.Flags().StringVar(&chatName, "name", "", "Display name hint used when names are not asked")
	chatCmd.Flags().BoolVar(&chatPersist, "persist", false, "Use the configured session store instead of memory")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !chatPersist {
		cfg.Store.Driver = config.DriverMemory
	}

	e, err := openEnv(cfg, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	return console.New(os.Stdin, os.Stdout, chatUser, chatName).Run(cmd.Context(), e.bot)
}

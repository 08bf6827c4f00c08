// checklist.go implements "inspector checklist show" and "inspector checklist validate".
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/laksh02009/Telegram-bot/internal/checklist"
	"github.com/laksh02009/Telegram-bot/internal/config"
)

var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Inspect the configured checklist",
}

var checklistShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the questions and their options",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cl, err := cfg.BuildChecklist()
		if err != nil {
			return err
		}
		printChecklist(cmd, cl)
		return nil
	},
}

var checklistValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a checklist file, or the project config when no file is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			cl  *checklist.Checklist
			err error
		)
		if len(args) == 1 {
			cl, err = checklist.LoadFile(args[0])
		} else {
			cfg, cfgErr := loadConfig()
			if cfgErr != nil {
				return cfgErr
			}
			cl, err = cfg.BuildChecklist()
		}
		if err != nil {
			return err
		}
		if err := config.CheckMarkup(cl); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d items\n", cl.Len())
		return nil
	},
}

func init() {
	checklistCmd.AddCommand(checklistShowCmd)
	checklistCmd.AddCommand(checklistValidateCmd)
}

func printChecklist(cmd *cobra.Command, cl *checklist.Checklist) {
	out := cmd.OutOrStdout()
	for _, item := range cl.Items() {
		fmt.Fprintf(out, "Q%d. %s\n", item.Index+1, item.Prompt)
		fmt.Fprintf(out, "    options: %s\n", strings.Join(item.Options, " | "))
	}
}

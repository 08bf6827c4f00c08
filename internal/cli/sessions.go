// sessions.go implements the "inspector sessions" command listing stored sessions.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions, most recently updated first",
	RunE:  runSessions,
}

var sessionsLimit int

func init() {
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 50, "Maximum number of sessions to list (0 for all)")
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	cl, err := cfg.BuildChecklist()
	if err != nil {
		return err
	}

	summaries, err := store.List(sessionsLimit)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No sessions.")
		return nil
	}

	fmt.Fprintf(out, "  %-14s  %-16s  %-15s  %-7s  %s\n", "USER", "NAME", "PHASE", "ANSWERS", "UPDATED")
	for _, s := range summaries {
		name := s.DisplayName
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(out, "  %-14s  %-16s  %-15s  %d/%-5d  %s\n",
			s.UserID, name, s.Phase, s.Answered, cl.Len(), s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

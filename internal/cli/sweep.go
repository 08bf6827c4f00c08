// sweep.go implements the "inspector sweep" command removing stale sessions.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove sessions older than a TTL",
	Long: `Remove sessions created longer ago than --older-than, or
store.session_ttl when the flag is not given.`,
	RunE: runSweep,
}

var sweepOlderThan time.Duration

func init() {
	sweepCmd.Flags().DurationVar(&sweepOlderThan, "older-than", 0, "Age threshold, e.g. 24h (default: store.session_ttl)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ttl := sweepOlderThan
	if ttl == 0 {
		ttl, _ = cfg.SessionTTL()
	}
	if ttl <= 0 {
		return fmt.Errorf("no TTL: pass --older-than or set store.session_ttl")
	}

	e, err := openEnv(cfg, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	removed, err := e.bot.Sweep(ttl)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d sessions older than %s\n", len(removed), ttl)
	return nil
}

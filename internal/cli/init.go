// init.go implements the "inspector init" command.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/laksh02009/Telegram-bot/internal/checklist"
	"github.com/laksh02009/Telegram-bot/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .inspector/config.yaml with defaults",
	Long: `Initialize the .inspector/ directory with a default configuration
that includes the built-in checklist, and add the runtime files to
.gitignore. Edit the checklist section to change the questions.`,
	RunE: runInit,
}

var (
	initForce  bool
	initMemory bool
)

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config without asking")
	initCmd.Flags().BoolVar(&initMemory, "memory", false, "Keep sessions in memory instead of SQLite")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := projectDir
	configPath := filepath.Join(dir, config.Dir, "config.yaml")

	if _, statErr := os.Stat(configPath); statErr == nil && !initForce {
		fmt.Printf("Warning: %s already exists.\n", configPath)
		fmt.Print("Overwrite? [y/N]: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Write the built-in questions out so they can be edited in place.
	cfg := config.DefaultConfig()
	cfg.Checklist = checklist.Default().Items()
	if initMemory {
		cfg.Store.Driver = config.DriverMemory
	}

	if err := config.WriteConfig(dir, cfg); err != nil {
		return err
	}

	if err := ensureGitignore(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to set up .gitignore: %v\n", err)
	}

	fmt.Printf("Wrote %s\n", configPath)
	fmt.Printf("Set %s in the environment, then run: inspector serve\n", cfg.Telegram.TokenEnv)
	return nil
}

// ensureGitignore creates or appends to .gitignore with the runtime files
// under .inspector/. config.yaml IS committed.
func ensureGitignore(dir string) error {
	gitignorePath := filepath.Join(dir, ".gitignore")

	requiredEntries := []string{
		".env",
		".env.*",
		config.Dir + "/sessions.db*",
		config.Dir + "/events.jsonl",
	}

	existing := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existing = string(data)
	}

	var missing []string
	for _, entry := range requiredEntries {
		if !strings.Contains(existing, entry) {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var toAppend strings.Builder
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		toAppend.WriteString("\n")
	}
	if existing != "" {
		toAppend.WriteString("\n")
	}
	toAppend.WriteString("# Inspector runtime\n")
	for _, entry := range missing {
		toAppend.WriteString(entry + "\n")
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening .gitignore: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(toAppend.String()); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}

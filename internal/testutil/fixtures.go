// Package testutil provides test helpers shared by inspector package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/laksh02009/Telegram-bot/internal/checklist"
	"github.com/laksh02009/Telegram-bot/internal/interview"
)

// TempProject creates a temporary directory with the given files and returns its path.
// Files is a map of relative path -> content. Directories are created as needed.
// The directory is automatically cleaned up when the test finishes.
func TempProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// ConfigProject returns a project directory whose .inspector/config.yaml
// holds configYAML.
func ConfigProject(t *testing.T, configYAML string) string {
	t.Helper()
	return TempProject(t, map[string]string{
		filepath.Join(".inspector", "config.yaml"): configYAML,
	})
}

// Checklist builds a checklist of Yes/No questions with the given prompts.
func Checklist(t *testing.T, prompts ...string) *checklist.Checklist {
	t.Helper()
	items := make([]checklist.Item, len(prompts))
	for i, p := range prompts {
		items[i] = checklist.Item{Prompt: p}
	}
	cl, err := checklist.New(items)
	if err != nil {
		t.Fatalf("building checklist: %v", err)
	}
	return cl
}

// Machine builds a state machine over a Yes/No checklist with the given prompts.
func Machine(t *testing.T, cfg interview.Config, prompts ...string) *interview.Machine {
	t.Helper()
	m, err := interview.NewMachine(Checklist(t, prompts...), cfg)
	if err != nil {
		t.Fatalf("building machine: %v", err)
	}
	return m
}

// Package clitest runs cobra commands against a throwaway ledger for tests.
package clitest

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"fjacquet/spend-ledger/cmd/root"
)

var once sync.Once

// Env points the ledger at a temporary SQLite file with FX and AI disabled and returns
// the directory used.
func Env(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("LEDGER_STORAGE_DRIVER", "sqlite")
	t.Setenv("LEDGER_STORAGE_PATH", filepath.Join(dir, "ledger.db"))
	t.Setenv("LEDGER_FX_ENABLED", "false")
	t.Setenv("LEDGER_AI_ENABLED", "false")
	t.Setenv("LEDGER_LOG_LEVEL", "error")
	t.Setenv("LEDGER_USER", "tester")
	return dir
}

// Execute runs the root command with sub registered and returns its output.
func Execute(t *testing.T, sub *cobra.Command, args ...string) (string, error) {
	t.Helper()
	once.Do(func() {
		root.Init()
	})
	if !hasCommand(sub) {
		root.Cmd.AddCommand(sub)
	}

	var out bytes.Buffer
	root.Cmd.SetOut(&out)
	root.Cmd.SetErr(&out)
	root.Cmd.SetArgs(args)
	err := root.Cmd.Execute()
	return out.String(), err
}

func hasCommand(sub *cobra.Command) bool {
	for _, c := range root.Cmd.Commands() {
		if c == sub {
			return true
		}
	}
	return false
}

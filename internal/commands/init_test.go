package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cfonb120/internal/account"
	"github.com/cleared-dev/cfonb120/internal/commands"
	"github.com/cleared-dev/cfonb120/internal/config"
)

const testIBAN = "FR7630004022310001017355454"

// runCLI executes the root command in-process and returns what it printed on stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized cfonb120 workspace")

	expectedDirs := []string{
		"inbox",
		filepath.Join("inbox", "processed"),
		"outbox",
		"logs",
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, "init", dir, "--iban", testIBAN)
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, testIBAN, cfg.Account.IBAN)
	assert.Equal(t, "EUR", cfg.Account.Currency)
	assert.Equal(t, "opening", cfg.Statement.BalanceMode)
	assert.Equal(t, "overpunch", cfg.Statement.AmountEncoding)
}

func TestInit_Gitignore(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, "init", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	for _, pattern := range []string{"inbox/", "outbox/", ".env"} {
		assert.Contains(t, string(data), pattern)
	}
}

func TestInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, "init", dir)
	require.NoError(t, err)

	_, err = runCLI(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runCLI(t, "init", dir, "--force", "--iban", testIBAN)
	require.NoError(t, err)
}

func TestInit_RejectsMalformedIBAN(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, "init", dir, "--iban", "DE89370400440532013000")
	require.ErrorIs(t, err, account.ErrMalformedIBAN)

	_, err = os.Stat(filepath.Join(dir, config.FileName))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

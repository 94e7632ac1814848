package commands_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cfonb120/internal/account"
	"github.com/cleared-dev/cfonb120/internal/config"
	"github.com/cleared-dev/cfonb120/internal/rows"
	"github.com/cleared-dev/cfonb120/internal/runlog"
	"github.com/cleared-dev/cfonb120/internal/statement"
)

func copyTestdata(t *testing.T, dst string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "statement.csv"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}

func TestConvert_WritesOutputPath(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "statement.csv")
	copyTestdata(t, input)

	out, err := runCLI(t, "convert", input, "--iban", testIBAN, "--config", filepath.Join(dir, config.FileName))
	require.NoError(t, err)

	want := filepath.Join(dir, "statement.cfo")
	assert.Equal(t, want+"\n", out)

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 6)
	for i, l := range lines {
		assert.Len(t, l, 120, "line %d", i+1)
	}
	assert.True(t, strings.HasPrefix(lines[0], "0130004"))
	assert.True(t, strings.HasPrefix(lines[5], "0730004"))
}

func TestConvert_OutputFlagAndCRLF(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "statement.csv")
	copyTestdata(t, input)
	target := filepath.Join(dir, "out", "march.cfo")

	out, err := runCLI(t, "convert", input, "-o", target, "--iban", testIBAN,
		"--line-ending", "crlf", "--config", filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, target+"\n", out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(string(data), "\r\n"))
	assert.Len(t, data, 6*122)
}

func TestConvert_UsesConfigIdentity(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, "init", dir, "--iban", testIBAN)
	require.NoError(t, err)
	input := filepath.Join(dir, "statement.csv")
	copyTestdata(t, input)

	_, err = runCLI(t, "convert", input, "--config", filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "statement.cfo"))
}

func TestConvert_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		args    []string
		wantErr error
	}{
		{
			name:    "malformed iban",
			content: "01/01/2024;Coffee;;;12,50\n",
			args:    []string{"--iban", "FR12"},
			wantErr: account.ErrMalformedIBAN,
		},
		{
			name:    "no transactions",
			content: "Date;Libellé;;;Montant\n",
			args:    []string{"--iban", testIBAN},
			wantErr: statement.ErrNoTransactions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			input := filepath.Join(dir, "in.csv")
			require.NoError(t, os.WriteFile(input, []byte(tt.content), 0o644))

			args := append([]string{"convert", input, "--config", filepath.Join(dir, config.FileName)}, tt.args...)
			_, err := runCLI(t, args...)
			require.ErrorIs(t, err, tt.wantErr)

			_, statErr := os.Stat(filepath.Join(dir, "in.cfo"))
			assert.ErrorIs(t, statErr, os.ErrNotExist, "no partial output")
		})
	}
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, "init", dir, "--iban", testIBAN)
	require.NoError(t, err)

	inbox := filepath.Join(dir, "inbox")
	copyTestdata(t, filepath.Join(inbox, "a.csv"))
	copyTestdata(t, filepath.Join(inbox, "b.csv"))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "bad.csv"), []byte("Date;Montant\n"), 0o644))

	out, err := runCLI(t, "batch", "--config", filepath.Join(dir, config.FileName), "--workers", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 files failed")
	assert.Contains(t, out, "2 converted, 1 failed")

	assert.FileExists(t, filepath.Join(dir, "outbox", "a.cfo"))
	assert.FileExists(t, filepath.Join(dir, "outbox", "b.cfo"))
	assert.NoFileExists(t, filepath.Join(dir, "outbox", "bad.cfo"))
	assert.FileExists(t, filepath.Join(inbox, rows.ProcessedDir, "a.csv"))
	assert.FileExists(t, filepath.Join(inbox, "bad.csv"))

	entries, err := runlog.Read(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	out, err = runCLI(t, "history", "--config", filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, runlog.StatusOK+" "))
	assert.Contains(t, out, runlog.StatusFailed)
	assert.Contains(t, out, "no transactions")

	out, err = runCLI(t, "history", "-n", "1", "--config", filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2, "header and one entry")
}

func TestHistory_Empty(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "history", "--config", filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Contains(t, out, "No conversions logged")
}

func TestBatch_EmptyInbox(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, "init", dir, "--iban", testIBAN)
	require.NoError(t, err)

	out, err := runCLI(t, "batch", "--config", filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Contains(t, out, "No files to convert")
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "statement.csv")
	copyTestdata(t, input)
	cfgPath := filepath.Join(dir, config.FileName)

	_, err := runCLI(t, "convert", input, "--iban", testIBAN, "--config", cfgPath)
	require.NoError(t, err)
	cfo := filepath.Join(dir, "statement.cfo")

	out, err := runCLI(t, "verify", cfo, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "6 records, 3 transactions, 1 continuations")
	assert.Contains(t, out, "opening 1000.00, movements -940.70, closing 59.30")
	assert.Contains(t, out, "OK")

	data, err := os.ReadFile(cfo)
	require.NoError(t, err)
	lines := strings.SplitAfter(string(data), "\n")
	truncated := filepath.Join(dir, "truncated.cfo")
	require.NoError(t, os.WriteFile(truncated, []byte(strings.Join(lines[:5], "")), 0o644))

	out, err = runCLI(t, "verify", truncated, "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, out, "rule 2")
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "cfonb120 dev"))
}

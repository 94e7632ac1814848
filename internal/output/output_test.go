package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineEnding(t *testing.T) {
	tests := []struct {
		input string
		want  LineEnding
	}{
		{"", LF},
		{"lf", LF},
		{"CRLF", CRLF},
		{" crlf ", CRLF},
	}
	for _, tt := range tests {
		got, err := ParseLineEnding(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLineEnding("cr")
	assert.Error(t, err)
}

func TestEncode_LineEndings(t *testing.T) {
	lines := []string{"abc", "def"}

	data, err := Encode(lines, 3, LF)
	require.NoError(t, err)
	assert.Equal(t, "abc\ndef\n", string(data))

	data, err = Encode(lines, 3, CRLF)
	require.NoError(t, err)
	assert.Equal(t, "abc\r\ndef\r\n", string(data))
}

func TestEncode_Latin1(t *testing.T) {
	data, err := Encode([]string{"CAFÉ"}, 4, LF)
	require.NoError(t, err)
	assert.Equal(t, []byte{'C', 'A', 'F', 0xC9, '\n'}, data)
}

func TestEncode_Errors(t *testing.T) {
	_, err := Encode([]string{"abc", "de"}, 3, LF)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = Encode([]string{"ŁÓD"}, 3, LF)
	require.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "statement.cfo")

	require.NoError(t, WriteFile(path, []byte("first\n")))
	require.NoError(t, WriteFile(path, []byte("second\n")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteFile_ReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.cfo")
	require.NoError(t, WriteFile(path, []byte(strings.Repeat("A", 120)+"\n")))

	// A failed encode never reaches WriteFile, so the previous file survives.
	_, err := Encode([]string{strings.Repeat("B", 120), "short"}, 120, LF)
	require.Error(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("A", 120)+"\n", string(got))
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("outbox", "march.cfo"), PathFor("outbox", "/tmp/inbox/march.csv"))
	assert.Equal(t, filepath.Join("outbox", "export.cfo"), PathFor("outbox", "export"))
}

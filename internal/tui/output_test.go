package tui

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutput(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	assert.IsType(t, &JSONOutput{}, NewOutput(&bytes.Buffer{}, FormatJSON))
	assert.IsType(t, &TTYOutput{}, NewOutput(&bytes.Buffer{}, FormatText))
	assert.IsType(t, &TTYOutput{}, NewOutput(&bytes.Buffer{}, ""))
}

func TestTTYOutput(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	out := NewTTYOutput(&buf)

	out.Step("Clone website repository")
	out.Skip("DEPLOYMENT SKIPPED (pull request)")
	out.Success("deployed")
	out.Warning("careful")
	out.Info("note")
	out.Error(NewActionableError("deployment secret missing", "Enable secure variables"))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"Clone website repository",
		"DEPLOYMENT SKIPPED (pull request)",
		"✓ deployed",
		"⚠ careful",
		"note",
		"✗ deployment secret missing",
		"  ▸ Try: Enable secure variables",
	}, lines)
}

func TestTTYOutput_Table(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	NewTTYOutput(&buf).Table([]string{"TOOL", "STATUS"}, [][]string{
		{"git", "installed"},
		{"openssl", "missing"},
	})

	assert.Equal(t, "TOOL     STATUS\n"+
		"git      installed\n"+
		"openssl  missing\n", buf.String())
}

func TestJSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	out := NewJSONOutput(&buf)

	out.Step("Build manual")
	out.Skip("DEPLOYMENT SKIPPED (no changes)")
	out.Error(errors.New("boom"))
	out.Error(NewActionableError("push rejected", "Re-run the build").WithContext("deploy"))

	dec := json.NewDecoder(&buf)
	var got []map[string]string
	for dec.More() {
		var m map[string]string
		require.NoError(t, dec.Decode(&m))
		got = append(got, m)
	}

	require.Len(t, got, 4)
	assert.Equal(t, map[string]string{"type": "step", "message": "Build manual"}, got[0])
	assert.Equal(t, "skip", got[1]["type"])
	assert.Equal(t, map[string]string{"type": "error", "message": "boom"}, got[2])
	assert.Equal(t, "Re-run the build", got[3]["suggestion"])
	assert.Equal(t, "deploy", got[3]["context"])
}

func TestJSONOutput_TableAndValue(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	out := NewJSONOutput(&buf)
	out.Table([]string{"name", "status"}, [][]string{{"git"}})
	require.NoError(t, out.JSON(map[string]int{"n": 1}))

	dec := json.NewDecoder(&buf)
	var rows []map[string]string
	require.NoError(t, dec.Decode(&rows))
	assert.Equal(t, []map[string]string{{"name": "git", "status": ""}}, rows)

	var v map[string]int
	require.NoError(t, dec.Decode(&v))
	assert.Equal(t, 1, v["n"])
}

func TestActionableError(t *testing.T) {
	t.Parallel()

	err := NewActionableError("failed", "retry")
	assert.Equal(t, "failed", err.Error())
	assert.Equal(t, "failed (ctx)", err.WithContext("ctx").Error())
}

func TestHasColorSupport(t *testing.T) {
	t.Setenv("TERM", "xterm")
	t.Setenv("NO_COLOR", "")
	assert.False(t, HasColorSupport(), "NO_COLOR disables color even when empty")
}

package config

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atilaneves/flycheck/internal/errors"
)

// MockCommandExecutor is a test double for CommandExecutor.
type MockCommandExecutor struct {
	paths   map[string]bool
	outputs map[string]string
	fails   map[string]bool
}

func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{
		paths:   make(map[string]bool),
		outputs: make(map[string]string),
		fails:   make(map[string]bool),
	}
}

// Install makes name resolvable on PATH and answer its version probe with output.
func (m *MockCommandExecutor) Install(name, output string) {
	m.paths[name] = true
	m.outputs[name] = output
}

func (m *MockCommandExecutor) LookPath(file string) (string, error) {
	if m.paths[file] {
		return "/usr/bin/" + file, nil
	}
	return "", exec.ErrNotFound
}

func (m *MockCommandExecutor) Run(_ context.Context, name string, _ ...string) (string, error) {
	if m.fails[name] {
		return "", errors.ErrCommandFailed
	}
	if out, ok := m.outputs[name]; ok {
		return out, nil
	}
	return "", errors.ErrCommandNotConfigured
}

func findTool(t *testing.T, result *ToolDetectionResult, name string) Tool {
	t.Helper()
	for _, tool := range result.Tools {
		if tool.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not in result", name)
	return Tool{}
}

func TestToolDetector_AllInstalled(t *testing.T) {
	t.Parallel()

	executor := NewMockCommandExecutor()
	executor.Install("git", "git version 2.43.0\n")
	executor.Install("bundle", "Bundler version 2.4.10\n")
	executor.Install("rake", "rake, version 13.1.0\n")
	executor.Install("openssl", "OpenSSL 3.0.2 15 Mar 2022 (Library: OpenSSL 3.0.2 15 Mar 2022)\n")

	result, err := NewToolDetectorWithExecutor(executor).Detect(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Tools, 4)
	assert.Equal(t, []string{"git", "bundle", "rake", "openssl"}, []string{
		result.Tools[0].Name, result.Tools[1].Name, result.Tools[2].Name, result.Tools[3].Name,
	})
	assert.False(t, result.HasMissingRequired)
	assert.Empty(t, result.MissingRequiredTools())
	assert.Equal(t, "2.43.0", findTool(t, result, "git").CurrentVersion)
	assert.Equal(t, "2.4.10", findTool(t, result, "bundle").CurrentVersion)
	assert.Equal(t, "13.1.0", findTool(t, result, "rake").CurrentVersion)
	assert.Equal(t, "3.0.2", findTool(t, result, "openssl").CurrentVersion)
}

func TestToolDetector_MissingAndOutdated(t *testing.T) {
	t.Parallel()

	executor := NewMockCommandExecutor()
	executor.Install("git", "git version 1.9.5\n")
	executor.Install("rake", "garbage")
	executor.Install("openssl", "LibreSSL 3.3.6\n")
	executor.fails["openssl"] = true

	result, err := NewToolDetectorWithExecutor(executor).Detect(context.Background())
	require.NoError(t, err)
	assert.True(t, result.HasMissingRequired)

	assert.Equal(t, ToolStatusOutdated, findTool(t, result, "git").Status)
	assert.Equal(t, ToolStatusMissing, findTool(t, result, "bundle").Status)

	rake := findTool(t, result, "rake")
	assert.Equal(t, ToolStatusInstalled, rake.Status)
	assert.Equal(t, "unknown", rake.CurrentVersion)

	openssl := findTool(t, result, "openssl")
	assert.Equal(t, ToolStatusInstalled, openssl.Status, "failed version probe still counts as installed")

	missing := result.MissingRequiredTools()
	require.Len(t, missing, 2)
	msg := FormatMissingToolsError(missing)
	assert.Contains(t, msg, "git: outdated (have 1.9.5, need 2.0.0)")
	assert.Contains(t, msg, "bundle: missing")
	assert.Contains(t, msg, "gem install bundler")
}

func TestToolDetector_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewToolDetectorWithExecutor(NewMockCommandExecutor()).Detect(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func specFor(t *testing.T, name string) toolSpec {
	t.Helper()
	for _, s := range toolSpecs() {
		if s.name == name {
			return s
		}
	}
	t.Fatalf("no tool definition for %s", name)
	return toolSpec{}
}

func TestToolSpec_ParseVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tool   string
		input  string
		expect string
	}{
		{"git", "git", "git version 2.39.3 (Apple Git-146)", "2.39.3"},
		{"bundle legacy", "bundle", "Bundler version 1.17.3", "1.17.3"},
		{"bundle bare", "bundle", "2.5.3", "2.5.3"},
		{"rake", "rake", "rake, version 12.3.3", "12.3.3"},
		{"rake fallback", "rake", "13.0", "13.0"},
		{"openssl", "openssl", "OpenSSL 1.1.1w  11 Sep 2023", "1.1.1"},
		{"libressl", "openssl", "LibreSSL 3.3.6", "3.3.6"},
		{"openssl unknown", "openssl", "nothing here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, specFor(t, tt.tool).parseVersion(tt.input))
		})
	}
}

func TestCompareVersions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, CompareVersions("2.0.0", "2.0"))
	assert.Equal(t, -1, CompareVersions("1.9.5", "2.0.0"))
	assert.Equal(t, 1, CompareVersions("v2.43.0", "2.0.0"))
	assert.Equal(t, 1, CompareVersions("1.10.0", "1.9.9"))
	assert.Equal(t, 0, CompareVersions("1.5.x", "1.5.0"))
}

func TestToolStatus_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Tool{Name: "git", Status: ToolStatusOutdated})
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"status":"outdated"`))

	var tool Tool
	require.NoError(t, json.Unmarshal([]byte(`{"name":"rake","status":"installed"}`), &tool))
	assert.Equal(t, ToolStatusInstalled, tool.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"status":"bogus"}`), &tool))
	assert.Equal(t, ToolStatusMissing, tool.Status)
}

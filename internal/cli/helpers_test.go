package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/atilaneves/flycheck/internal/command"
	"github.com/atilaneves/flycheck/internal/config"
	"github.com/atilaneves/flycheck/internal/testutil"
)

// stubDetector returns a fixed detection result.
type stubDetector struct {
	result *config.ToolDetectionResult
	err    error
}

func (s *stubDetector) Detect(ctx context.Context) (*config.ToolDetectionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.result, s.err
}

func installedTools() *config.ToolDetectionResult {
	return &config.ToolDetectionResult{Tools: []config.Tool{
		{Name: "git", Required: true, MinVersion: "2.0.0", CurrentVersion: "2.43.0", Status: config.ToolStatusInstalled},
		{Name: "bundle", Required: true, MinVersion: "1.5.0", CurrentVersion: "2.5.3", Status: config.ToolStatusInstalled},
		{Name: "rake", Required: true, CurrentVersion: "13.1.0", Status: config.ToolStatusInstalled},
		{Name: "openssl", Required: true, CurrentVersion: "3.0.13", Status: config.ToolStatusInstalled},
	}}
}

// testDeps wires a FakeRunner and a fixed environment snapshot.
func testDeps(runner *testutil.FakeRunner, vars map[string]string) *appDeps {
	return &appDeps{
		newRunner: func(io.Writer) command.Runner { return runner },
		loadEnv: func(string) (config.Env, error) {
			return config.NewEnv(vars), nil
		},
		detector: &stubDetector{result: installedTools()},
	}
}

// travisVars is the environment of a master build of flycheck/flycheck.
func travisVars() map[string]string {
	return map[string]string{
		config.EnvCI:                 "true",
		config.EnvTravis:             "true",
		config.EnvRepoSlug:           "flycheck/flycheck",
		config.EnvPullRequest:        "false",
		config.EnvSecureEnvVars:      "true",
		config.EnvBranch:             "master",
		config.EnvCommit:             "abcdef1234567890",
		"encrypted_923a5f7c915e_key": "00ff",
		"encrypted_923a5f7c915e_iv":  "ff00",
	}
}

func executeCmd(t *testing.T, deps *appDeps, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	flags := &GlobalFlags{}
	cmd := newRootCmdWithDeps(flags, BuildInfo{Version: "test"}, deps)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

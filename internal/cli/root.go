package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atilaneves/flycheck/internal/command"
	"github.com/atilaneves/flycheck/internal/config"
	"github.com/atilaneves/flycheck/internal/errors"
	"github.com/atilaneves/flycheck/internal/tui"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// appDeps are the collaborators commands run against. Tests replace them.
type appDeps struct {
	// newRunner creates the runner for external tools; live is where tool
	// output is streamed.
	newRunner func(live io.Writer) command.Runner
	// loadEnv snapshots the process environment, seeded from envFile if set.
	loadEnv func(envFile string) (config.Env, error)
	// detector probes the external tools.
	detector config.ToolDetector
}

func defaultDeps() *appDeps {
	return &appDeps{
		newRunner: func(live io.Writer) command.Runner {
			return command.NewExecRunner(command.WithLiveOutput(live))
		},
		loadEnv:  config.LoadEnv,
		detector: config.NewToolDetector(),
	}
}

// newRootCmd creates and returns the root command for the flycheck-deploy CLI.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	return newRootCmdWithDeps(flags, info, defaultDeps())
}

func newRootCmdWithDeps(flags *GlobalFlags, info BuildInfo, deps *appDeps) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "flycheck-deploy",
		Short: "Publish the flycheck manual to flycheck.github.io",
		Long: `flycheck-deploy rebuilds the flycheck manual from a CI build of
flycheck/flycheck and pushes it to the flycheck.github.io website repository.

Only master builds of flycheck/flycheck with secure variables deploy. Every
other build is skipped with a DEPLOYMENT SKIPPED message and exits 0.

Commands:
  deploy   run the deployment
  check    show whether this environment would deploy
  tools    check that git, bundle, rake and openssl are installed`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd, flags); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			if !IsValidOutputFormat(flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats())
			}

			logger, err := InitLogger(flags.Verbose, flags.Quiet, flags.LogFile)
			if err != nil {
				logger.Warn().Err(err).Str("log_file", flags.LogFile).Msg("log file disabled")
			}

			cmd.SetContext(logger.WithContext(cmd.Context()))
			return nil
		},
		// Errors are reported by Execute through tui.Output.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, flags)

	cmd.AddCommand(newDeployCmd(flags, deps))
	cmd.AddCommand(newCheckCmd(flags, deps))
	cmd.AddCommand(newToolsCmd(flags, deps))

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command and reports a failure on stderr in the
// selected output format. The returned error is for ExitCodeForError.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	cmd := newRootCmd(flags, info)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		reportError(cmd.ErrOrStderr(), flags.Output, err)
	}
	return err
}

// reportError prints err with its user message and suggested action.
func reportError(w io.Writer, format string, err error) {
	if !IsValidOutputFormat(format) {
		format = OutputText
	}
	msg, action := errors.Actionable(err)
	if msg == "" {
		msg = err.Error()
	}

	ae := tui.NewActionableError(msg, action)
	if msg != err.Error() {
		ae = ae.WithContext(err.Error())
	}
	tui.NewOutput(w, format).Error(ae)
}

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/atilaneves/flycheck/internal/config"
	"github.com/atilaneves/flycheck/internal/deploy"
	"github.com/atilaneves/flycheck/internal/tui"
)

type checkOptions struct {
	sourceDir  string
	envFile    string
	showConfig bool
}

// checkReport is the JSON form of the check command.
type checkReport struct {
	TravisCI   bool               `json:"travis_ci"`
	WouldRun   bool               `json:"would_deploy"`
	SkipReason string             `json:"skip_reason,omitempty"`
	Conditions []deploy.Condition `json:"conditions"`
	Config     *config.Config     `json:"config,omitempty"`
}

func newCheckCmd(flags *GlobalFlags, deps *appDeps) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Show whether this environment would deploy",
		Long: `Evaluate the deployment gate against the current environment and print
every condition with its expected and actual value. Nothing is cloned, built
or pushed.

Examples:
  flycheck-deploy check
  flycheck-deploy check --env-file travis.env --show-config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), flags, opts, deps)
		},
	}

	cmd.Flags().StringVar(&opts.sourceDir, "source-dir", "", "flycheck source tree (default: current directory)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "dotenv file seeding the CI environment")
	cmd.Flags().BoolVar(&opts.showConfig, "show-config", false, "print the resolved configuration")

	return cmd
}

func runCheck(ctx context.Context, w io.Writer, flags *GlobalFlags, opts *checkOptions, deps *appDeps) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg, err := config.LoadWithOverrides(ctx, config.LoadOptions{
		ConfigFile: flags.ConfigFile,
		SourceDir:  opts.sourceDir,
	}, &config.Config{Repo: config.RepoConfig{SourceDir: opts.sourceDir}})
	if err != nil {
		return err
	}

	env, err := deps.loadEnv(opts.envFile)
	if err != nil {
		return err
	}

	conditions := deploy.EvaluateGate(cfg.Gate, env)
	reason, ok := deploy.CheckGate(cfg.Gate, env)

	zerolog.Ctx(ctx).Debug().
		Bool("would_deploy", ok).
		Str("skip_reason", reason).
		Msg("gate evaluated")

	tui.CheckNoColor()
	out := tui.NewOutput(w, flags.Output)

	if flags.Output == OutputJSON {
		report := checkReport{
			TravisCI:   env.IsTravisCI(),
			WouldRun:   ok,
			SkipReason: reason,
			Conditions: conditions,
		}
		if opts.showConfig {
			report.Config = cfg
		}
		return out.JSON(report)
	}

	if !env.IsTravisCI() {
		out.Warning("Not running on Travis CI")
	}

	rows := make([][]string, 0, len(conditions))
	for _, c := range conditions {
		rows = append(rows, []string{c.Variable, c.Expected, displayValue(c.Actual), passMark(c.Passed)})
	}
	out.Table([]string{"VARIABLE", "EXPECTED", "ACTUAL", "OK"}, rows)

	if ok {
		out.Success("This build would deploy")
	} else {
		out.Info(deploy.SkipMessage(reason))
	}

	if opts.showConfig {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to render configuration: %w", err)
		}
		_, _ = fmt.Fprintf(w, "\n%s", data)
	}
	return nil
}

func displayValue(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}

func passMark(passed bool) string {
	if passed {
		return "yes"
	}
	return "no"
}

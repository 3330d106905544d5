package cli

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/atilaneves/flycheck/internal/config"
	"github.com/atilaneves/flycheck/internal/deploy"
	"github.com/atilaneves/flycheck/internal/tui"
)

// deployOptions holds flags specific to the deploy command.
type deployOptions struct {
	dryRun      bool
	sourceDir   string
	envFile     string
	workDirBase string
	sshConfig   string
}

func newDeployCmd(flags *GlobalFlags, deps *appDeps) *cobra.Command {
	opts := &deployOptions{}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Build the manual and push it to the website",
		Long: `Deploy the flycheck manual to flycheck.github.io.

Clones the website, builds the manual from the source tree with bundle and
rake, and when anything changed commits and pushes it with the encrypted
deployment key. Builds that may not deploy exit 0 with a DEPLOYMENT SKIPPED
message.

A dry run stops before the push but still decrypts the key and rewrites the
SSH config, which is ~/.ssh/config unless --ssh-config points elsewhere.

Examples:
  flycheck-deploy deploy                      # run from the flycheck checkout
  flycheck-deploy deploy --dry-run --ssh-config /tmp/ssh_config   # commit locally, never push
  flycheck-deploy deploy --env-file travis.env --source-dir ~/src/flycheck`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeploy(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), flags, opts, deps)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "commit locally without pushing (still overwrites the SSH config, see --ssh-config)")
	cmd.Flags().StringVar(&opts.sourceDir, "source-dir", "", "flycheck source tree (default: current directory)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "dotenv file seeding the CI environment")
	cmd.Flags().StringVar(&opts.workDirBase, "work-dir-base", "", "directory the temporary working directory is created in")
	cmd.Flags().StringVar(&opts.sshConfig, "ssh-config", "", "SSH client config to write (default: ~/.ssh/config)")

	return cmd
}

func runDeploy(ctx context.Context, stdout, stderr io.Writer, flags *GlobalFlags, opts *deployOptions, deps *appDeps) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := zerolog.Ctx(ctx)

	cfg, err := config.LoadWithOverrides(ctx, config.LoadOptions{
		ConfigFile: flags.ConfigFile,
		SourceDir:  opts.sourceDir,
	}, &config.Config{
		Repo:      config.RepoConfig{SourceDir: opts.sourceDir},
		Workspace: config.WorkspaceConfig{BaseDir: opts.workDirBase},
		SSH:       config.SSHConfig{ConfigPath: opts.sshConfig},
		DryRun:    opts.dryRun,
	})
	if err != nil {
		return err
	}

	env, err := deps.loadEnv(opts.envFile)
	if err != nil {
		return err
	}

	tui.CheckNoColor()
	out := tui.NewOutput(stdout, flags.Output)

	// Tool output goes to stderr so JSON on stdout stays parseable.
	runner := deps.newRunner(stderr)

	result, err := deploy.New(cfg, env, runner, out).Deploy(ctx)
	if err != nil {
		return err
	}

	logger.Info().
		Str("run_id", result.RunID).
		Str("outcome", string(result.Outcome)).
		Str("skip_reason", result.SkipReason).
		Dur("duration", result.Duration()).
		Msg("deployment finished")

	if flags.Output == OutputJSON {
		return out.JSON(result)
	}
	return nil
}

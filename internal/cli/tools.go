package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/atilaneves/flycheck/internal/config"
	"github.com/atilaneves/flycheck/internal/errors"
	"github.com/atilaneves/flycheck/internal/tui"
)

func newToolsCmd(flags *GlobalFlags, deps *appDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Check the external tools a deployment needs",
		Long: `Detect git, bundle, rake and openssl and check their versions.

Exits 2 when a required tool is missing or too old.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTools(cmd.Context(), cmd.OutOrStdout(), flags, deps.detector)
		},
	}
}

func runTools(ctx context.Context, w io.Writer, flags *GlobalFlags, detector config.ToolDetector) error {
	result, err := detector.Detect(ctx)
	if err != nil {
		return fmt.Errorf("failed to detect tools: %w", err)
	}

	tui.CheckNoColor()
	out := tui.NewOutput(w, flags.Output)

	if flags.Output == OutputJSON {
		if err := out.JSON(result); err != nil {
			return err
		}
	} else {
		rows := make([][]string, 0, len(result.Tools))
		for _, tool := range result.Tools {
			rows = append(rows, []string{tool.Name, displayValue(tool.CurrentVersion), displayValue(tool.MinVersion), tool.Status.String()})
		}
		out.Table([]string{"TOOL", "VERSION", "MINIMUM", "STATUS"}, rows)
	}

	missing := result.MissingRequiredTools()
	if len(missing) > 0 {
		zerolog.Ctx(ctx).Warn().Int("missing", len(missing)).Msg("required tools missing")
		if flags.Output != OutputJSON {
			_, _ = fmt.Fprint(w, "\n"+config.FormatMissingToolsError(missing))
		}
		return errors.NewExitCode2Error(fmt.Errorf("%w: %d", errors.ErrMissingRequiredTools, len(missing)))
	}

	if flags.Output != OutputJSON {
		out.Success("All required tools are installed")
	}
	return nil
}

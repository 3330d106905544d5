package config

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/atilaneves/flycheck/internal/constants"
)

// Pre-compiled version regexes.
//
//nolint:gochecknoglobals // compiled once
var (
	gitVersionRe     = regexp.MustCompile(`git version (\d+\.\d+(?:\.\d+)?)`)
	bundleVersionRe  = regexp.MustCompile(`(?i)(?:bundler version )?v?(\d+\.\d+(?:\.\d+)?)`)
	rakeVersionRe    = regexp.MustCompile(`rake, version (\d+\.\d+(?:\.\d+)?)`)
	opensslVersionRe = regexp.MustCompile(`(?:OpenSSL|LibreSSL) (\d+\.\d+(?:\.\d+)?)`)
	genericVersionRe = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?)`)
)

// ToolStatus represents the installation status of an external tool.
//
//nolint:recvcheck // UnmarshalJSON requires pointer receiver
type ToolStatus int

const (
	// ToolStatusMissing indicates the tool is not on PATH.
	ToolStatusMissing ToolStatus = iota

	// ToolStatusInstalled indicates the tool is installed and meets version requirements.
	ToolStatusInstalled

	// ToolStatusOutdated indicates the tool is installed but below the minimum version.
	ToolStatusOutdated
)

// maxVersionSegments is the number of segments in a semantic version (major.minor.patch).
const maxVersionSegments = 3

// unknownVersion is reported when a tool runs but its version cannot be parsed.
const unknownVersion = "unknown"

// String returns a human-readable representation of the tool status.
func (s ToolStatus) String() string {
	switch s {
	case ToolStatusInstalled:
		return "installed"
	case ToolStatusMissing:
		return "missing"
	case ToolStatusOutdated:
		return "outdated"
	default:
		return unknownVersion
	}
}

// MarshalJSON implements json.Marshaler.
func (s ToolStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. Unknown strings decode as missing.
func (s *ToolStatus) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "installed":
		*s = ToolStatusInstalled
	case "outdated":
		*s = ToolStatusOutdated
	default:
		*s = ToolStatusMissing
	}
	return nil
}

// Tool is an external program a deployment drives.
type Tool struct {
	Name           string     `json:"name"`
	Required       bool       `json:"required"`
	MinVersion     string     `json:"min_version,omitempty"`
	CurrentVersion string     `json:"current_version,omitempty"`
	Status         ToolStatus `json:"status"`
	InstallHint    string     `json:"install_hint"`
}

// ToolDetectionResult holds the results of detecting all tools.
type ToolDetectionResult struct {
	Tools              []Tool `json:"tools"`
	HasMissingRequired bool   `json:"has_missing_required"`
}

// MissingRequiredTools returns the required tools that are missing or outdated.
func (r *ToolDetectionResult) MissingRequiredTools() []Tool {
	var missing []Tool
	for _, tool := range r.Tools {
		if tool.Required && tool.Status != ToolStatusInstalled {
			missing = append(missing, tool)
		}
	}
	return missing
}

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// LookPath searches for an executable named file in the PATH.
	LookPath(file string) (string, error)

	// Run executes a command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// DefaultCommandExecutor implements CommandExecutor using os/exec.
type DefaultCommandExecutor struct{}

// LookPath searches for an executable in the PATH.
func (e *DefaultCommandExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes a command and returns its combined output.
func (e *DefaultCommandExecutor) Run(ctx context.Context, name string, args ...string) (string, error) {
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(output), err
}

// ToolDetector detects the installation status of external tools.
type ToolDetector interface {
	Detect(ctx context.Context) (*ToolDetectionResult, error)
}

// DefaultToolDetector implements ToolDetector.
type DefaultToolDetector struct {
	executor CommandExecutor
}

// NewToolDetector creates a DefaultToolDetector using os/exec.
func NewToolDetector() *DefaultToolDetector {
	return &DefaultToolDetector{executor: &DefaultCommandExecutor{}}
}

// NewToolDetectorWithExecutor creates a DefaultToolDetector with a custom executor.
func NewToolDetectorWithExecutor(executor CommandExecutor) *DefaultToolDetector {
	return &DefaultToolDetector{executor: executor}
}

// toolSpec describes how to probe one tool. The first pattern whose first
// group matches the probe output is the version.
type toolSpec struct {
	name        string
	versionArg  string
	minVersion  string
	installHint string
	patterns    []*regexp.Regexp
}

// toolSpecs lists every tool a deployment runs, in pipeline order.
func toolSpecs() []toolSpec {
	return []toolSpec{
		{
			name:        constants.ToolGit,
			versionArg:  constants.VersionFlagStandard,
			minVersion:  constants.MinVersionGit,
			installHint: "Install Git from https://git-scm.com/downloads",
			patterns:    []*regexp.Regexp{gitVersionRe},
		},
		{
			// Bundler 2.5 prints a bare "2.5.3"; older releases "Bundler version 1.17.3".
			name:        constants.ToolBundle,
			versionArg:  constants.VersionFlagStandard,
			minVersion:  constants.MinVersionBundle,
			installHint: "Install Bundler: gem install bundler",
			patterns:    []*regexp.Regexp{bundleVersionRe},
		},
		{
			name:        constants.ToolRake,
			versionArg:  constants.VersionFlagStandard,
			installHint: "Install Rake: gem install rake",
			patterns:    []*regexp.Regexp{rakeVersionRe, genericVersionRe},
		},
		{
			name:        constants.ToolOpenSSL,
			versionArg:  constants.VersionArgOpenSSL,
			installHint: "Install OpenSSL from your system package manager",
			patterns:    []*regexp.Regexp{opensslVersionRe},
		},
	}
}

// parseVersion extracts the version from output, or "" when nothing matches.
func (s toolSpec) parseVersion(output string) string {
	for _, re := range s.patterns {
		if m := re.FindStringSubmatch(output); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// Detect probes every tool concurrently. Results keep pipeline order.
func (d *DefaultToolDetector) Detect(ctx context.Context) (*ToolDetectionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detectCtx, cancel := context.WithTimeout(ctx, constants.ToolDetectionTimeout)
	defer cancel()

	specs := toolSpecs()
	result := &ToolDetectionResult{Tools: make([]Tool, len(specs))}

	g, gCtx := errgroup.WithContext(detectCtx)
	for i, spec := range specs {
		g.Go(func() error {
			result.Tools[i] = d.probe(gCtx, spec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to detect tools: %w", err)
	}

	result.HasMissingRequired = len(result.MissingRequiredTools()) > 0
	return result, nil
}

// probe resolves the tool on PATH and runs its version command. A tool that runs
// but does not report a parsable version counts as installed.
func (d *DefaultToolDetector) probe(ctx context.Context, spec toolSpec) Tool {
	tool := Tool{
		Name:        spec.name,
		Required:    true,
		MinVersion:  spec.minVersion,
		InstallHint: spec.installHint,
		Status:      ToolStatusMissing,
	}
	if _, err := d.executor.LookPath(spec.name); err != nil {
		return tool
	}

	tool.Status = ToolStatusInstalled
	tool.CurrentVersion = unknownVersion

	output, err := d.executor.Run(ctx, spec.name, spec.versionArg)
	if err != nil {
		return tool
	}
	if v := spec.parseVersion(output); v != "" {
		tool.CurrentVersion = v
		if spec.minVersion != "" && CompareVersions(v, spec.minVersion) < 0 {
			tool.Status = ToolStatusOutdated
		}
	}
	return tool
}

// CompareVersions compares dotted versions by their first three numeric
// segments and returns -1, 0 or 1. Missing segments count as zero and a
// leading "v" is ignored, so "2.0" equals "v2.0.0".
func CompareVersions(current, required string) int {
	return slices.Compare(versionSegments(current), versionSegments(required))
}

// versionSegments returns the numeric prefix of each of the first
// maxVersionSegments dot-separated parts of v, zero padded.
func versionSegments(v string) []int {
	out := make([]int, maxVersionSegments)
	for i, seg := range strings.SplitN(strings.TrimPrefix(v, "v"), ".", maxVersionSegments+1) {
		if i == maxVersionSegments {
			break
		}
		digits := strings.IndexFunc(seg, func(r rune) bool { return !unicode.IsDigit(r) })
		if digits >= 0 {
			seg = seg[:digits]
		}
		out[i], _ = strconv.Atoi(seg)
	}
	return out
}

// FormatMissingToolsError renders missing tools with install hints.
func FormatMissingToolsError(missing []Tool) string {
	if len(missing) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Missing required tools:\n\n")
	for _, tool := range missing {
		status := "missing"
		if tool.Status == ToolStatusOutdated {
			status = fmt.Sprintf("outdated (have %s, need %s)", tool.CurrentVersion, tool.MinVersion)
		}
		fmt.Fprintf(&sb, "  • %s: %s\n", tool.Name, status)
		fmt.Fprintf(&sb, "    Install: %s\n\n", tool.InstallHint)
	}
	return sb.String()
}

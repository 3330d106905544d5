package deploy

import (
	"fmt"
	"time"

	"github.com/atilaneves/flycheck/internal/constants"
	"github.com/atilaneves/flycheck/internal/git"
)

// Outcome is how a deployment run ended without error.
type Outcome string

const (
	// OutcomeDeployed means changes were committed and pushed (or would have
	// been, on a dry run).
	OutcomeDeployed Outcome = "deployed"
	// OutcomeSkipped means the run stopped deliberately; see Result.SkipReason.
	OutcomeSkipped Outcome = "skipped"
)

// StepTiming records how long a pipeline step took.
type StepTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ns"`
}

// Result describes a finished deployment run.
type Result struct {
	RunID         string       `json:"run_id"`
	Outcome       Outcome      `json:"outcome"`
	SkipReason    string       `json:"skip_reason,omitempty"`
	DryRun        bool         `json:"dry_run,omitempty"`
	Revision      string       `json:"revision,omitempty"`
	CommitMessage string       `json:"commit_message,omitempty"`
	Commit        string       `json:"commit,omitempty"`
	Changes       *git.Status  `json:"changes,omitempty"`
	Steps         []StepTiming `json:"steps,omitempty"`
	StartedAt     time.Time    `json:"started_at"`
	FinishedAt    time.Time    `json:"finished_at"`
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Skipped reports whether the run was skipped.
func (r *Result) Skipped() bool {
	return r.Outcome == OutcomeSkipped
}

// SkipMessage formats the message printed for a skip, e.g.
// "DEPLOYMENT SKIPPED (pull request)".
func SkipMessage(reason string) string {
	return fmt.Sprintf("%s (%s)", constants.SkipPrefix, reason)
}

// ShortRevision returns the first ShortRevisionLength characters of rev.
func ShortRevision(rev string) string {
	if len(rev) > constants.ShortRevisionLength {
		return rev[:constants.ShortRevisionLength]
	}
	return rev
}

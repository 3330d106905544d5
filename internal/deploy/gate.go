package deploy

import (
	"fmt"

	"github.com/atilaneves/flycheck/internal/config"
)

// Skip reasons reported by the environment gate and change detection.
const (
	ReasonNotOurRepo        = "not our repo"
	ReasonPullRequest       = "pull request"
	ReasonSecureVarsMissing = "secure variables missing"
	ReasonNoChanges         = "no changes"
)

// Condition is one check of the environment gate.
type Condition struct {
	Variable string `json:"variable" yaml:"variable"`
	Expected string `json:"expected" yaml:"expected"`
	Actual   string `json:"actual" yaml:"actual"`
	Reason   string `json:"reason" yaml:"reason"`
	Passed   bool   `json:"passed" yaml:"passed"`
}

// EvaluateGate checks every gate condition against env, in gate order.
func EvaluateGate(cfg config.GateConfig, env config.Env) []Condition {
	checks := []struct {
		variable, expected, reason string
	}{
		{config.EnvRepoSlug, cfg.RepoSlug, ReasonNotOurRepo},
		{config.EnvPullRequest, cfg.PullRequest, ReasonPullRequest},
		{config.EnvSecureEnvVars, cfg.SecureEnvVars, ReasonSecureVarsMissing},
		{config.EnvBranch, cfg.Branch, branchReason(cfg.Branch)},
	}

	conditions := make([]Condition, len(checks))
	for i, c := range checks {
		actual := env.Get(c.variable)
		conditions[i] = Condition{
			Variable: c.variable,
			Expected: c.expected,
			Actual:   actual,
			Reason:   c.reason,
			Passed:   actual == c.expected,
		}
	}
	return conditions
}

// CheckGate returns the reason of the first failed condition, or "" and true
// when the environment may deploy.
func CheckGate(cfg config.GateConfig, env config.Env) (string, bool) {
	for _, c := range EvaluateGate(cfg, env) {
		if !c.Passed {
			return c.Reason, false
		}
	}
	return "", true
}

// branchReason yields "not the master branch" for the default gate.
func branchReason(branch string) string {
	return fmt.Sprintf("not the %s branch", branch)
}

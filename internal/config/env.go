package config

import (
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/atilaneves/flycheck/internal/errors"
)

// Environment variables set by Travis CI that a deployment reads.
const (
	EnvCI            = "CI"
	EnvTravis        = "TRAVIS"
	EnvRepoSlug      = "TRAVIS_REPO_SLUG"
	EnvPullRequest   = "TRAVIS_PULL_REQUEST"
	EnvSecureEnvVars = "TRAVIS_SECURE_ENV_VARS"
	EnvBranch        = "TRAVIS_BRANCH"
	EnvCommit        = "TRAVIS_COMMIT"
)

const envTrue = "true"

// Env is a read-only snapshot of the process environment taken once at the
// start of a run. The zero value is an empty environment.
type Env struct {
	vars map[string]string
}

// NewEnv returns a snapshot holding a copy of vars.
func NewEnv(vars map[string]string) Env {
	cp := make(map[string]string, len(vars))
	for k, v := range vars {
		cp[k] = v
	}
	return Env{vars: cp}
}

// EnvFromOS snapshots os.Environ.
func EnvFromOS() Env {
	return NewEnv(parseEnviron(os.Environ()))
}

// LoadEnv snapshots the process environment and, when envFile is set, fills
// in variables from that dotenv file. Variables already present in the
// process environment always win over the file.
func LoadEnv(envFile string) (Env, error) {
	vars := parseEnviron(os.Environ())
	if envFile == "" {
		return Env{vars: vars}, nil
	}

	fileVars, err := godotenv.Read(envFile)
	if err != nil {
		return Env{}, errors.Wrapf(errors.ErrEnvFileInvalid, "%s: %v", envFile, err)
	}
	for k, v := range fileVars {
		if _, ok := vars[k]; !ok {
			vars[k] = v
		}
	}
	return Env{vars: vars}, nil
}

// Get returns the value of name, or "" when unset.
func (e Env) Get(name string) string {
	return e.vars[name]
}

// Lookup returns the value of name and whether it is set.
func (e Env) Lookup(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Len returns the number of variables in the snapshot.
func (e Env) Len() int {
	return len(e.vars)
}

// IsTravisCI reports whether the snapshot comes from a Travis CI job.
func (e Env) IsTravisCI() bool {
	return e.Get(EnvCI) == envTrue && e.Get(EnvTravis) == envTrue
}

// Environ returns the snapshot as sorted NAME=value pairs, dropping every
// variable matched by one of strip. A strip entry ending in "*" matches by prefix.
func (e Env) Environ(strip ...string) []string {
	out := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		if matchesAny(k, strip) {
			continue
		}
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(name, prefix) {
				return true
			}
			continue
		}
		if name == p {
			return true
		}
	}
	return false
}

func parseEnviron(environ []string) map[string]string {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = v
	}
	return vars
}

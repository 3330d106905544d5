package git

import (
	"strconv"
	"strings"
)

// Status groups changed paths from git status --porcelain.
// Untracked files are reported as Added: a new page produced by the build is
// a change that has to be deployed.
type Status struct {
	Added   []string `json:"added"`
	Deleted []string `json:"deleted"`
	Changed []string `json:"changed"`
}

// HasChanges reports whether any path was added, deleted or changed.
func (s *Status) HasChanges() bool {
	return s != nil && len(s.Added)+len(s.Deleted)+len(s.Changed) > 0
}

// Count returns the number of changed paths.
func (s *Status) Count() int {
	if s == nil {
		return 0
	}
	return len(s.Added) + len(s.Deleted) + len(s.Changed)
}

// ParseStatus parses porcelain v1 output ("XY PATH" or "XY ORIG -> PATH").
func ParseStatus(output string) *Status {
	status := &Status{
		Added:   []string{},
		Deleted: []string{},
		Changed: []string{},
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 || strings.HasPrefix(line, "## ") {
			continue
		}

		x, y := line[0], line[1]
		path := line[3:]
		if _, dest, ok := strings.Cut(path, " -> "); ok {
			path = dest
		}
		path = unquotePath(path)

		switch {
		case x == '?' && y == '?':
			status.Added = append(status.Added, path)
		case x == '!':
			// ignored files never deploy
		case x == 'D' || y == 'D':
			status.Deleted = append(status.Deleted, path)
		case x == 'A':
			status.Added = append(status.Added, path)
		default:
			status.Changed = append(status.Changed, path)
		}
	}
	return status
}

// unquotePath undoes git's C-style quoting of paths with special characters.
func unquotePath(path string) string {
	if len(path) >= 2 && path[0] == '"' && path[len(path)-1] == '"' {
		if unquoted, err := strconv.Unquote(path); err == nil {
			return unquoted
		}
	}
	return path
}

package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// versionTimeout bounds each version check so a hung binary cannot stall doctor.
const versionTimeout = 5 * time.Second

// Requirement names an external binary and how to ask it for a version.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs is passed to Command to print a version banner. Empty skips the check.
	VersionArgs []string
}

// Status is the outcome of resolving one Requirement.
type Status struct {
	Requirement
	Path      string
	Available bool
	Version   string
	Detail    string
}

// Missing reports whether a required (non-optional) binary could not be found.
func (s Status) Missing() bool {
	return !s.Available && !s.Optional
}

// CheckBinaries resolves each requirement on PATH and reads its version.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		results[i] = resolve(ctx, req)
	}
	return results
}

func resolve(ctx context.Context, req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return status
	}
	status.Path = path
	status.Available = true
	if len(req.VersionArgs) > 0 {
		status.Version = readVersion(ctx, path, req.VersionArgs)
	}
	return status
}

// readVersion returns the first non-empty output line, or "" when the command fails.
func readVersion(ctx context.Context, path string, args []string) string {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}

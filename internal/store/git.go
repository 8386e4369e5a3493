package store

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"

	"fbscrape/internal/version"
)

// StageError reports a failed git staging of the archive directory. A failed
// `git add` means the run's snapshots were not captured, so unlike a commit
// that records nothing it surfaces as a run-level error.
type StageError struct {
	Dir string
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage archive %s: %v", e.Dir, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// identity returns the synthetic committer identity recorded on archive
// commits: the product as the name, invoking user and host as the email.
func identity() (name, email string) {
	name = "fbscrape v" + version.Version

	username := "fbscrape"
	if u, err := user.Current(); err == nil && u.Username != "" {
		username = u.Username
	} else if env := os.Getenv("USER"); env != "" {
		username = env
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return name, username + "@" + host
}

// gitCommand builds a git invocation running in dir with the synthetic
// identity. Git's stdout is redirected to stderr so that data output on
// stdout stays clean.
func gitCommand(ctx context.Context, dir string, args ...string) *exec.Cmd {
	name, email := identity()
	argv := append([]string{
		"-c", "user.name=" + name,
		"-c", "user.email=" + email,
	}, args...)
	cmd := exec.CommandContext(ctx, "git", argv...)
	cmd.Dir = dir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd
}

package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/logger"
)

// Runner executes git against local clones kept under a base
// directory. Every owner, repo, branch and path it receives goes
// through Sanitize before touching a command line.
type Runner struct {
	baseDir string
	timeout time.Duration
}

// NewRunner creates a git runner keeping clones under baseDir. An
// empty baseDir selects a ferry directory under the user cache dir,
// and a non-positive timeout falls back to the default.
func NewRunner(baseDir string, timeout time.Duration) *Runner {
	if baseDir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			cache = os.TempDir()
		}
		baseDir = filepath.Join(cache, "ferry", "repos")
	}
	if timeout <= 0 {
		timeout = domain.DefaultGitTimeout
	}
	return &Runner{baseDir: baseDir, timeout: timeout}
}

// RepoDir returns the local clone path for owner/repo.
func (r *Runner) RepoDir(owner, repo string) (string, error) {
	if err := Sanitize("owner", owner); err != nil {
		return "", err
	}
	if err := Sanitize("repository", repo); err != nil {
		return "", err
	}
	return filepath.Join(r.baseDir, owner, repo), nil
}

// CloneURL derives the git remote URL for owner/repo from an API
// endpoint, embedding token as the userinfo when present. The
// github.com API host maps back to the github.com git host, and a
// Gitea /api/v1 suffix is dropped.
func CloneURL(endpoint, owner, repo, token string) (string, error) {
	if err := Sanitize("owner", owner); err != nil {
		return "", err
	}
	if err := Sanitize("repository", repo); err != nil {
		return "", err
	}

	base := strings.TrimRight(endpoint, "/")
	base = strings.TrimSuffix(base, "/api/v1")
	if strings.Contains(base, "api.github.com") {
		base = "https://github.com"
	}

	if token != "" {
		scheme, rest, ok := strings.Cut(base, "://")
		if ok {
			base = scheme + "://" + token + "@" + rest
		}
	}
	return base + "/" + owner + "/" + repo + ".git", nil
}

// Clone makes a fresh shallow single-branch clone of cloneURL at dir,
// replacing whatever was there before.
func (r *Runner) Clone(ctx context.Context, cloneURL, branch, dir string) error {
	if err := Sanitize("branch", branch); err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove stale clone: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return fmt.Errorf("create clone parent: %w", err)
	}

	logger.Info("Cloning %s to %s", MaskCredentials(cloneURL), dir)
	_, err := r.run(ctx, "", "clone", "--branch", branch, "--single-branch", "--depth", "1", cloneURL, dir)
	return err
}

// Pull fast-forwards the clone at dir.
func (r *Runner) Pull(ctx context.Context, dir string) error {
	logger.Debug("Pulling updates in %s", dir)
	_, err := r.run(ctx, dir, "pull", "--ff-only")
	return err
}

// Clean removes untracked files and directories from the clone so
// leftovers of earlier syncs cannot show up in tree listings.
func (r *Runner) Clean(ctx context.Context, dir string) error {
	_, err := r.run(ctx, dir, "clean", "-fd")
	return err
}

// Ensure brings the clone at dir up to date: a fast-forward pull when
// the clone exists, a fresh clone otherwise. A failing pull falls back
// to one delete and re-clone.
func (r *Runner) Ensure(ctx context.Context, cloneURL, branch, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		if err := r.Pull(ctx, dir); err == nil {
			return r.Clean(ctx, dir)
		}
		logger.Info("Pull failed, re-cloning %s", MaskCredentials(cloneURL))
	}
	if err := r.Clone(ctx, cloneURL, branch, dir); err != nil {
		return err
	}
	return r.Clean(ctx, dir)
}

// FileLastCommit returns the SHA and author time of the commit that
// last touched path inside the clone at dir. Both are empty when git
// has no record of the file.
func (r *Runner) FileLastCommit(ctx context.Context, dir, path string) (string, *time.Time, error) {
	if err := Sanitize("path", path); err != nil {
		return "", nil, err
	}
	out, err := r.run(ctx, dir, "log", "-1", "--format=%H|%aI", "--", path)
	if err != nil {
		return "", nil, err
	}
	return parseLastCommit(out)
}

// parseLastCommit splits the %H|%aI log format. Output without the
// separator means the file has no commit history.
func parseLastCommit(out string) (string, *time.Time, error) {
	sha, stamp, ok := strings.Cut(strings.TrimSpace(out), "|")
	if !ok || sha == "" {
		return "", nil, nil
	}
	at, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return sha, nil, nil
	}
	return sha, &at, nil
}

// run executes a git subcommand in dir, enforcing the runner timeout.
// Stderr is folded into the returned error with credentials masked.
func (r *Runner) run(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("git %s timed out after %s", args[0], r.timeout)
		}
		if detail := MaskCredentials(strings.TrimSpace(stderr.String())); detail != "" {
			return "", fmt.Errorf("git %s: %s", args[0], detail)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout.String(), nil
}

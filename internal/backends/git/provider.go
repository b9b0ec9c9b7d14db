// Package git reads changed files and historical file content out of a
// local git repository by shelling out to the git binary.
package git

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"pybreak/internal/errors"
	"pybreak/internal/logging"
)

const (
	// DefaultTimeout bounds a single git invocation.
	DefaultTimeout = 5000 * time.Millisecond
)

// Runner executes a git command in dir and returns its stdout.
// Injectable so tests can run without a repository.
type Runner func(ctx context.Context, dir string, args ...string) (string, error)

// Provider resolves file sets and file content between two revisions.
type Provider struct {
	repoRoot string
	baseRef  string
	headRef  string
	timeout  time.Duration
	run      Runner
	logger   *logging.Logger
}

type Option func(*Provider)

// WithRunner replaces the exec-backed runner.
func WithRunner(run Runner) Option {
	return func(p *Provider) { p.run = run }
}

// WithTimeout overrides the per-command timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewProvider(repoRoot, baseRef, headRef string, logger *logging.Logger, opts ...Option) *Provider {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Provider{
		repoRoot: repoRoot,
		baseRef:  baseRef,
		headRef:  headRef,
		timeout:  DefaultTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.run == nil {
		p.run = p.execGit
	}
	return p
}

// Verify checks that repoRoot is inside a git work tree.
func (p *Provider) Verify(ctx context.Context) error {
	out, err := p.run(ctx, p.repoRoot, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return errors.Wrap(errors.GitUnavailable, "not a git repository: "+p.repoRoot, err)
	}
	if strings.TrimSpace(out) != "true" {
		return errors.New(errors.GitUnavailable, "not a git repository: "+p.repoRoot)
	}
	return nil
}

// ChangedFiles lists the Python files that differ between the base and head
// revisions. Deleted files are included so their removals surface as changes.
func (p *Provider) ChangedFiles(ctx context.Context) ([]string, error) {
	out, err := p.run(ctx, p.repoRoot,
		"diff", "--name-only", "--diff-filter=ACMRD", p.baseRef+"..."+p.headRef)
	if err != nil {
		return nil, errors.Wrap(errors.GitUnavailable,
			"git diff failed for "+p.baseRef+"..."+p.headRef, err)
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasSuffix(line, ".py") {
			continue
		}
		files = append(files, line)
	}
	p.logger.Debug("changed files resolved", map[string]interface{}{
		"base":  p.baseRef,
		"head":  p.headRef,
		"count": len(files),
	})
	return files, nil
}

// ContentAt returns the content of filePath at revision. A file that does
// not exist at that revision yields an empty string, not an error, so that
// additions and deletions flow through the same comparison path.
func (p *Provider) ContentAt(ctx context.Context, filePath, revision string) (string, error) {
	out, err := p.run(ctx, p.repoRoot, "show", revision+":"+filePath)
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// git show exits non-zero when the path is absent at the
			// revision. That is the normal added/deleted file case.
			return "", nil
		}
		if errors.HasCode(err, errors.GitUnavailable) {
			return "", err
		}
		return "", errors.Wrap(errors.ContentUnavailable,
			"git show failed for "+revision+":"+filePath, err)
	}
	return out, nil
}

func (p *Provider) execGit(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.Wrap(errors.GitUnavailable, "git command timed out", err)
		}
		p.logger.Debug("git command failed", map[string]interface{}{
			"args":   args,
			"stderr": strings.TrimSpace(stderr.String()),
		})
		return "", err
	}
	return stdout.String(), nil
}

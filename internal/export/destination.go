package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DestinationError reports a failed write to one destination.
type DestinationError struct {
	Kind string // "file", "git" or "s3"
	Err  error
}

func (e *DestinationError) Error() string {
	return fmt.Sprintf("export to %s: %v", e.Kind, e.Err)
}

func (e *DestinationError) Unwrap() error { return e.Err }

// FileDestination writes exports to a local path, or streams them to a
// writer when built with "-".
type FileDestination struct {
	path string
	out  io.Writer
}

// NewFileDestination returns a destination for path. Missing parent
// directories are created on write.
func NewFileDestination(path string) *FileDestination {
	if path == "-" {
		return &FileDestination{out: os.Stdout}
	}
	return &FileDestination{path: path}
}

// Write replaces the file atomically so readers never see a partial export.
func (d *FileDestination) Write(_ context.Context, data []byte) error {
	if d.out != nil {
		if _, err := d.out.Write(data); err != nil {
			return &DestinationError{Kind: "file", Err: err}
		}
		return nil
	}
	if err := replaceFile(d.path, data); err != nil {
		return &DestinationError{Kind: "file", Err: err}
	}
	return nil
}

func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// GitDestination commits each export to a file inside an existing clone and
// pushes the branch. Unchanged exports produce no commit.
type GitDestination struct {
	repo   string
	file   string
	branch string
}

func NewGitDestination(repo, file, branch string) *GitDestination {
	return &GitDestination{repo: repo, file: file, branch: branch}
}

func (d *GitDestination) Write(ctx context.Context, data []byte) error {
	if err := d.write(ctx, data); err != nil {
		return &DestinationError{Kind: "git", Err: err}
	}
	return nil
}

func (d *GitDestination) write(ctx context.Context, data []byte) error {
	if _, err := d.git(ctx, "checkout", d.branch); err != nil {
		return err
	}
	// A new remote has no branch to pull yet.
	_, _ = d.git(ctx, "pull", "--ff-only", "origin", d.branch)

	if err := replaceFile(filepath.Join(d.repo, d.file), data); err != nil {
		return err
	}
	if _, err := d.git(ctx, "add", "--", d.file); err != nil {
		return err
	}
	if _, err := d.git(ctx, "diff", "--cached", "--quiet"); err == nil {
		return nil
	}
	msg := fmt.Sprintf("export: %s (%d lines)", d.file, bytes.Count(data, []byte("\n")))
	if _, err := d.git(ctx, "commit", "-m", msg); err != nil {
		return err
	}
	_, err := d.git(ctx, "push", "origin", d.branch)
	return err
}

func (d *GitDestination) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.repo
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

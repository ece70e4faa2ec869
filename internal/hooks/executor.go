// Package hooks runs shell commands in response to form events.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Default and max timeout for hook commands.
const (
	DefaultTimeout = 30 * time.Second
	MaxTimeout     = 5 * time.Minute
)

// Result is the outcome of one hook run. Output is stdout, or stderr when
// stdout is empty.
type Result struct {
	Output   string
	ExitCode int // -1 when the command did not exit normally
	Duration time.Duration
	Err      error
}

// TimedOut reports whether the run was killed at its timeout.
func (r Result) TimedOut() bool {
	return errors.Is(r.Err, context.DeadlineExceeded)
}

// timeout clamps the configured seconds to (0, MaxTimeout].
func (h Hook) timeout() time.Duration {
	d := time.Duration(h.Timeout) * time.Second
	if d <= 0 {
		return DefaultTimeout
	}
	return min(d, MaxTimeout)
}

// Execute runs h.Command via "sh -c" with the process environment plus env.
// A Dir that is not an existing directory is ignored.
func Execute(ctx context.Context, h Hook, env map[string]string) Result {
	runCtx, cancel := context.WithTimeout(ctx, h.timeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", h.Command) //nolint:gosec // hook commands come from the operator's hooks file
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children that outlive sh would otherwise keep the output pipes open.
	cmd.WaitDelay = time.Second
	if h.Dir != "" {
		if info, err := os.Stat(h.Dir); err == nil && info.IsDir() {
			cmd.Dir = h.Dir
		}
	}
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Output:   strings.TrimSpace(stdout.String()),
		ExitCode: -1,
		Duration: time.Since(start),
		Err:      err,
	}
	if res.Output == "" {
		res.Output = strings.TrimSpace(stderr.String())
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.Err = context.DeadlineExceeded
	}
	return res
}

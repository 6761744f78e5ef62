package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ErrOutputLimit is returned when a tool writes more than the runner allows.
var ErrOutputLimit = errors.New("output exceeds limit")

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs real binaries. Stdout is capped at MaxStdoutBytes so a
// cursed PDF can't OOM the process; zero means 64 MiB.
type ExecRunner struct {
	MaxStdoutBytes int64
	Logger         *slog.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := r.MaxStdoutBytes
	if limit <= 0 {
		limit = 64 << 20
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)

	var errb bytes.Buffer
	cmd.Stderr = &errb

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start %s: %w", name, err)
	}

	// Read one byte past the limit to detect overflow.
	out, readErr := io.ReadAll(io.LimitReader(stdoutPipe, limit+1))
	if int64(len(out)) > limit {
		_ = cmd.Process.Kill()
	}
	waitErr := cmd.Wait()
	dur := time.Since(start)

	switch {
	case readErr != nil:
		err = fmt.Errorf("read stdout: %w", readErr)
	case int64(len(out)) > limit:
		err = ErrOutputLimit
		out = nil
	default:
		err = waitErr
	}

	if err != nil {
		logger.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10),
		)
	} else {
		logger.Debug("exec ok",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", len(out),
			"stderr_bytes", errb.Len(),
		)
	}

	return out, errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

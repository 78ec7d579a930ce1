// Package inspect runs a command and, when it fails, records what the user
// was doing in MineContext next to the command output as a trajectory file.
package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/HendryAvila/mcagent/internal/logging"
	"github.com/HendryAvila/mcagent/internal/screen"
)

const (
	// DefaultTimeout bounds a single inspected command.
	DefaultTimeout = 5 * time.Minute

	// maxOutputExcerpt is how many characters of output a bash step keeps.
	maxOutputExcerpt = 2000

	// TimedOutExitCode is recorded when the command is killed on timeout.
	TimedOutExitCode = -1

	timedOutOutput = "Command timed out."
)

// Step types.
const (
	StepBash        = "bash"
	StepMineContext = "minecontext_context"
)

// ContextSource summarises the user's current screen context.
type ContextSource interface {
	ScreenContext(ctx context.Context, taskType, detailLevel string) *screen.Summary
}

// BashStep records one command execution.
type BashStep struct {
	Type          string `json:"type"`
	Command       string `json:"command"`
	ExitCode      int    `json:"exit_code"`
	OutputExcerpt string `json:"output_excerpt"`
}

// ContextStep records the screen context captured after a failure.
type ContextStep struct {
	Type   string          `json:"type"`
	Result *screen.Summary `json:"result"`
}

// Trajectory is the saved record of an inspected run.
type Trajectory struct {
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
	Steps     []any  `json:"steps"`

	// Path is where the trajectory was written; it is not part of the file.
	Path string `json:"-"`
	// ExitCode mirrors the bash step.
	ExitCode int `json:"-"`
}

// Failed reports whether the inspected command exited non-zero.
func (t *Trajectory) Failed() bool { return t.ExitCode != 0 }

// Options configures an Inspector.
type Options struct {
	Timeout   time.Duration
	OutputDir string
}

// Inspector runs commands and writes trajectories.
type Inspector struct {
	ctxSource ContextSource
	timeout   time.Duration
	outputDir string
	logger    *log.Logger
}

// New creates an Inspector. Zero options mean DefaultTimeout and the
// working directory.
func New(src ContextSource, opts Options, logger *log.Logger) *Inspector {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Inspector{
		ctxSource: src,
		timeout:   opts.Timeout,
		outputDir: opts.OutputDir,
		logger:    logging.OrDiscard(logger),
	}
}

// Run executes args and saves a trajectory. A single argument is run through
// "sh -c" so shell syntax works; more arguments are executed directly. A
// non-zero exit is not an error: it is reported through the trajectory.
func (in *Inspector) Run(ctx context.Context, args []string) (*Trajectory, error) {
	if len(args) == 0 {
		return nil, errors.New("no command to inspect")
	}
	command := strings.Join(args, " ")
	started := timeNow()

	code, output, err := in.execute(ctx, args)
	if err != nil {
		return nil, err
	}
	in.logger.Info("command finished", "command", command, "exit_code", code)

	t := &Trajectory{
		Timestamp: started.Format("2006-01-02T15:04:05"),
		Command:   command,
		ExitCode:  code,
		Steps: []any{BashStep{
			Type:          StepBash,
			Command:       command,
			ExitCode:      code,
			OutputExcerpt: excerpt(output),
		}},
	}
	if code != 0 {
		summary := in.ctxSource.ScreenContext(ctx, "debug_error", "medium")
		if summary.Error != nil {
			in.logger.Warn("screen context unavailable", "type", summary.Error.Type, "hint", summary.Error.Hint)
		}
		t.Steps = append(t.Steps, ContextStep{Type: StepMineContext, Result: summary})
	}

	path, err := in.save(t, started)
	if err != nil {
		return nil, err
	}
	t.Path = path
	return t, nil
}

func (in *Inspector) execute(ctx context.Context, args []string) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, in.timeout)
	defer cancel()

	var cmd *exec.Cmd
	if len(args) == 1 {
		cmd = exec.CommandContext(ctx, "sh", "-c", args[0])
	} else {
		cmd = exec.CommandContext(ctx, args[0], args[1:]...)
	}
	output, err := cmd.CombinedOutput()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return TimedOutExitCode, timedOutOutput, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return 0, "", fmt.Errorf("running %s: %w", args[0], err)
		}
		return exitErr.ExitCode(), string(output), nil
	}
	return 0, string(output), nil
}

func (in *Inspector) save(t *Trajectory, at time.Time) (string, error) {
	if err := os.MkdirAll(in.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return "", fmt.Errorf("encoding trajectory: %w", err)
	}

	path := filepath.Join(in.outputDir, "trajectory_"+at.Format("20060102_150405")+".json")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing trajectory: %w", err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

// excerpt keeps the first maxOutputExcerpt characters of output.
func excerpt(output string) string {
	r := []rune(output)
	if len(r) <= maxOutputExcerpt {
		return output
	}
	return string(r[:maxOutputExcerpt])
}

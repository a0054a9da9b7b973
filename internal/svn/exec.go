package svn

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// CommandResult records one external command invocation: what ran, what
// it printed, and whether the process host reported failure. Results are
// consumed and discarded; no history is retained.
type CommandResult struct {
	Program string
	Args    []string
	WorkDir string
	Stdout  string
	Stderr  string

	// Failed is true when the process exited nonzero. A nonzero exit
	// with stderr content is classified by the caller, not here.
	Failed bool
}

// Successful reports whether the process exited cleanly.
func (r CommandResult) Successful() bool {
	return !r.Failed
}

// HasOutput reports whether the process produced any stdout.
func (r CommandResult) HasOutput() bool {
	return strings.TrimSpace(r.Stdout) != ""
}

// ProgressFunc is invoked once per line of process output while a
// long-running command executes.
type ProgressFunc func(line string)

// Runner executes external svn commands. The engine depends on this
// interface so tests can substitute a stub client.
type Runner interface {
	// Execute runs one process to completion, capturing stdout and
	// stderr incrementally. progress may be nil. The returned error is
	// non-nil only when the process could not be launched at all, which
	// signals a missing or misconfigured client binary.
	Execute(ctx context.Context, args []string, progress ProgressFunc) (CommandResult, error)
}

// ProcessRunner runs a named client binary in a fixed working directory.
type ProcessRunner struct {
	// Program is the client binary, typically "svn".
	Program string

	// WorkDir is the working-copy root commands run in.
	WorkDir string
}

// NewRunner creates a ProcessRunner for the given binary and working copy.
func NewRunner(program, workDir string) *ProcessRunner {
	if program == "" {
		program = "svn"
	}
	return &ProcessRunner{Program: program, WorkDir: workDir}
}

// Execute implements Runner. Exactly one process runs to completion;
// stdout and stderr are consumed line by line so progress callbacks fire
// while the command is still running.
func (p *ProcessRunner) Execute(ctx context.Context, args []string, progress ProgressFunc) (CommandResult, error) {
	result := CommandResult{
		Program: p.Program,
		Args:    args,
		WorkDir: p.WorkDir,
	}

	cmd := exec.CommandContext(ctx, p.Program, args...)
	cmd.Dir = p.WorkDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrClientMissing, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrClientMissing, err)
	}

	if err := cmd.Start(); err != nil {
		return result, fmt.Errorf("%w: %v", ErrClientMissing, err)
	}

	var wg sync.WaitGroup
	var outBuf, errBuf strings.Builder

	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			outBuf.WriteString(line)
			outBuf.WriteByte('\n')
			if progress != nil {
				progress(line)
			}
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			errBuf.WriteString(scanner.Text())
			errBuf.WriteByte('\n')
		}
	}()

	wg.Wait()
	waitErr := cmd.Wait()

	result.Stdout = outBuf.String()
	result.Stderr = errBuf.String()
	result.Failed = waitErr != nil

	return result, nil
}

// LookPath reports whether the client binary can be found, without
// running it. Used by installation checks at startup.
func (p *ProcessRunner) LookPath() error {
	if _, err := exec.LookPath(p.Program); err != nil {
		return fmt.Errorf("%w: %v", ErrClientMissing, err)
	}
	return nil
}

// Version returns the client binary version string.
func (p *ProcessRunner) Version(ctx context.Context) (string, error) {
	result, err := p.Execute(ctx, []string{"--version", "--quiet"}, nil)
	if err != nil {
		return "", err
	}
	if err := ResultError(result); err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}

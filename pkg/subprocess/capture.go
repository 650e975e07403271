// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package subprocess runs external commands and streams their stdout and
// stderr back to the caller line-by-line through a single callback, the
// shared capture model every device-manager adapter (mtx, mt, mkfs-style
// formatting) is built on.
package subprocess

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	rterrors "github.com/stratastor/rodent/pkg/errors"
)

// Channel identifies which pipe a captured line came from.
type Channel int

const (
	Stdout Channel = iota
	Stderr
)

func (c Channel) String() string {
	if c == Stderr {
		return "stderr"
	}
	return "stdout"
}

// LineCallback is invoked once per line, in arrival order per channel.
// Stdout and stderr are read on two separate goroutines, so the callback
// does not run on the goroutine that called Capture, and calls for the two
// channels may run concurrently. It must not block indefinitely: each
// channel's reader waits for it before reading that channel's next line.
type LineCallback func(ch Channel, line string)

// Result classifies how the command ended, per the exit-code table.
type Result string

const (
	ResultSuccess          Result = "success"
	ResultPermissionDenied Result = "permission-denied"
	ResultNoSuchFile       Result = "no-such-file"
	ResultInvalidArgument  Result = "invalid-argument"
	ResultNoChild          Result = "no-child"
	ResultInterrupted      Result = "interrupted"
	ResultIOError          Result = "i/o-error"
)

// dangerousChars mirrors the validation the teacher's command executor
// applies before ever invoking exec.Command, rejecting shell metacharacters
// that have no business appearing in an argv element built from config or
// catalog-sourced strings.
const dangerousChars = "&|><`$\\[];{}"

func validateArg(arg string) error {
	if strings.ContainsAny(arg, dangerousChars) {
		return rterrors.New(rterrors.LRSInvalidArgument, "argument contains disallowed characters").
			WithMetadata("argument", arg)
	}
	return nil
}

// Capture runs name with args to completion, invoking onLine for every
// line written to stdout or stderr as it arrives. It waits for both pipe
// readers to hit EOF before calling cmd.Wait, since Wait closes the pipes
// as soon as the process exits.
func Capture(ctx context.Context, name string, args []string, onLine LineCallback) (Result, error) {
	for _, a := range args {
		if err := validateArg(a); err != nil {
			return ResultInvalidArgument, err
		}
	}

	cmd := exec.CommandContext(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return ResultNoChild, rterrors.New(rterrors.LRSInvalidArgument, "failed to open stdout pipe").WithMetadata("error", err.Error())
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return ResultNoChild, rterrors.New(rterrors.LRSInvalidArgument, "failed to open stderr pipe").WithMetadata("error", err.Error())
	}

	if err := cmd.Start(); err != nil {
		return ResultNoChild, rterrors.New(rterrors.LRSInvalidArgument, "failed to spawn command").
			WithMetadata("command", name).WithMetadata("error", err.Error())
	}

	// cmd.Wait closes the stdout/stderr pipes as soon as the process exits,
	// so both readers must be confirmed drained before Wait is called —
	// calling it concurrently with the reads risks truncating buffered
	// trailing output.
	var wg sync.WaitGroup
	wg.Add(2)
	go streamLines(&wg, stdout, Stdout, onLine)
	go streamLines(&wg, stderr, Stderr, onLine)
	wg.Wait()

	err = cmd.Wait()

	return classify(err), wrapErr(name, err)
}

func streamLines(wg *sync.WaitGroup, r io.Reader, ch Channel, onLine LineCallback) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if onLine != nil {
			onLine(ch, scanner.Text())
		}
	}
}

func wrapErr(name string, err error) error {
	if err == nil {
		return nil
	}
	exitCode := -1
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		exitCode = exitErr.ExitCode()
	}
	return rterrors.NewCommandError(name, exitCode, err.Error())
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}

func classify(err error) Result {
	if err == nil {
		return ResultSuccess
	}
	var exitErr *exec.ExitError
	if asExitError(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return ResultInterrupted
		}
		switch exitErr.ExitCode() {
		case 0:
			return ResultSuccess
		case 126:
			return ResultPermissionDenied
		case 127:
			return ResultNoSuchFile
		case 128:
			return ResultInvalidArgument
		default:
			return ResultNoChild
		}
	}
	return ResultIOError
}

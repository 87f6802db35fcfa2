// Package build turns generated assembly into an executable by driving the
// system C compiler, which handles assembling and linking against libc in one
// step.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kindred-lang/kindred/internal/diag"
)

// Error describes a failed toolchain invocation.
type Error struct {
	Code     diag.Code
	Message  string
	ExitCode int
	Stderr   string
}

func (e *Error) Error() string { return e.Message }

// ToDiagnostic converts a build error into the shared diagnostic structure.
// Toolchain output is attached as notes so the one-line form stays short.
func (e *Error) ToDiagnostic() diag.Diagnostic {
	d := diag.Diagnostic{
		Stage:    diag.StageBuild,
		Severity: diag.SeverityError,
		Kind:     diag.KindBuild,
		Code:     e.Code,
		Message:  e.Message,
	}
	if e.Stderr != "" {
		for _, line := range strings.Split(strings.TrimRight(e.Stderr, "\n"), "\n") {
			d = d.WithNote(line)
		}
	}
	return d
}

// DefaultTimeout bounds a single toolchain invocation.
const DefaultTimeout = 30 * time.Second

// Emitter invokes the external toolchain.
type Emitter struct {
	// CC is the compiler driver binary. Defaults to "cc" in PATH.
	CC string
	// Timeout bounds each invocation.
	Timeout time.Duration
	// ExtraFlags are passed through to the driver after the default flags.
	ExtraFlags []string
}

// NewEmitter returns an emitter with default settings.
func NewEmitter() *Emitter {
	return &Emitter{CC: "cc", Timeout: DefaultTimeout}
}

// Assemble assembles and links asmPath into an executable at outPath. A nil
// return means outPath exists and is runnable.
func (e *Emitter) Assemble(ctx context.Context, asmPath, outPath string) *Error {
	cc := e.CC
	if cc == "" {
		cc = "cc"
	}
	path, err := exec.LookPath(cc)
	if err != nil {
		return &Error{
			Code:    diag.CodeBuildToolchainMissing,
			Message: fmt.Sprintf("toolchain '%s' not found in PATH", cc),
		}
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"-o", outPath, asmPath, "-no-pie"}
	args = append(args, e.ExtraFlags...)
	cmd := exec.CommandContext(ctx, path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &Error{
				Code:    diag.CodeBuildToolchainFailure,
				Message: fmt.Sprintf("toolchain '%s' timed out after %s", cc, timeout),
				Stderr:  stderr.String(),
			}
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &Error{
			Code:     diag.CodeBuildToolchainFailure,
			Message:  fmt.Sprintf("toolchain '%s' failed with exit code %d", cc, exitCode),
			ExitCode: exitCode,
			Stderr:   stderr.String(),
		}
	}
	return nil
}

package build

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"

	"github.com/kindred-lang/kindred/internal/diag"
)

func TestAssemble_MissingToolchain(t *testing.T) {
	e := &Emitter{CC: "definitely-not-a-real-compiler"}

	dir := t.TempDir()
	err := e.Assemble(context.Background(), filepath.Join(dir, "in.s"), filepath.Join(dir, "out"))

	be.True(t, err != nil)
	be.Equal(t, err.Code, diag.CodeBuildToolchainMissing)

	d := err.ToDiagnostic()
	be.Equal(t, d.Kind, diag.KindBuild)
	be.Equal(t, d.Stage, diag.StageBuild)
}

func TestError_ToDiagnosticNotes(t *testing.T) {
	err := &Error{
		Code:     diag.CodeBuildToolchainFailure,
		Message:  "toolchain 'cc' failed with exit code 1",
		ExitCode: 1,
		Stderr:   "in.s: error one\nin.s: error two\n",
	}

	d := err.ToDiagnostic()
	be.Equal(t, len(d.Notes), 2)
	be.Equal(t, d.Notes[0], "in.s: error one")
	be.Equal(t, d.Notes[1], "in.s: error two")
}

func TestNewEmitter_Defaults(t *testing.T) {
	e := NewEmitter()
	be.Equal(t, e.CC, "cc")
	be.Equal(t, e.Timeout, DefaultTimeout)
}

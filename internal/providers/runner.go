package providers

import (
	"os/exec"
	"strings"

	"github.com/rustyhorde/vergen-sub001/internal/emit"
)

// CmdRunner executes an external tool and returns its trimmed stdout.
// Providers take a CmdRunner instead of calling os/exec directly so tests
// can substitute canned output for git, rustc, and cargo.
type CmdRunner func(name string, args ...string) (string, error)

// execRunner returns the production CmdRunner. dir sets the working
// directory for the spawned process; empty means inherit.
func execRunner(dir string) CmdRunner {
	return func(name string, args ...string) (string, error) {
		cmd := exec.Command(name, args...)
		cmd.Dir = dir
		out, err := cmd.Output()
		if err != nil {
			detail := strings.Join(append([]string{name}, args...), " ")
			if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
				detail += ": " + strings.TrimSpace(string(exitErr.Stderr))
			}
			return "", emit.NewError(emit.KindIO, "run "+detail, err)
		}
		return strings.TrimSpace(string(out)), nil
	}
}

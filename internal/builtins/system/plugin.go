package system

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/runtime"
	"github.com/xirelogy/go-pseudo/internal/value"
	"github.com/xirelogy/go-pseudo/internal/vm"
)

var log = commonlog.GetLogger("pseudo.system")

func init() {
	runtime.Register(runtime.Spec{Name: "SYSTEM", ID: bytecode.BuiltinSystem, Arity: 1, Handler: runSystem})
}

func runSystem(rt *vm.VM, args []value.Value) (value.Value, error) {
	cmd := args[0]
	if cmd.Kind != value.KindString {
		return value.Value{}, vm.Errorf(vm.ErrType, "SYSTEM expects STRING, got %s", cmd.Kind)
	}
	code, err := rt.RunSystem(cmd.Str)
	if err != nil {
		return value.Value{}, err
	}
	return value.Integer(int64(code)), nil
}

// ShellRunner runs commands through "sh -c", forwarding stdout to the
// program output and stderr to the host's stderr. A non-zero exit status
// is reported as the exit code, not as an error.
func ShellRunner(ctx context.Context, command string, stdout io.Writer) (int, error) {
	log.Debugf("SYSTEM %q", command)
	c := exec.CommandContext(ctx, "sh", "-c", command)
	c.Stdout = stdout
	c.Stderr = os.Stderr
	err := c.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, vm.Errorf(vm.ErrArgument, "SYSTEM could not run %q: %v", command, err)
}

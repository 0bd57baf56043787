package out

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	hclog "github.com/hashicorp/go-hclog"

	"statusrelay/internal/modules/status/port/out"
)

// ProcessHeartbeatRunner manages the per-project refresher as a detached
// child process, since the hook invocation that spawns it exits immediately.
// The recorded PID is only ever acted on after verifying it still belongs to
// a statusrelay heartbeat for the same project, so a recycled PID is never
// killed by mistake.
type ProcessHeartbeatRunner struct {
	home   string
	store  out.StateStore
	logger hclog.Logger
}

func NewProcessHeartbeatRunner(home string, store out.StateStore, logger hclog.Logger) out.HeartbeatRunner {
	return &ProcessHeartbeatRunner{home: home, store: store, logger: logger}
}

func (r *ProcessHeartbeatRunner) Respawn(ctx context.Context, project string) error {
	r.terminate(ctx, project)

	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	cmd := exec.Command(binary, "heartbeat", "--project", project, "--home", r.home)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn heartbeat: %w", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		r.logger.Warn("release heartbeat process handle", "error", err)
	}
	if err := r.store.Write(ctx, project, out.FieldHeartbeatPID, strconv.Itoa(pid)); err != nil {
		r.logger.Warn("persist heartbeat pid", "project", project, "error", err)
	}
	return nil
}

func (r *ProcessHeartbeatRunner) Stop(ctx context.Context, project string) error {
	r.terminate(ctx, project)
	return nil
}

func (r *ProcessHeartbeatRunner) terminate(ctx context.Context, project string) {
	raw, ok, err := r.store.Read(ctx, project, out.FieldHeartbeatPID)
	if err != nil || !ok {
		return
	}
	pid, err := strconv.Atoi(raw)
	if err != nil || pid <= 0 {
		return
	}
	if !isOurHeartbeat(pid, project) {
		return
	}
	if proc, err := os.FindProcess(pid); err == nil {
		if err := proc.Signal(syscall.SIGTERM); err == nil {
			r.logger.Debug("terminated previous heartbeat", "project", project, "pid", pid)
		}
	}
}

// isOurHeartbeat confirms the PID refers to a live heartbeat process for
// this project. On Linux the /proc cmdline makes the check exact; elsewhere
// a liveness signal is the best available.
func isOurHeartbeat(pid int, project string) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return false
	}
	cmdline, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err != nil {
		// No procfs to consult; alive is the strongest claim available.
		return true
	}
	return heartbeatCmdline(cmdline, project)
}

// heartbeatCmdline inspects a NUL-separated argv and accepts only a heartbeat
// invocation whose --project argument equals the project exactly. A substring
// check would let "api" claim the heartbeat of "api-server".
func heartbeatCmdline(cmdline []byte, project string) bool {
	args := bytes.Split(bytes.TrimRight(cmdline, "\x00"), []byte{0})
	subcommand := false
	target := ""
	for i, arg := range args {
		switch {
		case string(arg) == "heartbeat":
			subcommand = true
		case string(arg) == "--project" && i+1 < len(args):
			target = string(args[i+1])
		case bytes.HasPrefix(arg, []byte("--project=")):
			target = string(bytes.TrimPrefix(arg, []byte("--project=")))
		}
	}
	return subcommand && target == project
}

//go:build linux

package osproc

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/mj1618/desktop-organizer/internal/logging"
)

// Processes spawns applications in their own process group and reaps them
// when they exit, so a launched app never lingers as a zombie.
type Processes struct {
	proc string
	log  *logging.Logger

	mu       sync.Mutex
	children map[int]*exec.Cmd
}

// New returns a process manager reading /proc.
func New(log *logging.Logger) *Processes {
	if log == nil {
		log = logging.NewNop()
	}
	return &Processes{proc: "/proc", log: log.Named("process"), children: make(map[int]*exec.Cmd)}
}

// Start launches path detached from our terminal's process group.
func (p *Processes) Start(path string, args ...string) (int, error) {
	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if home, err := os.UserHomeDir(); err == nil {
		cmd.Dir = home
	}
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid

	p.mu.Lock()
	p.children[pid] = cmd
	p.mu.Unlock()

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		delete(p.children, pid)
		p.mu.Unlock()
		p.log.Debug("child exited", zap.Int("pid", pid), zap.String("path", path), zap.Error(err))
	}()
	return pid, nil
}

// IsAlive reports whether pid exists and is not a zombie. A process owned by
// another user still counts as alive.
func (p *Processes) IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err != nil && !errors.Is(err, syscall.EPERM) {
		return false
	}
	return p.state(pid) != 'Z'
}

// Kill sends SIGTERM to pid, or to its whole group when pid leads one.
func (p *Processes) Kill(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	target := pid
	if pgid, err := syscall.Getpgid(pid); err == nil && pgid == pid {
		target = -pid
	}
	if err := syscall.Kill(target, syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal pid %d: %w", pid, err)
	}
	return nil
}

// ExecutablePath resolves /proc/<pid>/exe.
func (p *Processes) ExecutablePath(pid int) (string, error) {
	if pid <= 0 {
		return "", fmt.Errorf("invalid pid %d", pid)
	}
	exe, err := os.Readlink(p.path(pid, "exe"))
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(exe, " (deleted)"), nil
}

// IsRunning reports whether any process has the command name name. The
// comparison ignores case, a trailing ".exe" and the kernel's 15 byte comm
// truncation.
func (p *Processes) IsRunning(name string) bool {
	want := commName(name)
	if want == "" {
		return false
	}
	entries, err := os.ReadDir(p.proc)
	if err != nil {
		return false
	}
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		b, err := os.ReadFile(p.path(pid, "comm"))
		if err != nil {
			continue
		}
		if commName(string(b)) == want {
			return true
		}
	}
	return false
}

func (p *Processes) path(pid int, leaf string) string {
	return p.proc + "/" + strconv.Itoa(pid) + "/" + leaf
}

// state returns the one-letter state from /proc/<pid>/stat, or 0.
func (p *Processes) state(pid int) byte {
	b, err := os.ReadFile(p.path(pid, "stat"))
	if err != nil {
		return 0
	}
	return parseState(string(b))
}

// parseState extracts the state field. The comm field may itself contain
// spaces and parentheses, so the scan starts after the last ')'.
func parseState(stat string) byte {
	i := strings.LastIndexByte(stat, ')')
	if i < 0 || i+2 >= len(stat) {
		return 0
	}
	return stat[i+2]
}

const commLen = 15

func commName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(s, ".exe")
	if len(s) > commLen {
		s = s[:commLen]
	}
	return s
}

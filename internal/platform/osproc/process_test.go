//go:build linux

package osproc

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	assert.Equal(t, byte('S'), parseState("123 (bash) S 1 123 123 0"))
	assert.Equal(t, byte('Z'), parseState("77 (weird) name)) Z 1 2 3"))
	assert.Equal(t, byte(0), parseState("garbage"))
}

func TestCommName(t *testing.T) {
	assert.Equal(t, "wallpaper64", commName("wallpaper64.exe"))
	assert.Equal(t, "wallpaper64", commName("Wallpaper64\n"))
	assert.Equal(t, "linux-wallpaper", commName("/usr/bin/linux-wallpaperengine"))
	assert.Equal(t, "", commName("  "))
}

func TestIsRunningScansProc(t *testing.T) {
	dir := t.TempDir()
	for pid, comm := range map[string]string{"10": "firefox\n", "11": "linux-wallpaper\n", "self": "ignored\n"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, pid), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, pid, "comm"), []byte(comm), 0o644))
	}
	p := New(nil)
	p.proc = dir

	assert.True(t, p.IsRunning("Firefox"))
	assert.True(t, p.IsRunning("linux-wallpaperengine"))
	assert.False(t, p.IsRunning("ignored"))
	assert.False(t, p.IsRunning("chrome"))
}

func TestStartIsAliveKill(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}
	p := New(nil)
	pid, err := p.Start(sleep, "30")
	require.NoError(t, err)
	assert.True(t, p.IsAlive(pid))

	exe, err := p.ExecutablePath(pid)
	require.NoError(t, err)
	assert.NotEmpty(t, exe)

	require.NoError(t, p.Kill(pid))
	assert.Eventually(t, func() bool { return !p.IsAlive(pid) }, 5*time.Second, 20*time.Millisecond)
}

func TestInvalidPID(t *testing.T) {
	p := New(nil)
	assert.False(t, p.IsAlive(0))
	assert.Error(t, p.Kill(-1))
	_, err := p.ExecutablePath(0)
	assert.Error(t, err)
}

package helper

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"
)

// fakeAdapter writes script to a temp file and returns an adapter that runs
// it with /bin/sh. The script sees the framework path as $1 and the mode as $2.
func fakeAdapter(t *testing.T, script string) Adapter {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}

	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "adapter.sh")
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	framework := filepath.Join(dir, "MediaRemoteAdapter.framework")
	if err := os.Mkdir(framework, 0o755); err != nil {
		t.Fatalf("create framework: %v", err)
	}

	return Adapter{Interpreter: "/bin/sh", Script: scriptPath, Framework: framework}
}

// collector accumulates chunks delivered by the supervisor.
type collector struct {
	mu  sync.Mutex
	buf []byte
}

func (c *collector) add(b []byte) {
	c.mu.Lock()
	c.buf = append(c.buf, b...)
	c.mu.Unlock()
}

func (c *collector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.buf)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

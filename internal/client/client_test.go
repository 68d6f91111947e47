package client

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/nowsync/internal/core"
	nserrors "github.com/tessro/nowsync/internal/errors"
	"github.com/tessro/nowsync/internal/helper"
	"github.com/tessro/nowsync/internal/nowplaying"
)

// stubRunner stands in for one-shot helper invocations.
type stubRunner struct {
	mu        sync.Mutex
	calls     [][]string
	getOutput string
	blockGet  bool
	// release, when set, holds get requests until it is closed.
	release chan struct{}
}

func (r *stubRunner) Run(ctx context.Context, name string, args []string) (helper.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, args[2:])
	r.mu.Unlock()

	if args[2] == helper.ModeGet {
		if r.blockGet {
			<-ctx.Done()
			return helper.Result{}, ctx.Err()
		}
		if r.release != nil {
			select {
			case <-r.release:
			case <-ctx.Done():
				return helper.Result{}, ctx.Err()
			}
		}
		return helper.Result{Stdout: []byte(r.getOutput)}, nil
	}
	return helper.Result{}, nil
}

func (r *stubRunner) gets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c[0] == helper.ModeGet {
			n++
		}
	}
	return n
}

func (r *stubRunner) sends() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var codes []string
	for _, c := range r.calls {
		if c[0] == helper.ModeSend {
			codes = append(codes, c[1])
		}
	}
	return codes
}

// streamAdapter returns an adapter whose stream mode runs script under
// /bin/sh. The framework directory is passed to the script as $1.
func streamAdapter(t *testing.T, script string) (helper.Adapter, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "adapter.sh")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	framework := filepath.Join(dir, "framework")
	if err := os.Mkdir(framework, 0o755); err != nil {
		t.Fatalf("create framework: %v", err)
	}
	return helper.Adapter{Interpreter: "/bin/sh", Script: path, Framework: framework}, framework
}

func newTestClient(t *testing.T, opts Options) *Client {
	t.Helper()
	opts.Logger = zerolog.Nop()
	opts.StopTimeout = time.Second
	c, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func eventually(t *testing.T, what string, cond func() bool) {
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

const idle = "trap 'exit 0' TERM\nwhile true; do sleep 0.05; done\n"

func TestNew_LaunchFailure(t *testing.T) {
	adapter, _ := streamAdapter(t, idle)
	adapter.Script += ".missing"

	c, err := New(context.Background(), Options{Adapter: adapter, Logger: zerolog.Nop()})
	if c != nil {
		t.Error("New() returned a client for a failed launch")
	}
	if !nserrors.Is(err, nserrors.ErrHelperNotFound) {
		t.Errorf("New() error = %v, want ErrHelperNotFound", err)
	}
}

func TestClient_ReconcilesStream(t *testing.T) {
	script := `echo 'MediaRemoteAdapter loaded'
echo '{"diff":false,"payload":{"title":"A","playing":true,"duration":200}}'
echo '{"diff":true,"payload":{"playing":false}}'
` + idle
	adapter, _ := streamAdapter(t, script)
	c := newTestClient(t, Options{Adapter: adapter, Runner: &stubRunner{blockGet: true}})

	if c.Phase() != PhaseStreaming {
		t.Errorf("Phase() = %v, want streaming", c.Phase())
	}

	eventually(t, "paused state", func() bool {
		s := c.Snapshot()
		return s.Title == "A" && !s.IsPlaying && s.Duration == 200
	})

	s := c.Snapshot()
	if s.ElapsedTime != 0 || s.Artist != "" {
		t.Errorf("Snapshot() = %+v", s)
	}
	if st := c.Status(); st.Malformed != 1 || !st.HelperRunning {
		t.Errorf("Status() = %+v, want one malformed line and a running helper", st)
	}
}

func TestClient_InitialRefresh(t *testing.T) {
	adapter, _ := streamAdapter(t, idle)
	runner := &stubRunner{getOutput: `{"title":"Fresh","artist":"Band","playing":true}`}
	c := newTestClient(t, Options{Adapter: adapter, Runner: runner})

	eventually(t, "refreshed state", func() bool {
		s := c.Snapshot()
		return s.Title == "Fresh" && s.Artist == "Band" && s.IsPlaying
	})
}

// syncBuffer collects log output written from several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestClient_RefreshDoesNotOverrideNewerStream(t *testing.T) {
	script := `while [ ! -f "$1/go" ]; do sleep 0.02; done
echo '{"diff":false,"payload":{"title":"A","playing":true}}'
echo '{"diff":true,"payload":{"playing":false}}'
` + idle
	adapter, framework := streamAdapter(t, script)
	runner := &stubRunner{
		getOutput: `{"title":"A","playing":true}`,
		release:   make(chan struct{}),
	}
	var logs syncBuffer
	c, err := New(context.Background(), Options{
		Adapter:     adapter,
		Runner:      runner,
		StopTimeout: time.Second,
		Logger:      zerolog.New(&logs).Level(zerolog.DebugLevel),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	// The initial refresh is in flight before the stream says anything.
	eventually(t, "refresh request", func() bool { return runner.gets() == 1 })
	if err := os.WriteFile(filepath.Join(framework, "go"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, "paused state", func() bool {
		s := c.Snapshot()
		return s.Title == "A" && !s.IsPlaying
	})

	close(runner.release)
	eventually(t, "stale refresh discarded", func() bool {
		return strings.Contains(logs.String(), "discarding stale refresh")
	})

	if c.Snapshot().IsPlaying {
		t.Error("refresh output overrode a newer stream record")
	}
}

func TestClient_StatusReportsPartialLine(t *testing.T) {
	script := `printf '{"diff":false,"payload":{"ti'
` + idle
	adapter, _ := streamAdapter(t, script)
	c := newTestClient(t, Options{Adapter: adapter, Runner: &stubRunner{blockGet: true}})

	eventually(t, "pending bytes", func() bool { return c.Status().Pending == 28 })
	if c.Snapshot().Title != "" {
		t.Errorf("partial line applied: %+v", c.Snapshot())
	}
}

func TestClient_Controls(t *testing.T) {
	adapter, _ := streamAdapter(t, idle)
	runner := &stubRunner{blockGet: true}
	c := newTestClient(t, Options{Adapter: adapter, Runner: runner})
	ctx := context.Background()

	c.Play(ctx)
	c.Pause(ctx)
	c.Toggle(ctx)
	c.Next(ctx)
	c.Previous(ctx)

	want := []string{"0", "1", "2", "4", "5"}
	got := runner.sends()
	if len(got) != len(want) {
		t.Fatalf("sent codes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sent codes = %v, want %v", got, want)
			break
		}
	}
}

func TestClient_Subscribe(t *testing.T) {
	script := `while [ ! -f "$1/go" ]; do sleep 0.02; done
echo '{"diff":false,"payload":{"title":"A","artist":"X"}}'
` + idle
	adapter, framework := streamAdapter(t, script)
	c := newTestClient(t, Options{Adapter: adapter, Runner: &stubRunner{blockGet: true}})

	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	if err := os.WriteFile(filepath.Join(framework, "go"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case u := <-updates:
		if !u.Changed.Has(nowplaying.ChangeTitle|nowplaying.ChangeArtist) || u.State.Title != "A" {
			t.Errorf("update = %+v", u)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no update received")
	}
}

func TestClient_Close(t *testing.T) {
	adapter, _ := streamAdapter(t, idle)
	c := newTestClient(t, Options{Adapter: adapter, Runner: &stubRunner{blockGet: true}})

	updates, _ := c.Subscribe()

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if c.Phase() != PhaseInactive {
		t.Errorf("Phase() = %v, want inactive", c.Phase())
	}
	if c.Status().HelperRunning {
		t.Error("helper still running after Close")
	}
	if _, ok := <-updates; ok {
		t.Error("subscriber channel not closed")
	}
	if err := c.Execute(context.Background(), core.CommandPlay); !nserrors.Is(err, nserrors.ErrClosed) {
		t.Errorf("Execute() after Close error = %v, want ErrClosed", err)
	}

	late, _ := c.Subscribe()
	if _, ok := <-late; ok {
		t.Error("Subscribe() after Close returned an open channel")
	}
}

func TestClient_RestartAlways(t *testing.T) {
	adapter, _ := streamAdapter(t, "echo '{\"diff\":false,\"payload\":{\"title\":\"A\"}}'\nexit 1\n")
	c := newTestClient(t, Options{
		Adapter:            adapter,
		Runner:             &stubRunner{blockGet: true},
		RestartBaseBackoff: 10 * time.Millisecond,
		RestartMaxBackoff:  20 * time.Millisecond,
	})

	eventually(t, "restarts", func() bool {
		st := c.Status()
		return st.Restarts >= 2 && st.LastExit != "" && !st.LastExitAt.IsZero()
	})
	if c.Snapshot().Title != "A" {
		t.Errorf("Snapshot().Title = %q, want A", c.Snapshot().Title)
	}
}

func TestClient_RestartNever(t *testing.T) {
	script := `while [ ! -f "$1/go" ]; do sleep 0.02; done
echo '{"diff":false,"payload":{"title":"A"}}'
exit 1
`
	adapter, framework := streamAdapter(t, script)
	c := newTestClient(t, Options{
		Adapter:            adapter,
		Runner:             &stubRunner{blockGet: true},
		Restart:            RestartNever,
		RestartBaseBackoff: 10 * time.Millisecond,
	})

	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	if err := os.WriteFile(filepath.Join(framework, "go"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, "exit recorded", func() bool { return c.Status().LastExit != "" })
	time.Sleep(100 * time.Millisecond)

	st := c.Status()
	if st.Restarts != 0 || st.HelperRunning {
		t.Errorf("Status() = %+v, want no restarts", st)
	}
	if c.Phase() != PhaseStreaming {
		t.Errorf("Phase() = %v, want streaming", c.Phase())
	}
	if c.Snapshot().Title != "A" {
		t.Errorf("stale state not kept: %+v", c.Snapshot())
	}

	var health bool
	for !health {
		select {
		case u := <-updates:
			health = u.Changed.Has(nowplaying.ChangeHealth)
		case <-time.After(time.Second):
			t.Fatal("no health update")
		}
	}
}

func TestPhase_Text(t *testing.T) {
	for _, want := range []Phase{PhaseInactive, PhaseStreaming} {
		text, err := want.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText() error = %v", err)
		}
		var got Phase
		if err := got.UnmarshalText(text); err != nil || got != want {
			t.Errorf("UnmarshalText(%q) = %v, %v; want %v", text, got, err, want)
		}
	}

	var p Phase
	if err := p.UnmarshalText([]byte("paused")); err == nil {
		t.Error("UnmarshalText(paused) succeeded")
	}
}

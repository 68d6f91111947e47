package helper

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	nserrors "github.com/tessro/nowsync/internal/errors"
)

func TestAdapter_Args(t *testing.T) {
	a := Adapter{Interpreter: "/usr/bin/perl", Script: "/opt/adapter.pl", Framework: "/opt/MRA.framework"}

	got := a.Args(ModeSend, "4")
	want := []string{"/opt/adapter.pl", "/opt/MRA.framework", "send", "4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Args() = %v, want %v", got, want)
	}

	got = a.StreamArgs(0)
	want = []string{"/opt/adapter.pl", "/opt/MRA.framework", "stream", "--debounce=50"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StreamArgs(0) = %v, want %v", got, want)
	}

	got = a.StreamArgs(200 * time.Millisecond)
	if got[len(got)-1] != "--debounce=200" {
		t.Errorf("StreamArgs(200ms) = %v", got)
	}
}

func TestAdapter_Verify(t *testing.T) {
	good := fakeAdapter(t, "exit 0\n")

	tests := []struct {
		name    string
		mutate  func(*Adapter)
		wantErr bool
	}{
		{"all present", func(*Adapter) {}, false},
		{"no interpreter", func(a *Adapter) { a.Interpreter = "" }, true},
		{"missing interpreter", func(a *Adapter) { a.Interpreter = "/nonexistent/perl" }, true},
		{"missing script", func(a *Adapter) { a.Script = filepath.Join(t.TempDir(), "none.pl") }, true},
		{"missing framework", func(a *Adapter) { a.Framework = filepath.Join(t.TempDir(), "none.framework") }, true},
		{"no framework", func(a *Adapter) { a.Framework = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := good
			tt.mutate(&a)
			err := a.Verify()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !nserrors.Is(err, nserrors.ErrHelperNotFound) {
				t.Errorf("Verify() error = %v, want ErrHelperNotFound", err)
			}
		})
	}
}

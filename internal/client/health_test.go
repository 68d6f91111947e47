package client

import (
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	base := time.Second
	limit := 30 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, time.Second},
		{"negative failures", -1, time.Second},
		{"one failure", 1, 2 * time.Second},
		{"four failures", 4, 16 * time.Second},
		{"five failures capped", 5, 30 * time.Second},
		{"many failures capped", 64, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Backoff(tt.failures, base, limit); got != tt.want {
				t.Errorf("Backoff(%d) = %v, want %v", tt.failures, got, tt.want)
			}
		})
	}
}

func TestParseRestartPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    RestartPolicy
		wantErr bool
	}{
		{"", RestartAlways, false},
		{"always", RestartAlways, false},
		{" Never ", RestartNever, false},
		{"sometimes", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRestartPolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseRestartPolicy(%q) = %q, %v", tt.in, got, err)
		}
	}
}

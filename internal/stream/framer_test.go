package stream

import (
	"reflect"
	"strings"
	"testing"
)

func feedAll(f *Framer, chunks ...string) []string {
	var lines []string
	for _, c := range chunks {
		lines = append(lines, f.Feed([]byte(c))...)
	}
	return lines
}

func TestFramer_Feed(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []string
		want    []string
		pending int
	}{
		{
			name:   "single chunk",
			chunks: []string{"abc\ndef\n"},
			want:   []string{"abc", "def"},
		},
		{
			name:   "split across chunks",
			chunks: []string{"ab", "c\nde", "f\n"},
			want:   []string{"abc", "def"},
		},
		{
			name:   "byte at a time",
			chunks: strings.Split("abc\ndef\n", ""),
			want:   []string{"abc", "def"},
		},
		{
			name:   "empty lines skipped",
			chunks: []string{"\n\nabc\n\n\ndef\n"},
			want:   []string{"abc", "def"},
		},
		{
			name:   "carriage return stripped",
			chunks: []string{"abc\r\n", "def\r", "\n"},
			want:   []string{"abc", "def"},
		},
		{
			name:    "partial tail retained",
			chunks:  []string{"abc\nde"},
			want:    []string{"abc"},
			pending: 2,
		},
		{
			name:    "no newline yet",
			chunks:  []string{"abc"},
			want:    nil,
			pending: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFramer(0)
			got := feedAll(f, tt.chunks...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Feed() = %q, want %q", got, tt.want)
			}
			if f.Pending() != tt.pending {
				t.Errorf("Pending() = %d, want %d", f.Pending(), tt.pending)
			}
		})
	}
}

func TestFramer_ChunkInvariance(t *testing.T) {
	input := "{\"diff\":false}\n\nsecond line\r\nthird\n"
	want := feedAll(NewFramer(0), input)

	for split := 0; split <= len(input); split++ {
		got := feedAll(NewFramer(0), input[:split], input[split:])
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("split at %d: Feed() = %q, want %q", split, got, want)
		}
	}
}

func TestFramer_Overflow(t *testing.T) {
	f := NewFramer(8)

	got := feedAll(f, "short\n", "0123456", "789", "abc\n", "next\n")
	want := []string{"short", "next"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Feed() = %q, want %q", got, want)
	}
	if f.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", f.Dropped())
	}
	if f.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", f.Pending())
	}
}

func TestFramer_OverflowInSingleChunk(t *testing.T) {
	f := NewFramer(4)

	got := f.Feed([]byte("toolongline\nok\n"))
	if !reflect.DeepEqual(got, []string{"ok"}) {
		t.Errorf("Feed() = %q, want [ok]", got)
	}
	if f.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", f.Dropped())
	}
}

func TestFramer_LineAtLimit(t *testing.T) {
	f := NewFramer(4)

	got := f.Feed([]byte("abcd\n"))
	if !reflect.DeepEqual(got, []string{"abcd"}) {
		t.Errorf("Feed() = %q, want [abcd]", got)
	}
	if f.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", f.Dropped())
	}
}

func TestFramer_Reset(t *testing.T) {
	f := NewFramer(0)
	f.Feed([]byte("partial"))
	f.Reset()

	got := f.Feed([]byte("line\n"))
	if !reflect.DeepEqual(got, []string{"line"}) {
		t.Errorf("Feed() after Reset = %q, want [line]", got)
	}
}

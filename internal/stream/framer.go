package stream

import "bytes"

// DefaultMaxLine bounds a single record. Artwork is inlined as base64, so
// records routinely run to hundreds of kilobytes.
const DefaultMaxLine = 4 << 20

// Framer splits a byte stream into newline-terminated records.
//
// Bytes are buffered until a newline arrives, so a record split across any
// number of chunks is reassembled. A pending record that grows beyond the
// configured maximum is discarded and the framer skips input until the next
// newline, after which framing resumes normally.
type Framer struct {
	buf     []byte
	maxLine int
	resync  bool
	dropped int
}

// NewFramer creates a framer. A non-positive maxLine selects DefaultMaxLine.
func NewFramer(maxLine int) *Framer {
	if maxLine <= 0 {
		maxLine = DefaultMaxLine
	}
	return &Framer{maxLine: maxLine}
}

// Feed appends chunk and returns every complete, non-empty line it
// completes, in order, without the trailing newline.
func (f *Framer) Feed(chunk []byte) []string {
	var lines []string

	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			f.append(chunk)
			break
		}

		f.append(chunk[:i])
		chunk = chunk[i+1:]

		if f.resync {
			// The oversized record ends here; drop it and start fresh.
			f.resync = false
			f.buf = f.buf[:0]
			continue
		}

		line := bytes.TrimSuffix(f.buf, []byte{'\r'})
		if len(line) > 0 {
			lines = append(lines, string(line))
		}
		f.buf = f.buf[:0]
	}

	return lines
}

func (f *Framer) append(b []byte) {
	if f.resync {
		return
	}
	if len(f.buf)+len(b) > f.maxLine {
		f.buf = f.buf[:0]
		f.resync = true
		f.dropped++
		return
	}
	f.buf = append(f.buf, b...)
}

// Pending returns the number of buffered bytes awaiting a newline.
func (f *Framer) Pending() int {
	return len(f.buf)
}

// Dropped returns the number of records discarded for exceeding the limit.
func (f *Framer) Dropped() int {
	return f.dropped
}

// Reset discards any buffered partial record.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
	f.resync = false
}

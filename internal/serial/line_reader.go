package serialport

import (
	"bytes"
	"io"
	"strings"
)

const maxPendingBytes = 4096

// LineReader reassembles newline-delimited text lines from raw port reads.
// Partial lines at buffer boundaries are carried over, never emitted
// truncated. The sequence is infinite and non-restartable: once Next returns
// an error the underlying stream is dead and the caller must reconnect.
type LineReader struct {
	r       io.Reader
	buf     []byte
	pending []byte
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{
		r:   r,
		buf: make([]byte, 1024),
	}
}

// Next returns the next complete line. ok=false with a nil error means the
// read timed out with no complete line available; the caller re-evaluates
// liveness and calls Next again. A non-nil error is stream-level (device
// unplugged, handle closed) and triggers a reconnect upstream.
func (lr *LineReader) Next() (line string, ok bool, err error) {
	if line, ok := lr.popLine(); ok {
		return line, true, nil
	}

	n, err := lr.r.Read(lr.buf)
	if n > 0 {
		lr.pending = append(lr.pending, lr.buf[:n]...)
		// Drop the oldest bytes if the device floods us without newlines.
		if len(lr.pending) > maxPendingBytes {
			lr.pending = lr.pending[len(lr.pending)-maxPendingBytes:]
		}
	}
	if err != nil {
		return "", false, err
	}

	if line, ok := lr.popLine(); ok {
		return line, true, nil
	}
	return "", false, nil
}

// popLine extracts one complete line from the carry-over buffer.
func (lr *LineReader) popLine() (string, bool) {
	idx := bytes.IndexByte(lr.pending, '\n')
	if idx < 0 {
		return "", false
	}

	raw := lr.pending[:idx]
	lr.pending = lr.pending[idx+1:]

	if len(raw) > 0 && raw[len(raw)-1] == '\r' {
		raw = raw[:len(raw)-1]
	}

	// Invalid byte sequences are replaced rather than fatal: a glitchy UART
	// must not kill the stream.
	return strings.ToValidUTF8(string(raw), "�"), true
}

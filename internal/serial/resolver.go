// Package serialport owns the serial device: candidate-path resolution and
// newline-delimited line reassembly. Nothing else in the engine touches the
// port handle.
package serialport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// ErrPortUnavailable means no candidate device path could be opened. The
// caller retries with backoff; the rest of the engine stays usable.
var ErrPortUnavailable = errors.New("no serial port available")

// Port is the subset of the serial handle the line reader needs. Kept small
// so tests can feed canned byte streams.
type Port interface {
	io.ReadCloser
}

// Resolver opens the first usable device from an ordered candidate list.
type Resolver struct {
	device  string
	ports   []string
	baud    int
	timeout time.Duration
	logger  *zap.Logger
}

// NewResolver builds a resolver. device, when non-empty, overrides the
// candidate list. timeout bounds one port read so the ingestion loop can
// re-evaluate liveness even when the device goes quiet.
func NewResolver(device string, ports []string, baud int, timeout time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{device: device, ports: ports, baud: baud, timeout: timeout, logger: logger}
}

// Resolve tries each candidate path in priority order and returns an open,
// exclusive handle plus the path that won. Exhaustion returns
// ErrPortUnavailable wrapping the last open error.
func (r *Resolver) Resolve() (Port, string, error) {
	candidates := r.ports
	if r.device != "" {
		candidates = []string{r.device}
	}

	var lastErr error
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			r.logger.Debug("serial candidate absent", zap.String("port", path))
			continue
		}

		port, err := openPort(path, r.baud, r.timeout)
		if err != nil {
			r.logger.Warn("serial open failed",
				zap.String("port", path),
				zap.Error(err))
			lastErr = err
			continue
		}

		r.logger.Info("serial port opened",
			zap.String("port", path),
			zap.Int("baud", r.baud))
		return port, path, nil
	}

	if lastErr != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrPortUnavailable, lastErr)
	}
	return nil, "", ErrPortUnavailable
}

func openPort(path string, baud int, timeout time.Duration) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

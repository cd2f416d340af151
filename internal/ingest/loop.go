package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
	serialport "github.com/rickhiram/Sensor-Dashboard/internal/serial"
	"go.uber.org/zap"
)

// State of the ingestion connection lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	default:
		return "disconnected"
	}
}

// ErrAlreadyRunning means a second Start was attempted while an ingestion
// task is alive in this process. Exactly one runs at a time.
var ErrAlreadyRunning = errors.New("ingestion loop already running")

// PortResolver yields an open serial handle or fails recoverably.
type PortResolver interface {
	Resolve() (serialport.Port, string, error)
}

// Registry resolves a wire key to the enabled sensors that should receive
// the reading, and backs the parser's key vocabulary.
type Registry interface {
	KeySet
	EnabledSensors(key string) []domain.Sensor
}

// Sink is the downstream of accepted readings: the time-series store.
// Append must bound its own durable-write latency; the loop never waits
// longer than one reading's worth of work.
type Sink interface {
	Append(ctx context.Context, r domain.Reading) error
}

// Evaluator consumes each stored reading for range alerting.
type Evaluator interface {
	Evaluate(s domain.Sensor, r domain.Reading)
}

// Status is a point-in-time snapshot of the loop, served by the status API.
type Status struct {
	State         string    `json:"state"`
	Port          string    `json:"port"`
	LinesAccepted uint64    `json:"lines_accepted"`
	ParseFailures uint64    `json:"parse_failures"`
	LastReadingAt time.Time `json:"last_reading_at"`
}

// Loop owns the connection lifecycle: Disconnected → Connecting → Streaming,
// back to Disconnected on any stream error, retrying forever with bounded
// exponential backoff. It is the only component that touches the port.
type Loop struct {
	resolver PortResolver
	parser   *Parser
	registry Registry
	sink     Sink
	alerts   Evaluator
	owner    *Owner
	logger   *zap.Logger

	backoffMin time.Duration
	backoffMax time.Duration

	running  atomic.Bool
	state    atomic.Int32
	port     atomic.Value // string
	accepted atomic.Uint64
	failures atomic.Uint64

	mu       sync.Mutex
	lastSeen map[int64]time.Time
	lastAt   atomic.Value // time.Time

	done chan struct{}
}

func NewLoop(resolver PortResolver, parser *Parser, registry Registry, sink Sink, alerts Evaluator, owner *Owner, backoffMin, backoffMax time.Duration, logger *zap.Logger) *Loop {
	l := &Loop{
		resolver:   resolver,
		parser:     parser,
		registry:   registry,
		sink:       sink,
		alerts:     alerts,
		owner:      owner,
		logger:     logger,
		backoffMin: backoffMin,
		backoffMax: backoffMax,
		lastSeen:   map[int64]time.Time{},
		done:       make(chan struct{}),
	}
	l.port.Store("")
	l.lastAt.Store(time.Time{})
	return l
}

// Start launches the background ingestion task. It refuses to start while
// another instance is alive (in-process flag) or while another process still
// holds the device lock (flock).
func (l *Loop) Start(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if l.owner != nil {
		if err := l.owner.Acquire(); err != nil {
			l.running.Store(false)
			return err
		}
	}

	go l.run(ctx)
	return nil
}

// Wait blocks until the loop has released the port and exited.
func (l *Loop) Wait() {
	<-l.done
}

// Status returns the current lifecycle snapshot.
func (l *Loop) Status() Status {
	return Status{
		State:         State(l.state.Load()).String(),
		Port:          l.port.Load().(string),
		LinesAccepted: l.accepted.Load(),
		ParseFailures: l.failures.Load(),
		LastReadingAt: l.lastAt.Load().(time.Time),
	}
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	defer l.running.Store(false)
	if l.owner != nil {
		defer l.owner.Release()
	}

	backoff := l.backoffMin
	for {
		if ctx.Err() != nil {
			l.setState(StateDisconnected, "")
			return
		}

		l.setState(StateConnecting, "")
		port, path, err := l.resolver.Resolve()
		if err != nil {
			l.setState(StateDisconnected, "")
			l.logger.Warn("serial connect failed",
				zap.Error(err),
				zap.Duration("retry_in", backoff))
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, l.backoffMax)
			continue
		}
		backoff = l.backoffMin

		l.setState(StateStreaming, path)
		streamErr := l.stream(ctx, port)
		_ = port.Close()
		l.setState(StateDisconnected, "")

		if ctx.Err() != nil {
			l.logger.Info("ingestion stopped, port released", zap.String("port", path))
			return
		}
		l.logger.Warn("serial stream ended",
			zap.String("port", path),
			zap.Error(streamErr))

		if !sleepWithContext(ctx, l.backoffMin) {
			return
		}
	}
}

func (l *Loop) stream(ctx context.Context, port serialport.Port) error {
	lr := serialport.NewLineReader(port)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, ok, err := lr.Next()
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		l.handleLine(ctx, line)
	}
}

func (l *Loop) handleLine(ctx context.Context, line string) {
	rec, perr := l.parser.Parse(line)
	if perr != nil {
		l.failures.Add(1)
		l.logger.Warn("line dropped",
			zap.String("reason", string(perr.Reason)),
			zap.String("line", perr.Line))
		return
	}

	// One key fans out to every enabled sensor of that type. A disabled
	// sensor simply receives nothing; its history stays queryable.
	sensors := l.registry.EnabledSensors(rec.SensorKey)
	if len(sensors) == 0 {
		l.logger.Debug("no enabled sensor for key", zap.String("key", rec.SensorKey))
		return
	}

	for _, s := range sensors {
		reading := domain.Reading{SensorID: s.ID, Timestamp: rec.Timestamp, Value: rec.Value}
		l.flagOutOfOrder(s.ID, rec.Timestamp)

		if err := l.sink.Append(ctx, reading); err != nil {
			// Degraded mode: the reading lives in the memory window only.
			l.logger.Error("durable write failed, reading kept in memory",
				zap.Int64("sensor_id", s.ID),
				zap.Error(err))
		}
		l.alerts.Evaluate(s, reading)
	}

	l.accepted.Add(1)
	l.lastAt.Store(rec.Timestamp)
}

// flagOutOfOrder logs a timestamp regression for a sensor. The reading is
// accepted regardless: the clock is not authoritative.
func (l *Loop) flagOutOfOrder(sensorID int64, ts time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastSeen[sensorID]; ok && ts.Before(last) {
		l.logger.Warn("out-of-order reading",
			zap.Int64("sensor_id", sensorID),
			zap.Time("timestamp", ts),
			zap.Time("previous", last))
	}
	l.lastSeen[sensorID] = ts
}

func (l *Loop) setState(s State, port string) {
	l.state.Store(int32(s))
	l.port.Store(port)
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

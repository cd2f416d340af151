package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
	serialport "github.com/rickhiram/Sensor-Dashboard/internal/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePort replays canned chunks, then keeps timing out until closed, then
// fails with failErr if set.
type fakePort struct {
	mu      sync.Mutex
	chunks  [][]byte
	failErr error
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("port closed")
	}
	if len(p.chunks) > 0 {
		n := copy(b, p.chunks[0])
		p.chunks = p.chunks[1:]
		return n, nil
	}
	if p.failErr != nil {
		return 0, p.failErr
	}
	// Simulate a read timeout: no data, no error.
	p.mu.Unlock()
	time.Sleep(time.Millisecond)
	p.mu.Lock()
	return 0, nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type fakeResolver struct {
	mu    sync.Mutex
	ports []*fakePort
	opens int
}

func (r *fakeResolver) Resolve() (serialport.Port, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ports) == 0 {
		return nil, "", serialport.ErrPortUnavailable
	}
	p := r.ports[0]
	r.ports = r.ports[1:]
	r.opens++
	return p, "/dev/ttyTEST0", nil
}

type fakeRegistry struct {
	sensors map[string][]domain.Sensor
}

func (f *fakeRegistry) HasKey(key string) bool { _, ok := f.sensors[key]; return ok }
func (f *fakeRegistry) EnabledSensors(key string) []domain.Sensor {
	var out []domain.Sensor
	for _, s := range f.sensors[key] {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

type recordingSink struct {
	mu       sync.Mutex
	readings []domain.Reading
	notify   chan struct{}
}

func (s *recordingSink) Append(_ context.Context, r domain.Reading) error {
	s.mu.Lock()
	s.readings = append(s.readings, r)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

func (s *recordingSink) values() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, len(s.readings))
	for i, r := range s.readings {
		out[i] = r.Value
	}
	return out
}

type nopEvaluator struct{}

func (nopEvaluator) Evaluate(domain.Sensor, domain.Reading) {}

func newTestLoop(resolver *fakeResolver, registry Registry, sink Sink) *Loop {
	parser := NewParser(":", registry)
	return NewLoop(resolver, parser, registry, sink, nopEvaluator{}, nil,
		time.Millisecond, 5*time.Millisecond, zap.NewNop())
}

func waitForValues(t *testing.T, sink *recordingSink, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if len(sink.values()) >= want {
			return
		}
		select {
		case <-sink.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %d readings, have %v", want, sink.values())
		}
	}
}

func TestLoopReconnectsAndResumesWithoutDuplicates(t *testing.T) {
	registry := &fakeRegistry{sensors: map[string][]domain.Sensor{
		"temperature": {{ID: 1, Type: "temperature", Enabled: true}},
	}}
	resolver := &fakeResolver{ports: []*fakePort{
		{chunks: [][]byte{[]byte("temperature:1\ntemperature:2\n")}, failErr: errors.New("mid-stream failure")},
		{chunks: [][]byte{[]byte("temperature:3\n")}},
	}}
	sink := &recordingSink{notify: make(chan struct{}, 16)}

	loop := newTestLoop(resolver, registry, sink)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, loop.Start(ctx))
	waitForValues(t, sink, 3)
	cancel()
	loop.Wait()

	// Lines forwarded before the failure must not be re-forwarded after the
	// reconnect.
	assert.Equal(t, []float64{1, 2, 3}, sink.values())
	assert.Equal(t, 2, resolver.opens)
	assert.Equal(t, "disconnected", loop.Status().State)
}

func TestLoopDropsMalformedAndContinues(t *testing.T) {
	registry := &fakeRegistry{sensors: map[string][]domain.Sensor{
		"temp": {{ID: 7, Type: "temp", Enabled: true}},
	}}
	resolver := &fakeResolver{ports: []*fakePort{
		{chunks: [][]byte{[]byte("temp:not-a-number\ntemp:9\n")}},
	}}
	sink := &recordingSink{notify: make(chan struct{}, 16)}

	loop := newTestLoop(resolver, registry, sink)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, loop.Start(ctx))
	waitForValues(t, sink, 1)
	cancel()
	loop.Wait()

	// The malformed line produced zero readings; the next line landed.
	assert.Equal(t, []float64{9}, sink.values())
	assert.Equal(t, uint64(1), loop.Status().ParseFailures)
}

func TestLoopSkipsDisabledSensors(t *testing.T) {
	registry := &fakeRegistry{sensors: map[string][]domain.Sensor{
		"temperature": {
			{ID: 1, Type: "temperature", Enabled: false},
			{ID: 2, Type: "temperature", Enabled: true},
		},
	}}
	resolver := &fakeResolver{ports: []*fakePort{
		{chunks: [][]byte{[]byte("temperature:5\n")}},
	}}
	sink := &recordingSink{notify: make(chan struct{}, 16)}

	loop := newTestLoop(resolver, registry, sink)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, loop.Start(ctx))
	waitForValues(t, sink, 1)
	cancel()
	loop.Wait()

	readings := sink.readings
	require.Len(t, readings, 1)
	assert.Equal(t, int64(2), readings[0].SensorID)
}

func TestLoopRefusesSecondStart(t *testing.T) {
	registry := &fakeRegistry{sensors: map[string][]domain.Sensor{}}
	resolver := &fakeResolver{}
	sink := &recordingSink{notify: make(chan struct{}, 1)}

	loop := newTestLoop(resolver, registry, sink)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, loop.Start(ctx))
	assert.ErrorIs(t, loop.Start(ctx), ErrAlreadyRunning)

	cancel()
	loop.Wait()
}

func TestLoopSurvivesPortUnavailable(t *testing.T) {
	registry := &fakeRegistry{sensors: map[string][]domain.Sensor{
		"temperature": {{ID: 1, Type: "temperature", Enabled: true}},
	}}
	// First resolve attempts fail, then a port appears.
	resolver := &fakeResolver{}
	sink := &recordingSink{notify: make(chan struct{}, 16)}

	loop := newTestLoop(resolver, registry, sink)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, loop.Start(ctx))
	time.Sleep(10 * time.Millisecond)

	resolver.mu.Lock()
	resolver.ports = []*fakePort{{chunks: [][]byte{[]byte("temperature:4\n")}}}
	resolver.mu.Unlock()

	waitForValues(t, sink, 1)
	cancel()
	loop.Wait()

	assert.Equal(t, []float64{4}, sink.values())
}

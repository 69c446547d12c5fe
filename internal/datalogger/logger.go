// Package datalogger runs the periodic job that writes one reading per compartment.
package datalogger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"desal-monitor-backend/internal/metrics"
	"desal-monitor-backend/internal/model"
)

// DefaultInterval is the logging period used until SetInterval is called.
const DefaultInterval = 5 * time.Second

// ErrInvalidInterval is returned for a non-positive interval. Logger state is left unchanged.
var ErrInvalidInterval = errors.New("invalid interval")

// Sink persists a reading. The store assigns id and timestamp.
type Sink interface {
	Create(ctx context.Context, record *model.SensorData) error
}

// Status is a read-only view of the logger.
type Status struct {
	IsLogging bool  `json:"isLogging"`
	Interval  int64 `json:"interval"` // milliseconds
	LogCount  int64 `json:"logCount"`
}

// Options configures a Logger. Zero values select defaults.
type Options struct {
	Interval     time.Duration
	Compartments int
	Synthesizer  Synthesizer
	Metrics      *metrics.Metrics
}

// Logger is an Idle/Running state machine owning at most one timer.
// A cycle always completes before the timer is re-armed, so cycles never overlap.
type Logger struct {
	sink         Sink
	compartments int
	synth        Synthesizer
	logger       zerolog.Logger
	metrics      *metrics.Metrics

	mu       sync.Mutex
	interval time.Duration
	cycles   int64
	gen      uint64
	run      *run
}

// run is the goroutine behind one Running period.
type run struct {
	gen    uint64
	cancel context.CancelFunc
	reset  chan time.Duration
	done   chan struct{}
}

// New creates an idle logger.
func New(sink Sink, opts Options, logger zerolog.Logger) *Logger {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Compartments <= 0 {
		opts.Compartments = 6
	}
	if opts.Synthesizer == nil {
		opts.Synthesizer = DefaultSynthesizer
	}
	return &Logger{
		sink:         sink,
		compartments: opts.Compartments,
		synth:        opts.Synthesizer,
		logger:       logger.With().Str("component", "datalogger").Logger(),
		metrics:      opts.Metrics,
		interval:     opts.Interval,
	}
}

// Start moves the logger to Running and resets the cycle count. The first
// cycle fires one interval later. Calling Start while Running does nothing.
func (l *Logger) Start() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.run != nil {
		return l.statusLocked()
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.gen++
	l.cycles = 0
	r := &run{
		gen:    l.gen,
		cancel: cancel,
		reset:  make(chan time.Duration, 1),
		done:   make(chan struct{}),
	}
	l.run = r
	go l.loop(ctx, r, l.interval)

	l.metrics.SetLoggerRunning(true)
	l.logger.Info().Dur("interval", l.interval).Int("compartments", l.compartments).Msg("Data logger started")
	return l.statusLocked()
}

// Stop cancels the timer and waits for the loop to exit. An in-flight cycle
// sees its context cancelled. The cycle count is kept until the next Start.
// Calling Stop while Idle does nothing.
func (l *Logger) Stop() Status {
	l.mu.Lock()
	r := l.run
	if r == nil {
		status := l.statusLocked()
		l.mu.Unlock()
		return status
	}
	l.run = nil
	l.metrics.SetLoggerRunning(false)
	l.logger.Info().Int64("cycles", l.cycles).Msg("Data logger stopped")
	l.mu.Unlock()

	r.cancel()
	<-r.done
	return l.Status()
}

// SetInterval changes the period. While Running the timer is re-armed at the
// new period from now; an in-flight cycle finishes first.
func (l *Logger) SetInterval(d time.Duration) (Status, error) {
	if d <= 0 {
		return l.Status(), fmt.Errorf("%w: %s", ErrInvalidInterval, d)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.interval = d
	if r := l.run; r != nil {
		// Keep only the latest pending period.
		select {
		case <-r.reset:
		default:
		}
		r.reset <- d
	}
	l.logger.Info().Dur("interval", d).Bool("running", l.run != nil).Msg("Data logger interval changed")
	return l.statusLocked(), nil
}

// Status returns a snapshot of the logger state.
func (l *Logger) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.statusLocked()
}

func (l *Logger) statusLocked() Status {
	return Status{
		IsLogging: l.run != nil,
		Interval:  l.interval.Milliseconds(),
		LogCount:  l.cycles,
	}
}

// Close stops the logger if it is running.
func (l *Logger) Close() {
	l.Stop()
}

func (l *Logger) loop(ctx context.Context, r *run, interval time.Duration) {
	defer close(r.done)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-r.reset:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			interval = d
			timer.Reset(interval)
		case <-timer.C:
			_ = l.runCycle(ctx, r.gen, interval)
			timer.Reset(interval)
		}
	}
}

// runCycle writes one reading per compartment in order. The first failed
// write aborts the cycle and the count is not advanced.
func (l *Logger) runCycle(ctx context.Context, gen uint64, interval time.Duration) error {
	seconds := int(interval / time.Second)
	written := 0
	for compartment := 1; compartment <= l.compartments; compartment++ {
		record := l.synth.Reading(compartment)
		tag := seconds
		record.Interval = &tag
		if err := l.sink.Create(ctx, &record); err != nil {
			l.metrics.CycleFailed(written)
			if ctx.Err() == nil {
				l.logger.Error().Err(err).
					Int64("cycle", l.Status().LogCount+1).
					Int("compartment", compartment).
					Int("written", written).
					Msg("Logging cycle aborted")
			}
			return fmt.Errorf("persist compartment %d: %w", compartment, err)
		}
		written++
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen || l.run == nil {
		// Stopped or restarted while this cycle was writing.
		return nil
	}
	l.cycles++
	l.metrics.CycleCompleted(written)
	l.logger.Debug().Int64("cycle", l.cycles).Int("records", written).Msg("Logging cycle complete")
	return nil
}

// Package session implements the two-step vocal range capture workflow.
//
// A Session is a reactive reducer: the host feeds it audio frames and
// commands, and it never starts timers or goroutines of its own. Calls must be
// serialised by the host; the TUI does this through its update loop.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/0xlemi/vocalrange/internal/audio"
	"github.com/0xlemi/vocalrange/internal/observe"
	"github.com/0xlemi/vocalrange/internal/pitch"
)

// State is the acquisition step of a session.
type State int

const (
	Idle State = iota
	AwaitingLow
	AwaitingHigh
	Complete
)

// String returns a lower-case name for logging.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingLow:
		return "awaiting_low"
	case AwaitingHigh:
		return "awaiting_high"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Session tracks one attempt at measuring a singer's range.
type Session struct {
	id       string
	state    State
	detector pitch.Detector
	src      audio.Capturer

	live  *pitch.Note
	first *pitch.Note
	low   *pitch.Note
	high  *pitch.Note

	hysteresis float64
	stabilizer *pitch.Stabilizer
	base       *slog.Logger
	logger     *slog.Logger
	metrics    *observe.Metrics
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Session attributes are added automatically.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.base = l
		}
	}
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Session) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithHysteresis holds the previous note label while the frequency stays
// within bandCents of a semitone boundary. Zero disables it.
func WithHysteresis(bandCents float64) Option {
	return func(s *Session) {
		s.hysteresis = bandCents
	}
}

// New creates an Idle session that uses detector for every frame.
func New(detector pitch.Detector, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		state:    Idle,
		detector: detector,
		base:     slog.Default(),
		metrics:  observe.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stabilizer = pitch.NewStabilizer(s.hysteresis)
	s.logger = s.base.With("session_id", s.id)
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current acquisition step.
func (s *Session) State() State { return s.state }

// Live returns a copy of the most recent detected note, or nil.
func (s *Session) Live() *pitch.Note { return clone(s.live) }

// Low returns the lower captured endpoint. It is set once the session is
// Complete.
func (s *Session) Low() *pitch.Note { return clone(s.low) }

// High returns the higher captured endpoint. It is set once the session is
// Complete.
func (s *Session) High() *pitch.Note { return clone(s.high) }

// First returns the first captured endpoint, before ordering by frequency.
func (s *Session) First() *pitch.Note { return clone(s.first) }

// Begin starts acquisition. src is the audio capability the host started for
// this session; it is stopped when the session completes or is reset and may
// be nil. Begin is only valid from Idle.
func (s *Session) Begin(src audio.Capturer) bool {
	if s.state != Idle {
		s.logger.Debug("begin ignored", "state", s.state)
		return false
	}

	s.src = src
	s.live, s.first, s.low, s.high = nil, nil, nil, nil
	s.stabilizer.Reset()
	s.transition(AwaitingLow)
	return true
}

// OnFrame analyses one audio frame and returns the updated live note. Frames
// that yield no pitch clear the live note. Outside the awaiting states the
// frame is ignored and nil is returned.
func (s *Session) OnFrame(buf *audio.AudioBuffer) *pitch.Note {
	if s.state != AwaitingLow && s.state != AwaitingHigh {
		return nil
	}

	start := time.Now()
	note, err := s.detector.DetectPitch(buf)
	s.metrics.RecordDetection(context.Background(), outcome(err), time.Since(start))
	if err != nil {
		note = nil
	}

	s.live = s.stabilizer.Apply(note)
	return clone(s.live)
}

// Capture freezes the live note as the next endpoint. It returns false, with
// no state change, when there is nothing to capture or the session is not
// awaiting a note. The live note is consumed, so repeating Capture without a
// new frame is a no-op.
func (s *Session) Capture() bool {
	if s.live == nil {
		return false
	}

	switch s.state {
	case AwaitingLow:
		s.first = s.live
		s.live = nil
		s.metrics.RecordCapture(context.Background(), "first")
		s.logger.Info("endpoint captured", "endpoint", "first", "note", s.first.FullName(), "hz", s.first.Frequency)
		s.transition(AwaitingHigh)
		return true

	case AwaitingHigh:
		second := s.live
		s.live = nil
		s.low, s.high = s.first, second
		if s.high.Frequency < s.low.Frequency {
			s.low, s.high = s.high, s.low
		}
		s.metrics.RecordCapture(context.Background(), "second")
		s.logger.Info("endpoint captured", "endpoint", "second", "note", second.FullName(), "hz", second.Frequency)
		s.transition(Complete)
		s.release()
		s.logger.Info("range complete", "low", s.low.FullName(), "high", s.high.FullName())
		return true

	default:
		return false
	}
}

// Reset releases the audio capability and returns a fresh Idle session with
// the same detector and options.
func (s *Session) Reset() *Session {
	s.release()
	s.logger.Info("session reset", "state", s.state)

	next := &Session{
		id:         uuid.NewString(),
		state:      Idle,
		detector:   s.detector,
		hysteresis: s.hysteresis,
		stabilizer: pitch.NewStabilizer(s.hysteresis),
		base:       s.base,
		metrics:    s.metrics,
	}
	next.logger = s.base.With("session_id", next.id)
	return next
}

func (s *Session) transition(to State) {
	s.logger.Debug("state transition", "from", s.state, "to", to)
	s.state = to
}

// release stops the audio capability, if any.
func (s *Session) release() {
	if s.src == nil {
		return
	}
	src := s.src
	s.src = nil

	if err := src.Stop(); err != nil && !errors.Is(err, audio.ErrNotCapturing) {
		s.logger.Warn("failed to stop audio capture", "err", err)
		return
	}
	s.logger.Debug("audio capture released")
}

func outcome(err error) string {
	switch {
	case err == nil:
		return observe.OutcomeDetected
	case errors.Is(err, pitch.ErrVolumeThreshold):
		return observe.OutcomeSilent
	case errors.Is(err, pitch.ErrOutOfRange):
		return observe.OutcomeOutOfRange
	default:
		return observe.OutcomeNoPeriod
	}
}

func clone(n *pitch.Note) *pitch.Note {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}

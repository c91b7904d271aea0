package ui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/0xlemi/vocalrange/internal/advisor"
	"github.com/0xlemi/vocalrange/internal/audio"
	"github.com/0xlemi/vocalrange/internal/pitch"
	"github.com/0xlemi/vocalrange/internal/session"
)

// How often the microphone is sampled while a session is listening.
const defaultFrameInterval = 50 * time.Millisecond

// Screen is the page currently shown.
type Screen int

const (
	ScreenWelcome Screen = iota
	ScreenPermissionDenied
	ScreenDetecting
	ScreenAnalyzing
	ScreenResults
)

// OpenFunc opens and starts the microphone for a new session.
type OpenFunc func() (audio.Capturer, error)

// Config holds the collaborators of the UI.
type Config struct {
	Session *session.Session
	Advisor advisor.Advisor
	Open    OpenFunc

	// FrameInterval defaults to 50ms.
	FrameInterval time.Duration

	Logger *slog.Logger
}

// Model represents the UI state
type Model struct {
	session  *session.Session
	advisor  advisor.Advisor
	open     OpenFunc
	interval time.Duration
	logger   *slog.Logger

	screen Screen
	src    audio.Capturer
	live   *pitch.Note
	level  float32 // dB of the last frame

	// gen invalidates ticks and advisory replies that belong to a session
	// which has since been reset.
	gen int

	low, high string
	report    *advisor.Report
	errText   string

	width  int
	height int
}

// NewModel creates a new UI model
func NewModel(cfg Config) Model {
	interval := cfg.FrameInterval
	if interval <= 0 {
		interval = defaultFrameInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return Model{
		session:  cfg.Session,
		advisor:  cfg.Advisor,
		open:     cfg.Open,
		interval: interval,
		logger:   logger,
		screen:   ScreenWelcome,
		level:    -100,
	}
}

// TickMsg asks the model to read the next audio frame.
type TickMsg struct {
	Gen  int
	Time time.Time
}

// ReportMsg carries a finished advisory report.
type ReportMsg struct {
	Gen    int
	Report *advisor.Report
}

// AnalysisFailedMsg carries a failed advisory request.
type AnalysisFailedMsg struct {
	Gen int
	Err error
}

// Init initializes the UI model
func (m Model) Init() tea.Cmd {
	return nil
}

// Screen returns the page currently shown.
func (m Model) Screen() Screen { return m.screen }

// Session returns the current capture session.
func (m Model) Session() *session.Session { return m.session }

func (m Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return TickMsg{Gen: gen, Time: t}
	})
}

// Update updates the UI model based on messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		if msg.Gen != m.gen || m.screen != ScreenDetecting {
			return m, nil
		}
		m.readFrame()
		return m, m.tick()

	case ReportMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.report = msg.Report
		m.screen = ScreenResults

	case AnalysisFailedMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.logger.Warn("analysis failed", "err", msg.Err)
		m.errText = failureText(advisor.ReasonOf(msg.Err))
		m.reset()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.session = m.session.Reset()
		return m, tea.Quit

	case "r":
		if m.screen == ScreenWelcome {
			return m, nil
		}
		m.errText = ""
		m.reset()
		return m, nil

	case "esc":
		if m.screen == ScreenPermissionDenied {
			m.screen = ScreenWelcome
		}
		return m, nil

	case "enter", " ", "space":
		switch m.screen {
		case ScreenWelcome, ScreenPermissionDenied:
			return m.begin()
		case ScreenDetecting:
			return m.capture()
		case ScreenResults:
			m.reset()
		}
	}
	return m, nil
}

// begin opens the microphone and starts a session.
func (m Model) begin() (tea.Model, tea.Cmd) {
	var src audio.Capturer
	if m.open != nil {
		var err error
		src, err = m.open()
		if err != nil {
			m.logger.Error("failed to open microphone", "err", err)
			m.screen = ScreenPermissionDenied
			return m, nil
		}
	}

	if !m.session.Begin(src) {
		return m, nil
	}
	m.src = src
	m.errText = ""
	m.screen = ScreenDetecting
	return m, m.tick()
}

// capture freezes the live note and, once both endpoints are in, asks the
// advisor for a report.
func (m Model) capture() (tea.Model, tea.Cmd) {
	if !m.session.Capture() {
		return m, nil
	}
	m.live = nil

	if m.session.State() != session.Complete {
		return m, nil
	}

	m.src = nil
	m.low = m.session.Low().FullName()
	m.high = m.session.High().FullName()
	m.screen = ScreenAnalyzing
	m.gen++
	return m, m.analyze()
}

func (m Model) analyze() tea.Cmd {
	adv, gen, low, high := m.advisor, m.gen, m.low, m.high
	return func() tea.Msg {
		if adv == nil {
			return AnalysisFailedMsg{Gen: gen, Err: &advisor.Error{Reason: advisor.ReasonMissingCredential}}
		}
		report, err := adv.Analyze(context.Background(), low, high)
		if err != nil {
			return AnalysisFailedMsg{Gen: gen, Err: err}
		}
		return ReportMsg{Gen: gen, Report: report}
	}
}

// readFrame pulls one frame from the microphone into the session.
func (m *Model) readFrame() {
	if m.src == nil {
		return
	}
	buf, err := m.src.GetBuffer()
	if err != nil {
		if !errors.Is(err, audio.ErrNoFrames) {
			m.logger.Debug("no audio frame", "err", err)
		}
		return
	}
	// A frame too short to hold a low note is not worth analysing.
	if len(buf.Samples) < 512 {
		return
	}

	_, m.level = audio.Level(buf)
	m.live = m.session.OnFrame(buf)
}

// reset discards the session and returns to the welcome screen. errText is
// kept so a failure can be shown there.
func (m *Model) reset() {
	m.session = m.session.Reset()
	m.src = nil
	m.live = nil
	m.level = -100
	m.low, m.high = "", ""
	m.report = nil
	m.gen++
	m.screen = ScreenWelcome
}

func failureText(reason advisor.Reason) string {
	switch reason {
	case advisor.ReasonMissingCredential:
		return "API key missing: add API_KEY to your .env file or the advisor section of your config."
	case advisor.ReasonInvalidCredential:
		return "Invalid API key: the provider rejected it. Please check your .env file."
	case advisor.ReasonTimeout:
		return "The request timed out. Please check your internet connection and try again."
	case advisor.ReasonNetworkFailure:
		return "Network error. Please check your internet connection."
	default:
		return "Failed to analyze results. Please try again."
	}
}

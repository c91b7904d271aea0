// Package advisor turns a measured vocal range into coaching advice by asking
// a hosted language model.
//
// Every request is bounded by a timeout and every failure is reported as an
// [*Error] carrying one [Reason] from a closed set, so callers can show a
// specific message without inspecting provider errors.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/0xlemi/vocalrange/internal/config"
	"github.com/0xlemi/vocalrange/internal/observe"
)

// Report is the advice for one vocal range.
type Report struct {
	VoiceType   string     `json:"voiceType"`
	Description string     `json:"description"`
	Songs       []Song     `json:"songs"`
	Exercises   []Exercise `json:"exercises"`
}

// Song is a suggested song that suits the range.
type Song struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Reason string `json:"reason"`
}

// Exercise is a suggested vocal exercise.
type Exercise struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
}

// Advisor analyses a vocal range given as two note names, e.g. "C3" and "G4".
type Advisor interface {
	Analyze(ctx context.Context, low, high string) (*Report, error)
}

// Reason classifies an advisory failure.
type Reason string

const (
	ReasonMissingCredential Reason = "missing-credential"
	ReasonInvalidCredential Reason = "invalid-credential"
	ReasonTimeout           Reason = "timeout"
	ReasonNetworkFailure    Reason = "network-failure"
	ReasonMalformedResponse Reason = "malformed-response"
)

// Error is returned by every failed [Advisor.Analyze] call.
type Error struct {
	Reason   Reason
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("advisor %s: %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("advisor %s: %s: %v", e.Provider, e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ReasonOf returns the failure reason of err, or "" if err is not an [*Error].
func ReasonOf(err error) Reason {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Reason
	}
	return ""
}

// backend is one hosted model API.
type backend interface {
	// generate sends prompt and returns the raw model text.
	generate(ctx context.Context, prompt string) (string, error)

	// credentialRejected reports whether err means the API key was refused.
	credentialRejected(err error) bool
}

// Service implements [Advisor] on top of a provider backend.
type Service struct {
	provider string
	backend  backend
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observe.Metrics
}

var _ Advisor = (*Service)(nil)

// Option configures a Service.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	metrics    *observe.Metrics
	httpClient *http.Client
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithHTTPClient sets the HTTP client used for provider requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New creates an advisory service for cfg. A missing API key is not an error
// here: the service is returned and every Analyze call fails with
// [ReasonMissingCredential], so the UI can explain what to configure.
func New(ctx context.Context, cfg config.AdvisorConfig, opts ...Option) (*Service, error) {
	o := options{
		logger:  slog.Default(),
		metrics: observe.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	s := &Service{
		provider: string(cfg.Provider),
		timeout:  timeout,
		logger:   o.logger.With("provider", string(cfg.Provider)),
		metrics:  o.metrics,
	}

	if cfg.APIKey == "" {
		s.logger.Warn("no API key configured; advisory requests will fail")
		return s, nil
	}

	var err error
	switch cfg.Provider {
	case config.ProviderGemini:
		s.backend, err = newGemini(ctx, cfg.APIKey, cfg.ModelOrDefault(), cfg.BaseURL, o.httpClient)
	case config.ProviderOpenAI:
		s.backend = newOpenAI(cfg.APIKey, cfg.ModelOrDefault(), cfg.BaseURL, o.httpClient)
	default:
		return nil, fmt.Errorf("advisor: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("advisor: create %s client: %w", cfg.Provider, err)
	}
	return s, nil
}

// Analyze asks the provider for a report on the range low..high.
func (s *Service) Analyze(ctx context.Context, low, high string) (*Report, error) {
	start := time.Now()
	report, err := s.analyze(ctx, low, high)

	reason := ReasonOf(err)
	s.metrics.RecordAdvisorRequest(ctx, s.provider, string(reason), time.Since(start))
	if err != nil {
		s.logger.Warn("advisory request failed", "low", low, "high", high, "reason", reason, "err", err)
		return nil, err
	}
	s.logger.Info("advisory report received", "low", low, "high", high, "voice_type", report.VoiceType)
	return report, nil
}

func (s *Service) analyze(ctx context.Context, low, high string) (*Report, error) {
	if s.backend == nil {
		return nil, &Error{Reason: ReasonMissingCredential, Provider: s.provider}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.backend.generate(ctx, BuildPrompt(low, high))
	if err != nil {
		return nil, &Error{Reason: s.classify(ctx, err), Provider: s.provider, Err: err}
	}

	report, err := ParseReport(text)
	if err != nil {
		return nil, &Error{Reason: ReasonMalformedResponse, Provider: s.provider, Err: err}
	}
	return report, nil
}

// classify maps a provider error onto the closed reason set. Errors that are
// neither a timeout nor a rejected key count as network failures.
func (s *Service) classify(ctx context.Context, err error) Reason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	if s.backend.credentialRejected(err) {
		return ReasonInvalidCredential
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonNetworkFailure
}

// Package translation proxies short texts to a hosted language model for translation.
package translation

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JustinTDCT/OralVault/internal/apperr"
)

type Request struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang,omitempty"`
	TargetLang string `json:"target_lang,omitempty"`
}

type Result struct {
	Translation string `json:"translation"`
	TargetLang  string `json:"target_lang"`
	Model       string `json:"model"`
}

// Translator is the model client. Implementations return the translated text only.
type Translator interface {
	Translate(ctx context.Context, req Request) (string, error)
	Model() string
}

type Options struct {
	DefaultTarget string
	MaxChars      int
	// PerSecond and Burst configure the limiter shared by all callers.
	PerSecond float64
	Burst     int
}

type Service struct {
	tr      Translator
	opts    Options
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewService wraps tr. A nil tr yields a service that answers unavailable.
func NewService(tr Translator, opts Options, logger *zap.Logger) *Service {
	if opts.DefaultTarget == "" {
		opts.DefaultTarget = "en"
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = 5000
	}
	if opts.PerSecond <= 0 {
		opts.PerSecond = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tr:      tr,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.PerSecond), opts.Burst),
		logger:  logger,
	}
}

func (s *Service) Translate(ctx context.Context, req Request) (Result, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return Result{}, apperr.Invalid("text is required")
	}
	if n := utf8.RuneCountInString(req.Text); n > s.opts.MaxChars {
		return Result{}, apperr.Invalid("text has %d characters, the limit is %d", n, s.opts.MaxChars)
	}
	if req.TargetLang == "" {
		req.TargetLang = s.opts.DefaultTarget
	}
	if s.tr == nil {
		return Result{}, apperr.New(apperr.KindUnavailable, "translation is not configured")
	}
	if !s.limiter.Allow() {
		return Result{}, apperr.New(apperr.KindRateLimited, "too many translation requests, try again shortly")
	}

	out, err := s.tr.Translate(ctx, req)
	if err != nil {
		s.logger.Warn("translation failed", zap.String("model", s.tr.Model()), zap.Error(err))
		return Result{}, apperr.Wrap(apperr.KindUpstream, err, "translation model failed")
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return Result{}, apperr.New(apperr.KindUpstream, "translation model returned no text")
	}
	return Result{Translation: out, TargetLang: req.TargetLang, Model: s.tr.Model()}, nil
}

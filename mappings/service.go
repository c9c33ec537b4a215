package mappings

import (
	"context"
	"log/slog"
	"time"

	"github.com/hazyhaar/mcmappings/scheme"
)

// Request names one class page. Empty Version and Scheme fall back to the
// service configuration.
type Request struct {
	Version   string `json:"version,omitempty"`
	Scheme    string `json:"scheme,omitempty"`
	ClassPath string `json:"class_path"`
}

// Outcome describes a finished lookup, successful or not. It never carries
// the mapping dictionaries.
type Outcome struct {
	ClassPath string
	Version   string
	Scheme    scheme.Scheme
	URL       string
	Err       error
	Fields    int
	Methods   int
	Duration  time.Duration
}

// Observer receives every lookup outcome.
type Observer interface {
	Observe(ctx context.Context, o Outcome)
}

// Service runs lookups for the API, MCP and CLI surfaces. Each lookup gets
// a fresh Extractor, so a Service is safe for concurrent use.
type Service struct {
	cfg      *Config
	logger   *slog.Logger
	opts     []Option
	observer Observer
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithObserver sets the lookup observer (e.g. the history log).
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) { s.observer = o }
}

// WithExtractorOptions appends options applied to every Extractor, after
// those derived from the config.
func WithExtractorOptions(opts ...Option) ServiceOption {
	return func(s *Service) { s.opts = append(s.opts, opts...) }
}

// NewService creates a Service. cfg must have been validated.
func NewService(cfg *Config, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{cfg: cfg, logger: logger, opts: cfg.Options(logger)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Config returns the service configuration.
func (s *Service) Config() *Config { return s.cfg }

func (s *Service) resolve(req Request) (string, scheme.Scheme, error) {
	version := req.Version
	if version == "" {
		version = s.cfg.Version
	}
	sch := s.cfg.Scheme
	if req.Scheme != "" {
		v, err := scheme.Parse(req.Scheme)
		if err != nil {
			return "", 0, err
		}
		sch = v
	}
	return version, sch, nil
}

// Lookup fetches and extracts one class page.
func (s *Service) Lookup(ctx context.Context, req Request) (*Result, error) {
	version, sch, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out := Outcome{ClassPath: req.ClassPath, Version: version, Scheme: sch}

	ex, err := New(version, sch, s.opts...)
	if err != nil {
		out.Err = err
		s.observe(ctx, out, start)
		return nil, err
	}
	out.URL = ex.PageURL(req.ClassPath)

	res, err := ex.Fetch(ctx, req.ClassPath)
	out.Err = err
	if res != nil {
		out.Fields, out.Methods = len(res.Fields), len(res.Methods)
	}
	s.observe(ctx, out, start)
	return res, err
}

// Inspect runs Extractor.Inspect for one class page.
func (s *Service) Inspect(ctx context.Context, req Request) (*Inspection, error) {
	version, sch, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	ex, err := New(version, sch, s.opts...)
	if err != nil {
		return nil, err
	}
	return ex.Inspect(ctx, req.ClassPath)
}

// Batch looks up several classes of the same version and scheme. A version
// gate failure is observed once per class, as Lookup does.
func (s *Service) Batch(ctx context.Context, version, schemeName string, classPaths []string) ([]BatchItem, error) {
	version, sch, err := s.resolve(Request{Version: version, Scheme: schemeName})
	if err != nil {
		return nil, err
	}
	if _, err := New(version, sch, s.opts...); err != nil {
		start := time.Now()
		for _, cp := range classPaths {
			s.observe(ctx, Outcome{ClassPath: cp, Version: version, Scheme: sch, Err: err}, start)
		}
		return nil, err
	}
	return Batch(ctx, version, sch, classPaths, BatchOptions{
		Concurrency: s.cfg.Concurrency,
		Options:     s.opts,
		OnResult: func(item BatchItem) {
			out := Outcome{
				ClassPath: item.ClassPath,
				Version:   version,
				Scheme:    sch,
				URL:       item.URL,
				Err:       item.Err,
				Duration:  item.Duration,
			}
			if item.Result != nil {
				out.Fields, out.Methods = len(item.Result.Fields), len(item.Result.Methods)
			}
			s.observe(ctx, out, time.Time{})
		},
	})
}

func (s *Service) observe(ctx context.Context, out Outcome, start time.Time) {
	if !start.IsZero() {
		out.Duration = time.Since(start)
	}
	if s.observer != nil {
		s.observer.Observe(ctx, out)
	}
}

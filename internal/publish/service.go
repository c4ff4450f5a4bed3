// Package publish orchestrates the publication pipeline: validate the
// submission, allocate a slug, persist the page record and attempt a short
// link, plus the read side that resolves slugs back to stored HTML.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	xhtml "golang.org/x/net/html"

	"launchpage/app/internal/analytics"
	"launchpage/app/internal/kv"
	"launchpage/app/internal/shortlink"
	"launchpage/app/internal/slug"
)

const (
	defaultTemplate   = "classic"
	defaultColorTheme = "ocean"
	fallbackBaseSlug  = "page"
)

// Request is a publication submission. HTML arrives fully rendered from the
// template collaborator; this pipeline treats it as opaque text.
type Request struct {
	BusinessName string
	Headline     string
	Contact      string
	HTML         string
	ProjectID    string
	Template     string
	ColorTheme   string
}

// PageRecord is the persisted JSON document under landing:<slug>. Immutable
// after publish.
type PageRecord struct {
	HTML         string    `json:"html"`
	BusinessName string    `json:"businessName"`
	ProjectID    string    `json:"projectId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Template     string    `json:"template"`
	ColorTheme   string    `json:"colorTheme"`
}

// Result is returned to the caller on a successful publish. ShortURL is empty
// when short-link generation failed; that never fails the publish itself.
type Result struct {
	URL      string
	ShortURL string
	Slug     string
}

// ValidationError reports required fields missing from the submission.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// StorageError carries a storage gate failure out of the pipeline as data.
type StorageError struct {
	Code kv.ErrorCode
}

func (e *StorageError) Error() string {
	return "storage failure: " + e.Code.String()
}

// Options configures the publication service.
type Options struct {
	Gate      *kv.Gate
	Shortener *shortlink.Shortener
	Analytics *analytics.Recorder
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
	BaseURL   string
	Domain    string
	Now       func() time.Time
}

// Service implements the publication pipeline and page resolution.
type Service struct {
	gate      *kv.Gate
	shortener *shortlink.Shortener
	analytics *analytics.Recorder
	logger    *logrus.Logger
	sentryHub *sentry.Hub
	baseURL   string
	domain    string
	now       func() time.Time
}

// NewService wires the publication service with its dependencies. The gate
// and analytics recorder are injected, never looked up from ambient state.
func NewService(opts Options) (*Service, error) {
	if opts.Gate == nil {
		return nil, eris.New("storage gate is required")
	}
	if opts.BaseURL == "" {
		return nil, eris.New("base URL is required")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		gate:      opts.Gate,
		shortener: opts.Shortener,
		analytics: opts.Analytics,
		logger:    opts.Logger,
		sentryHub: opts.SentryHub,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		domain:    opts.Domain,
		now:       now,
	}, nil
}

// Domain returns the public domain pages are served under.
func (s *Service) Domain() string {
	return s.domain
}

// Publish validates the request, allocates a unique slug, persists the page
// record and attempts short-link generation. Shortening and analytics are
// non-critical: their failures are swallowed and the publish still succeeds.
func (s *Service) Publish(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	base := slug.BaseSlugFor(req.BusinessName)
	if base == "" {
		base = fallbackBaseSlug
	}
	allocated := slug.AllocateUnique(ctx, base, s.gate)

	record := PageRecord{
		HTML:         req.HTML,
		BusinessName: strings.TrimSpace(req.BusinessName),
		ProjectID:    strings.TrimSpace(req.ProjectID),
		CreatedAt:    s.now().UTC(),
		Template:     valueOrDefault(req.Template, defaultTemplate),
		ColorTheme:   valueOrDefault(req.ColorTheme, defaultColorTheme),
	}

	payload, err := json.Marshal(record)
	if err != nil {
		s.recordError(logrus.Fields{"slug": allocated}, err, "marshalling page record")
		return nil, eris.Wrap(err, "marshalling page record")
	}

	if res := s.gate.Put(ctx, kv.LandingKey(allocated), string(payload)); !res.OK {
		s.recordError(logrus.Fields{"slug": allocated, "code": res.Code.String()}, eris.New(res.Message), "persisting page record")
		return nil, &StorageError{Code: res.Code}
	}

	pageURL := fmt.Sprintf("%s/p/%s", s.baseURL, allocated)
	result := &Result{URL: pageURL, Slug: allocated}
	result.ShortURL = s.shorten(ctx, pageURL, allocated)

	if s.analytics != nil {
		s.analytics.RecordDeploy(allocated)
	}

	return result, nil
}

// shorten attempts short-link generation and returns the short URL, or empty
// when the link could not be produced or persisted.
func (s *Service) shorten(ctx context.Context, pageURL, allocated string) string {
	if s.shortener == nil {
		return ""
	}

	shortened := s.shortener.Shorten(ctx, pageURL, s.baseURL)
	if shortened.Provider != shortlink.InternalProvider {
		return shortened.ShortURL
	}

	// The internal mapping must resolve before the short URL is usable.
	if res := s.gate.Put(ctx, kv.ShortKey(shortened.ShortCode), allocated); !res.OK {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"slug": allocated,
				"code": res.Code.String(),
			}).Warn("short mapping not persisted, omitting short url")
		}
		return ""
	}

	return shortened.ShortURL
}

// ResolvePage loads the stored HTML for a slug. Absence is reported as
// NOT_FOUND; storage faults keep their gate classification. A hit triggers a
// fire-and-forget view counter.
func (s *Service) ResolvePage(ctx context.Context, pageSlug string) (string, kv.Result) {
	value, found, res := s.gate.Get(ctx, kv.LandingKey(pageSlug))
	if !res.OK {
		return "", res
	}
	if !found {
		return "", kv.Result{Code: kv.CodeNotFound, Message: "page not found"}
	}

	var record PageRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		s.recordError(logrus.Fields{"slug": pageSlug}, err, "decoding stored page record")
		return "", kv.Result{Code: kv.CodeReadError, Message: "stored page record is corrupt"}
	}

	if s.analytics != nil {
		s.analytics.RecordView(pageSlug)
	}

	return record.HTML, kv.Result{OK: true, Code: kv.CodeNone}
}

func validate(req Request) error {
	var missing []string
	if strings.TrimSpace(req.BusinessName) == "" {
		missing = append(missing, "businessName")
	}
	if strings.TrimSpace(req.Headline) == "" {
		missing = append(missing, "headline")
	}
	if strings.TrimSpace(req.Contact) == "" {
		missing = append(missing, "contact")
	}
	if strings.TrimSpace(req.HTML) == "" {
		missing = append(missing, "html")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}

	if _, err := xhtml.Parse(strings.NewReader(req.HTML)); err != nil {
		return &ValidationError{Fields: []string{"html"}}
	}

	return nil
}

func valueOrDefault(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}

func (s *Service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}

// Package shortlink turns published page URLs into short links, preferring
// external shortening providers and falling back to internally generated
// codes resolved through /s/{code}.
package shortlink

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"launchpage/app/internal/kv"
)

// InternalProvider names the fallback strategy whose mappings live in the
// short: namespace.
const InternalProvider = "internal"

const (
	defaultTimeout   = 5 * time.Second
	internalCodeSize = 8
	maxProviderBody  = 2048
)

// Provider describes an external shortening endpoint. The endpoint receives
// the long URL as its url query parameter and must answer 2xx with a body
// starting with Prefix.
type Provider struct {
	Name     string
	Endpoint string
	Prefix   string
}

// DefaultProviders is the fixed priority order for external shortening.
func DefaultProviders() []Provider {
	return []Provider{
		{Name: "tinyurl", Endpoint: "https://tinyurl.com/api-create.php", Prefix: "https://tinyurl.com/"},
		{Name: "isgd", Endpoint: "https://is.gd/create.php?format=simple", Prefix: "https://is.gd/"},
	}
}

// Options configures the shortener.
type Options struct {
	Providers  []Provider
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *logrus.Logger
}

// Shortener attempts external providers in priority order before synthesizing
// an internal short code.
type Shortener struct {
	providers []Provider
	client    *http.Client
	timeout   time.Duration
	logger    *logrus.Logger
}

// Result describes the outcome of a shortening attempt. Shortening never
// fails outright: when every external provider is down the internal fallback
// supplies a code, and persisting the short:<code> mapping is the caller's
// responsibility.
type Result struct {
	ShortURL  string
	Provider  string
	ShortCode string
}

// NewShortener wires the shortener with its providers and HTTP client.
func NewShortener(opts Options) (*Shortener, error) {
	providers := opts.Providers
	if providers == nil {
		providers = DefaultProviders()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &Shortener{
		providers: providers,
		client:    client,
		timeout:   timeout,
		logger:    opts.Logger,
	}, nil
}

// Shorten produces a short link for longURL. External providers are tried in
// order; transport errors, non-2xx statuses and malformed bodies all count as
// that provider's failure and fall through. When every provider fails, an
// internal code is synthesized and the short URL is built under baseURL.
func (s *Shortener) Shorten(ctx context.Context, longURL, baseURL string) Result {
	for _, provider := range s.providers {
		shortURL, err := s.tryProvider(ctx, provider, longURL)
		if err != nil {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{
					"provider": provider.Name,
					"error":    err.Error(),
				}).Warn("shortening provider failed, falling through")
			}
			continue
		}
		return Result{ShortURL: shortURL, Provider: provider.Name}
	}

	code := newInternalCode()
	return Result{
		ShortURL:  strings.TrimRight(baseURL, "/") + "/s/" + code,
		Provider:  InternalProvider,
		ShortCode: code,
	}
}

func (s *Shortener) tryProvider(ctx context.Context, provider Provider, longURL string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	endpoint := provider.Endpoint
	if strings.Contains(endpoint, "?") {
		endpoint += "&url=" + url.QueryEscape(longURL)
	} else {
		endpoint += "?url=" + url.QueryEscape(longURL)
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", eris.Wrapf(err, "building request for %s", provider.Name)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "calling %s", provider.Name)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", eris.Errorf("%s responded with status %d", provider.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		return "", eris.Wrapf(err, "reading %s response", provider.Name)
	}

	shortURL := strings.TrimSpace(string(body))
	if !strings.HasPrefix(shortURL, provider.Prefix) {
		return "", eris.Errorf("%s returned malformed body", provider.Name)
	}

	return shortURL, nil
}

// Resolve maps a short code back to its slug via the gate. Absence, gate
// unavailability and read faults all degrade to an empty slug so a broken
// short link never escalates past a not-found redirect.
func Resolve(ctx context.Context, gate *kv.Gate, code string) string {
	if gate == nil {
		return ""
	}

	slug, found, res := gate.Get(ctx, kv.ShortKey(code))
	if !res.OK || !found {
		return ""
	}

	return slug
}

func newInternalCode() string {
	compact := strings.ReplaceAll(uuid.NewString(), "-", "")
	return compact[:internalCodeSize]
}

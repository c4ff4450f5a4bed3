package shortlink

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"launchpage/app/internal/kv"
)

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestShortener(t *testing.T, providers []Provider) *Shortener {
	t.Helper()

	shortener, err := NewShortener(Options{
		Providers: providers,
		Timeout:   2 * time.Second,
		Logger:    silentLogger(),
	})
	if err != nil {
		t.Fatalf("NewShortener returned error: %v", err)
	}
	return shortener
}

func fakeProvider(t *testing.T, name string, handler http.HandlerFunc) (Provider, func()) {
	t.Helper()

	srv := httptest.NewServer(handler)
	return Provider{
		Name:     name,
		Endpoint: srv.URL,
		Prefix:   srv.URL + "/",
	}, srv.Close
}

func TestShortenUsesFirstHealthyProvider(t *testing.T) {
	t.Parallel()

	provider, cleanup := fakeProvider(t, "primary", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("url"); got != "https://pages.example.com/p/toko-budi" {
			t.Errorf("expected long url in query, got %q", got)
		}
		_, _ = w.Write([]byte("http://" + r.Host + "/abc123"))
	})
	defer cleanup()
	provider.Prefix = "http://"

	shortener := newTestShortener(t, []Provider{provider})

	result := shortener.Shorten(context.Background(), "https://pages.example.com/p/toko-budi", "https://pages.example.com")

	if result.Provider != "primary" {
		t.Fatalf("expected provider primary, got %q", result.Provider)
	}
	if !strings.HasSuffix(result.ShortURL, "/abc123") {
		t.Fatalf("expected provider short URL, got %q", result.ShortURL)
	}
	if result.ShortCode != "" {
		t.Fatalf("expected no internal code for external provider, got %q", result.ShortCode)
	}
}

func TestShortenFallsThroughOnProviderFailure(t *testing.T) {
	t.Parallel()

	broken, cleanupBroken := fakeProvider(t, "broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer cleanupBroken()

	healthy, cleanupHealthy := fakeProvider(t, "healthy", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("http://" + r.Host + "/ok"))
	})
	defer cleanupHealthy()

	shortener := newTestShortener(t, []Provider{
		broken,
		{Name: healthy.Name, Endpoint: healthy.Endpoint, Prefix: "http://"},
	})

	result := shortener.Shorten(context.Background(), "https://pages.example.com/p/toko-budi", "https://pages.example.com")

	if result.Provider != "healthy" {
		t.Fatalf("expected fall-through to healthy provider, got %q", result.Provider)
	}
}

func TestShortenRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	malformed, cleanup := fakeProvider(t, "malformed", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Error: quota exceeded"))
	})
	defer cleanup()

	shortener := newTestShortener(t, []Provider{malformed})

	result := shortener.Shorten(context.Background(), "https://pages.example.com/p/toko-budi", "https://pages.example.com")

	if result.Provider != InternalProvider {
		t.Fatalf("expected internal fallback after malformed body, got %q", result.Provider)
	}
}

func TestShortenFallsBackToInternalCode(t *testing.T) {
	t.Parallel()

	shortener := newTestShortener(t, []Provider{})

	result := shortener.Shorten(context.Background(), "https://pages.example.com/p/toko-budi", "https://pages.example.com/")

	if result.Provider != InternalProvider {
		t.Fatalf("expected internal provider, got %q", result.Provider)
	}
	if len(result.ShortCode) != internalCodeSize {
		t.Fatalf("expected %d-char code, got %q", internalCodeSize, result.ShortCode)
	}
	expected := "https://pages.example.com/s/" + result.ShortCode
	if result.ShortURL != expected {
		t.Fatalf("expected short URL %q, got %q", expected, result.ShortURL)
	}
}

func TestInternalCodesAreDistinct(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := newInternalCode()
		if seen[code] {
			t.Fatalf("internal code %q repeated", code)
		}
		seen[code] = true
	}
}

type stubStore struct {
	values map[string]string
	getErr error
}

func (s *stubStore) Get(_ context.Context, key string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *stubStore) Put(_ context.Context, key, value string) error {
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[key] = value
	return nil
}

func TestResolveReturnsMappedSlug(t *testing.T) {
	t.Parallel()

	gate := kv.NewGate(&stubStore{values: map[string]string{"short:abc123": "toko-budi"}}, silentLogger())

	if got := Resolve(context.Background(), gate, "abc123"); got != "toko-budi" {
		t.Fatalf("expected toko-budi, got %q", got)
	}
}

func TestResolveDegradesToEmptyOnAbsenceAndFault(t *testing.T) {
	t.Parallel()

	absent := kv.NewGate(&stubStore{}, silentLogger())
	if got := Resolve(context.Background(), absent, "missing"); got != "" {
		t.Fatalf("expected empty slug for absent code, got %q", got)
	}

	faulted := kv.NewGate(&stubStore{getErr: eris.New("read exploded")}, silentLogger())
	if got := Resolve(context.Background(), faulted, "abc123"); got != "" {
		t.Fatalf("expected empty slug on read fault, got %q", got)
	}

	unavailable := kv.NewGate(nil, silentLogger())
	if got := Resolve(context.Background(), unavailable, "abc123"); got != "" {
		t.Fatalf("expected empty slug when gate unavailable, got %q", got)
	}
}

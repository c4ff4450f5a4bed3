package errorpage

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"launchpage/app/internal/kv"
)

func TestStatusMappingIsExact(t *testing.T) {
	t.Parallel()

	cases := map[kv.ErrorCode]int{
		kv.CodeNotFound:    404,
		kv.CodeUnavailable: 503,
		kv.CodeReadError:   503,
		kv.CodeWriteError:  500,
		kv.ErrorCode(42):   500,
	}

	for code, expected := range cases {
		if status := StatusFor(code); status != expected {
			t.Errorf("expected status %d for %s, got %d", expected, code, status)
		}
	}
}

func TestRenderProducesWellFormedBrandedDocuments(t *testing.T) {
	t.Parallel()

	codes := []kv.ErrorCode{
		kv.CodeUnavailable,
		kv.CodeReadError,
		kv.CodeWriteError,
		kv.CodeNotFound,
		kv.ErrorCode(42),
	}

	for _, code := range codes {
		body, status := Render(code, "")

		if status != StatusFor(code) {
			t.Errorf("%s: status mismatch, got %d", code, status)
		}

		if !strings.HasPrefix(body, "<!DOCTYPE html>") {
			t.Errorf("%s: expected doctype prefix, got %q", code, body[:40])
		}

		if !strings.Contains(body, "</html>") {
			t.Errorf("%s: expected closing html tag", code)
		}

		if !strings.Contains(body, BrandMark) {
			t.Errorf("%s: expected brand mark in document", code)
		}

		if _, err := html.Parse(strings.NewReader(body)); err != nil {
			t.Errorf("%s: document failed to parse: %v", code, err)
		}

		h1 := extractH1(t, body)
		if strings.TrimSpace(h1) == "" {
			t.Errorf("%s: expected non-empty h1", code)
		}
	}
}

func TestRenderNotFoundInterpolatesSlug(t *testing.T) {
	t.Parallel()

	body, status := Render(kv.CodeNotFound, "toko-budi")

	if status != 404 {
		t.Fatalf("expected status 404, got %d", status)
	}

	if !strings.Contains(body, "toko-budi") {
		t.Fatalf("expected slug in not-found message, got %q", body)
	}
}

func TestRenderNotFoundWithoutSlugUsesGenericMessage(t *testing.T) {
	t.Parallel()

	body, _ := Render(kv.CodeNotFound, "")

	if !strings.Contains(body, "that landing page") {
		t.Fatalf("expected generic not-found message, got %q", body)
	}
}

func TestRenderEscapesSlugContext(t *testing.T) {
	t.Parallel()

	body, _ := Render(kv.CodeNotFound, `<script>alert("x")</script>`)

	if strings.Contains(body, "<script>") {
		t.Fatalf("expected slug context to be escaped, got %q", body)
	}
}

func extractH1(t *testing.T, body string) string {
	t.Helper()

	start := strings.Index(body, "<h1>")
	end := strings.Index(body, "</h1>")
	if start < 0 || end < 0 || end < start {
		t.Fatalf("expected h1 element in document, got %q", body)
	}
	return body[start+len("<h1>") : end]
}

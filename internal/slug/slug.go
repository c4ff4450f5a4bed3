// Package slug derives URL-safe identifiers from business names and allocates
// them against the landing namespace.
package slug

import (
	"context"
	"fmt"
	"strings"

	"launchpage/app/internal/kv"
)

const (
	maxLength = 50
	maxProbes = 100
)

// BaseSlugFor derives the canonical slug for a business name: lowercase,
// [a-z0-9-] only, single hyphens between words, at most 50 characters, no
// leading or trailing hyphen. Pure and total; an empty or unusable name
// yields an empty slug.
func BaseSlugFor(name string) string {
	lowered := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r':
			b.WriteByte(' ')
		}
	}

	slug := strings.Join(strings.Fields(b.String()), "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}

	if len(slug) > maxLength {
		slug = slug[:maxLength]
	}

	return strings.Trim(slug, "-")
}

// AllocateUnique probes the landing namespace through the gate until it finds
// a free candidate, suffixing -1, -2, ... on collisions. The probe-then-write
// sequence is not transactional: two concurrent publishes racing on the same
// base can both observe a candidate free, and the last writer wins. After 100
// probes the 100th candidate is returned regardless. When the gate is
// unavailable the base is returned unchanged and publishing proceeds
// optimistically.
func AllocateUnique(ctx context.Context, base string, gate *kv.Gate) string {
	if gate == nil || !gate.Available() {
		return base
	}

	candidate := base
	for i := 1; i <= maxProbes; i++ {
		_, found, res := gate.Get(ctx, kv.LandingKey(candidate))
		if !res.OK || !found {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	return candidate
}

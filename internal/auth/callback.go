package auth

import (
	"net/url"
	"strings"
)

// SafeCallbackURL normalizes a caller-supplied sign-out callback target.
// Relative paths are resolved against the configured base origin; absolute
// URLs are accepted only when they share the exact base origin. Anything
// else falls back to the base origin, so a crafted callbackUrl can never
// redirect off-site.
func SafeCallbackURL(raw, baseOrigin string) string {
	base := strings.TrimRight(strings.TrimSpace(baseOrigin), "/")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return base + "/"
	}

	// Scheme-relative URLs ("//evil.example") parse as absolute without a
	// scheme; reject them with the absolute branch below.
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return base + raw
	}

	target, err := url.Parse(raw)
	if err != nil || target.Host == "" {
		return base + "/"
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return base + "/"
	}
	if target.Scheme == baseURL.Scheme && target.Host == baseURL.Host {
		return raw
	}
	return base + "/"
}

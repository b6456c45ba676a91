package httpx

import (
	"net/http"
	"strings"
)

// HopByHopHeaders must not cross the proxy in either direction. The set
// covers the RFC 9110 connection-specific headers plus host and
// content-length, which the outbound client recomputes.
var HopByHopHeaders = map[string]struct{}{
	"connection":          {},
	"keep-alive":          {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailer":             {},
	"transfer-encoding":   {},
	"upgrade":             {},
	"host":                {},
	"content-length":      {},
}

// ForwardedPrefix marks headers describing the inbound hop; they are
// stripped so the dashboard's own trust headers cannot be spoofed from
// outside.
const ForwardedPrefix = "x-forwarded-"

// FilterHeaders copies src, skipping any header whose lowercase name is
// in deny and any header whose lowercase name starts with one of
// denyPrefixes. Pure: src is never mutated.
func FilterHeaders(src http.Header, deny map[string]struct{}, denyPrefixes ...string) http.Header {
	dst := make(http.Header, len(src))
	for name, values := range src {
		lower := strings.ToLower(name)
		if _, blocked := deny[lower]; blocked {
			continue
		}
		if hasAnyPrefix(lower, denyPrefixes) {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
	return dst
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/Kjdragan/universal-agent-sub000/internal/domain/auth"
)

// OwnerHeader carries the resolved owner id to the upstream gateway.
const OwnerHeader = "x-ua-dashboard-owner"

// OpsTokenHeader carries the operations token to the upstream gateway.
const OpsTokenHeader = "x-ua-ops-token"

// ownerScopedPaths is the fixed allow-list of upstream paths that
// receive an injected owner filter. Deliberately narrow: most upstream
// endpoints are not owner-scoped, and a blanket filter would silently
// change their semantics.
var ownerScopedPaths = map[string]struct{}{
	"api/v1/ops/sessions":        {},
	"api/v1/ops/schedule/events": {},
}

// SessionResolver is the subset of the auth service the proxy needs.
type SessionResolver interface {
	ResolveSession(cookieValue string) domainauth.Session
}

// GatewayHandlers forwards dashboard requests to the upstream gateway.
// It is the trust boundary: inbound hop-by-hop and x-forwarded-*
// headers are stripped, trust headers are injected, and the upstream
// response is relayed verbatim.
type GatewayHandlers struct {
	Resolver           SessionResolver
	UpstreamURL        string // base URL, no trailing slash
	OpsToken           string
	EnforceOwnerFilter bool
	Client             *http.Client // optional; defaults to a no-redirect client
	Logger             *slog.Logger
}

func (h *GatewayHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *GatewayHandlers) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return noRedirectClient
}

// noRedirectClient relays redirects to the browser instead of following
// them, so upstream Location headers keep their meaning.
var noRedirectClient = &http.Client{
	CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

// Forward handles {GET,POST,PUT,PATCH,DELETE} /gateway/{path...}.
//
// Failure semantics: unauthenticated callers get 401 without any
// upstream contact; an unreachable upstream yields a structured 502;
// every upstream response, error or not, is passed through unchanged.
func (h *GatewayHandlers) Forward(w http.ResponseWriter, r *http.Request) {
	sess := h.Resolver.ResolveSession(sessionCookieValue(r))
	if sess.AuthRequired && !sess.Authenticated {
		WriteDetail(w, http.StatusUnauthorized, "login required")
		return
	}

	upstreamPath := r.PathValue("path")
	target := h.UpstreamURL + "/" + encodePath(upstreamPath) + buildQuery(r, upstreamPath, sess, h.EnforceOwnerFilter)

	var body io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		body = r.Body
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		WriteDetail(w, http.StatusBadGateway, "invalid upstream request")
		return
	}
	req.Header = FilterHeaders(r.Header, HopByHopHeaders, ForwardedPrefix)
	req.Header.Set(OwnerHeader, sess.OwnerID)
	if h.OpsToken != "" {
		req.Header.Set(OpsTokenHeader, h.OpsToken)
		req.Header.Set("Authorization", "Bearer "+h.OpsToken)
	}

	resp, err := h.client().Do(req)
	if err != nil {
		// The most common local failure mode: the UI was started
		// before the gateway. Make the message actionable.
		h.logger().WarnContext(r.Context(), "upstream unreachable",
			"upstream", h.UpstreamURL, "error", err)
		WriteJSON(w, http.StatusBadGateway, map[string]string{
			"detail":   "gateway unavailable - is the gateway service running?",
			"upstream": h.UpstreamURL,
			"error":    err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	h.relay(w, r, resp)
}

// relay streams the upstream response back verbatim, minus hop-by-hop
// headers, with caching disabled. Flushing after each chunk keeps
// relayed SSE streams live.
func (h *GatewayHandlers) relay(w http.ResponseWriter, r *http.Request, resp *http.Response) {
	for name, values := range FilterHeaders(resp.Header, HopByHopHeaders) {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(resp.StatusCode)

	rc := http.NewResponseController(w)
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			// Flush is best-effort; not every writer supports it.
			_ = rc.Flush()
		}
		if err != nil {
			if err != io.EOF {
				h.logger().DebugContext(r.Context(), "upstream body relay ended", "error", err)
			}
			return
		}
	}
}

// encodePath escapes each path segment individually and rejoins them,
// so segments containing reserved characters survive the hop while "/"
// separators keep their meaning.
func encodePath(path string) string {
	segments := strings.Split(path, "/")
	encoded := make([]string, len(segments))
	for i, seg := range segments {
		encoded[i] = url.PathEscape(seg)
	}
	return strings.Join(encoded, "/")
}

// buildQuery copies the inbound query verbatim and conditionally
// injects the owner filter for allow-listed owner-scoped paths.
func buildQuery(r *http.Request, upstreamPath string, sess domainauth.Session, enforce bool) string {
	q := r.URL.Query()
	if enforce && sess.OwnerID != "" && !q.Has("owner") {
		if _, scoped := ownerScopedPaths[strings.Trim(upstreamPath, "/")]; scoped {
			q.Set("owner", sess.OwnerID)
		}
	}
	if encoded := q.Encode(); encoded != "" {
		return "?" + encoded
	}
	return ""
}

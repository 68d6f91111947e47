package server

import (
	"net/http"
	"net/url"
	"path"
	"strings"
)

// allowOrigin reports whether r comes from a page permitted to control
// playback: the bridge itself or a host matching one of the configured
// patterns. Patterns use the same syntax as the WebSocket origin check: a
// path.Match host pattern, or scheme://host when the pattern has a scheme.
//
// Browsers attach Origin to every POST, so a request without one is refused.
func (s *Server) allowOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(r.Host, u.Host) {
		return true
	}
	for _, pattern := range s.origins {
		target := u.Host
		if strings.Contains(pattern, "://") {
			target = u.Scheme + "://" + u.Host
		}
		if ok, err := path.Match(strings.ToLower(pattern), strings.ToLower(target)); err == nil && ok {
			return true
		}
	}
	return false
}

// rejectOrigin writes 403 and reports true when r may not issue commands.
func (s *Server) rejectOrigin(w http.ResponseWriter, r *http.Request) bool {
	if s.allowOrigin(r) {
		return false
	}
	s.log.Warn().Str("origin", r.Header.Get("Origin")).Str("path", r.URL.Path).Msg("rejected control request")
	writeError(w, http.StatusForbidden, "origin not allowed")
	return true
}

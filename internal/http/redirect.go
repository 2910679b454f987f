package httpx

import (
	"net/url"
	"strings"
)

// safeRedirectPath returns p when it is a local absolute path, otherwise "".
// Scheme-relative ("//host") and backslash tricks are rejected.
func safeRedirectPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") {
		return ""
	}
	if strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") || strings.ContainsAny(p, "\r\n") {
		return ""
	}
	return p
}

// safeRedirectFromURL reduces raw to a local path, keeping only the
// path and query of absolute URLs.
func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}
	if u.Host != "" {
		return ""
	}
	return safeRedirectPath(raw)
}

// redirectTarget picks the post-action destination: a safe redirect_uri
// from the request, falling back to def.
func redirectTarget(requested, def string) string {
	if p := safeRedirectPath(requested); p != "" {
		return p
	}
	if p := safeRedirectPath(def); p != "" {
		return p
	}
	return "/"
}

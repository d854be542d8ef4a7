// Package clientip derives the identifier used to scope rate limits to the
// caller that originated a request.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// FromRequest returns the first X-Forwarded-For entry, else X-Real-IP, else
// the host part of the connection address. It returns "" when none is usable.
func FromRequest(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Or returns ip, or fallback when ip is empty.
func Or(ip, fallback string) string {
	if ip == "" {
		return fallback
	}
	return ip
}

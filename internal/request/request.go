// Package request holds helpers for inspecting inbound HTTP requests.
package request

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
)

// ErrMissingParam is returned when a required query parameter is absent
var ErrMissingParam = errors.New("missing query parameter")

// ClientIP returns the address used to key rate limits. The first
// X-Forwarded-For hop wins, then X-Real-IP, then RemoteAddr without its port.
// Header values that do not parse as an IP are ignored.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip, ok := parseIP(first); ok {
			return ip
		}
	}
	if ip, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
		return ip
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if ip, ok := parseIP(host); ok {
		return ip
	}
	return host
}

func parseIP(s string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}

// FloatQuery parses a required finite float query parameter
func FloatQuery(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingParam, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("query parameter %s must be a number", name)
	}
	return v, nil
}

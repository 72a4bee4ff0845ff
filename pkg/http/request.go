package http

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the address a request came from, for request logs and
// audit records. Forwarding headers are honored only when the direct peer is
// inside one of the trusted proxy CIDR ranges; from anywhere else they are
// caller-controlled and ignored.
func ClientIP(r *http.Request, trustedProxies []string) string {
	peer := peerAddr(r)

	if behindTrustedProxy(peer, trustedProxies) {
		if ip := firstForwardedIP(r.Header.Get("X-Forwarded-For")); ip != "" {
			return ip
		}
		if ip := r.Header.Get("X-Real-IP"); net.ParseIP(ip) != nil {
			return ip
		}
	}

	return peer
}

// peerAddr strips the port from RemoteAddr.
func peerAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func behindTrustedProxy(peer string, trustedProxies []string) bool {
	ip := net.ParseIP(peer)
	if ip == nil {
		return false
	}

	for _, cidr := range trustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			// Malformed ranges never match.
			continue
		}
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// firstForwardedIP returns the first parseable address in an
// X-Forwarded-For list, or "".
func firstForwardedIP(header string) string {
	for _, part := range strings.Split(header, ",") {
		candidate := strings.TrimSpace(part)
		if net.ParseIP(candidate) != nil {
			return candidate
		}
	}
	return ""
}

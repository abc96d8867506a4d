package api

import (
	"strings"
)

// clientIP picks the client address for rate limiting from forwarding
// headers. Requests that arrive without either header share one bucket,
// which is the direct-connection case on a home server.
func clientIP(forwardedFor, realIP string) string {
	if forwardedFor != "" {
		// First address in the chain is the client.
		if i := strings.IndexByte(forwardedFor, ','); i >= 0 {
			return strings.TrimSpace(forwardedFor[:i])
		}
		return strings.TrimSpace(forwardedFor)
	}
	if realIP != "" {
		return realIP
	}
	return "direct"
}

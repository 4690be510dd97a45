package sync

import (
	"errors"
	"strings"

	"github.com/openclaw/missionctl/internal/gateway"
)

// The gateway adapter exposes no structured error codes, so transient
// failures are recognized by substring signatures in the error text. The
// lists live here, behind IsTransient, so a structured scheme can replace
// them later without touching the retry loop.
var nonTransientMarkers = []string{
	"unsupported file",
}

var transientMarkers = []string{
	"connect call failed",
	"connection refused",
	"errno 111",
	"econnrefused",
	"did not receive a valid http response",
	"no route to host",
	"network is unreachable",
	"host is down",
	"name or service not known",
	"no such host",
	"received 1012",
	"service restart",
	"http 503",
	"http 502",
	"http 504",
	"temporar",
	"timeout",
	"timed out",
	"connection closed",
	"connection reset",
}

// IsTransient reports whether err is a gateway error worth retrying.
// Non-transient markers win over transient ones: "unsupported file type"
// never retries even when the message also mentions a timeout.
func IsTransient(err error) bool {
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		return false
	}
	message := strings.ToLower(gwErr.Message)
	if message == "" {
		return false
	}
	for _, marker := range nonTransientMarkers {
		if strings.Contains(message, marker) {
			return false
		}
	}
	if strings.Contains(message, "503") && strings.Contains(message, "websocket") {
		return true
	}
	for _, marker := range transientMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}

package whatsapp

import "strings"

// Session status values. These are the only states stored or returned,
// provider status strings are normalized into them.
const (
	StatusDisconnected = "disconnected"
	StatusConnecting   = "connecting"
	StatusQrPending    = "qr_pending"
	StatusConnected    = "connected"
	StatusError        = "error"
)

// statusLiterals resolves exact provider strings before any substring
// matching runs. Needed because several provider states would otherwise
// land in the wrong bucket: "disconnected" and "desconnectedMobile"
// contain "connect", "opening" contains "open", and "logged out" matches
// no substring rule at all.
var statusLiterals = map[string]string{
	"connected":          StatusConnected,
	"islogged":           StatusConnected,
	"inchat":             StatusConnected,
	"open":               StatusConnected,
	"qrreadsuccess":      StatusConnected,
	"qrcode":             StatusQrPending,
	"notlogged":          StatusDisconnected,
	"disconnected":       StatusDisconnected,
	"desconnectedmobile": StatusDisconnected,
	"logged out":         StatusDisconnected,
	"loggedout":          StatusDisconnected,
	"close":              StatusDisconnected,
	"closed":             StatusDisconnected,
	"qrreadfail":         StatusError,
	"browserclose":       StatusError,
	"autoclosecalled":    StatusError,
	"serverclose":        StatusError,
	"deleted":            StatusDisconnected,
	"opening":            StatusConnecting,
	"initializing":       StatusConnecting,
	"starting":           StatusConnecting,
	"devicenotconnected": StatusDisconnected,
}

// substring rules in priority order. First match wins.
var statusSubstrings = []struct {
	needle string
	status string
}{
	{"connect", StatusConnected},
	{"open", StatusConnected},
	{"qr", StatusQrPending},
	{"scan", StatusQrPending},
	{"init", StatusConnecting},
	{"start", StatusConnecting},
	{"loading", StatusConnecting},
	{"close", StatusDisconnected},
	{"disconnect", StatusDisconnected},
	{"unpaired", StatusDisconnected},
	{"logout", StatusDisconnected},
	{"error", StatusError},
	{"fail", StatusError},
	{"conflict", StatusError},
}

// MapStatus normalizes a raw provider status string. Unknown or empty input
// returns prior unchanged so transient noise never regresses a session.
func MapStatus(raw, prior string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return prior
	}
	if mapped, ok := statusLiterals[s]; ok {
		return mapped
	}
	for _, rule := range statusSubstrings {
		if strings.Contains(s, rule.needle) {
			return rule.status
		}
	}
	return prior
}

// IsValidStatus reports whether s is one of the normalized status values.
func IsValidStatus(s string) bool {
	switch s {
	case StatusDisconnected, StatusConnecting, StatusQrPending, StatusConnected, StatusError:
		return true
	}
	return false
}

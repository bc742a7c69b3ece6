package wppconnect

import (
	"strings"

	"github.com/spf13/cast"
)

// Provider responses and webhook events are loosely typed and field names
// drift between provider versions. These helpers probe the known variants
// in a fixed order so every caller resolves fields the same way.

// lookup walks a dotted path into nested maps.
func lookup(p map[string]interface{}, path string) (interface{}, bool) {
	cur := interface{}(p)
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func firstString(p map[string]interface{}, paths ...string) string {
	for _, path := range paths {
		if v, ok := lookup(p, path); ok {
			if s := cast.ToString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// ProbeSessionID extracts the session identifier from a webhook or poll body.
func ProbeSessionID(p map[string]interface{}) string {
	return firstString(p, "session", "sessionId", "data.session", "data.sessionId", "data.instance")
}

// ProbeStatus extracts the raw provider status string.
func ProbeStatus(p map[string]interface{}) string {
	return firstString(p, "status", "state", "data.status", "data.state", "event")
}

// ProbeQRCode extracts the QR code image data, empty when not present.
func ProbeQRCode(p map[string]interface{}) string {
	return firstString(p, "qrcode", "qrCode", "qr", "base64Qr", "data.qrcode", "data.qrCode", "data.qr", "data.base64Qr")
}

// ProbePhone extracts the paired phone number.
func ProbePhone(p map[string]interface{}) string {
	return firstString(p, "phone", "data.phone", "sender.id", "wid", "number", "response.wid", "response.phone", "response.number")
}

// ProbeDisplayName extracts the paired account display name.
func ProbeDisplayName(p map[string]interface{}) string {
	return firstString(p, "displayName", "data.displayName", "sender.name", "pushname", "name", "response.pushname", "response.displayName", "response.name")
}

// ProbeConnected reports an explicit boolean connected flag when the body
// carries one. The second return is false when no flag is present.
func ProbeConnected(p map[string]interface{}) (bool, bool) {
	for _, path := range []string{"connected", "data.connected", "response.connected"} {
		if v, ok := lookup(p, path); ok {
			if b, ok := v.(bool); ok {
				return b, true
			}
		}
	}
	return false, false
}

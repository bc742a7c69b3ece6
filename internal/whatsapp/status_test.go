package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapStatusLiterals(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"CONNECTED", StatusConnected},
		{"isLogged", StatusConnected},
		{"inChat", StatusConnected},
		{"Open", StatusConnected},
		{"qrReadSuccess", StatusConnected},

		{"qrcode", StatusQrPending},

		{"notLogged", StatusDisconnected},
		{"disconnected", StatusDisconnected},
		{"desconnectedMobile", StatusDisconnected},
		{"logged out", StatusDisconnected},
		{"CLOSED", StatusDisconnected},

		{"opening", StatusConnecting},
		{"initializing", StatusConnecting},

		{"qrReadFail", StatusError},
		{"browserClose", StatusError},
		{"autocloseCalled", StatusError},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, MapStatus(tc.raw, StatusDisconnected))
		})
	}
}

func TestMapStatusSubstrings(t *testing.T) {
	assert.Equal(t, StatusConnected, MapStatus("open socket", StatusDisconnected))
	assert.Equal(t, StatusConnected, MapStatus("successfully connected", StatusDisconnected))
	assert.Equal(t, StatusQrPending, MapStatus("waiting for qrcode scan", StatusDisconnected))
	assert.Equal(t, StatusConnecting, MapStatus("session starting up", StatusDisconnected))
	assert.Equal(t, StatusDisconnected, MapStatus("device unpaired", StatusConnected))
	assert.Equal(t, StatusError, MapStatus("internal failure", StatusConnected))
	assert.Equal(t, StatusError, MapStatus("session conflict detected", StatusConnected))
}

func TestMapStatusRetainsPrior(t *testing.T) {
	assert.Equal(t, StatusConnected, MapStatus("", StatusConnected))
	assert.Equal(t, StatusConnected, MapStatus("   ", StatusConnected))
	assert.Equal(t, StatusQrPending, MapStatus("bananas", StatusQrPending))
	assert.Equal(t, StatusConnecting, MapStatus("unknown-state-42", StatusConnecting))
}

func TestSessionIDRoundTrip(t *testing.T) {
	assert.Equal(t, "tenant-42", SessionID(42))
	assert.Equal(t, int64(42), TenantFromSessionID("tenant-42"))
	assert.Equal(t, int64(0), TenantFromSessionID("other-42"))
	assert.Equal(t, int64(0), TenantFromSessionID("tenant-abc"))
	assert.Equal(t, int64(0), TenantFromSessionID(""))
}

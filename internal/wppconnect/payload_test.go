package wppconnect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeSessionIDVariants(t *testing.T) {
	assert.Equal(t, "tenant-1", ProbeSessionID(map[string]interface{}{"session": "tenant-1"}))
	assert.Equal(t, "tenant-2", ProbeSessionID(map[string]interface{}{"sessionId": "tenant-2"}))
	assert.Equal(t, "tenant-3", ProbeSessionID(map[string]interface{}{
		"data": map[string]interface{}{"session": "tenant-3"},
	}))
	assert.Equal(t, "tenant-4", ProbeSessionID(map[string]interface{}{
		"data": map[string]interface{}{"instance": "tenant-4"},
	}))
	assert.Empty(t, ProbeSessionID(map[string]interface{}{"other": "x"}))
}

func TestProbeQRCodeVariants(t *testing.T) {
	assert.Equal(t, "a", ProbeQRCode(map[string]interface{}{"qrcode": "a"}))
	assert.Equal(t, "b", ProbeQRCode(map[string]interface{}{"qrCode": "b"}))
	assert.Equal(t, "c", ProbeQRCode(map[string]interface{}{"qr": "c"}))
	assert.Equal(t, "d", ProbeQRCode(map[string]interface{}{"base64Qr": "d"}))
	// first variant wins when several are present
	assert.Equal(t, "a", ProbeQRCode(map[string]interface{}{"qrcode": "a", "qr": "c"}))
	assert.Empty(t, ProbeQRCode(map[string]interface{}{"qrcode": ""}))
}

func TestProbeDeviceFields(t *testing.T) {
	p := map[string]interface{}{
		"response": map[string]interface{}{
			"wid":      "5511999998888",
			"pushname": "Support Desk",
		},
	}
	assert.Equal(t, "5511999998888", ProbePhone(p))
	assert.Equal(t, "Support Desk", ProbeDisplayName(p))

	flat := map[string]interface{}{
		"sender": map[string]interface{}{"id": "5511000", "name": "Bot"},
	}
	assert.Equal(t, "5511000", ProbePhone(flat))
	assert.Equal(t, "Bot", ProbeDisplayName(flat))
}

func TestProbeConnectedFlag(t *testing.T) {
	v, found := ProbeConnected(map[string]interface{}{"connected": true})
	assert.True(t, found)
	assert.True(t, v)

	v, found = ProbeConnected(map[string]interface{}{"connected": false})
	assert.True(t, found)
	assert.False(t, v)

	_, found = ProbeConnected(map[string]interface{}{"status": "CONNECTED"})
	assert.False(t, found)
}

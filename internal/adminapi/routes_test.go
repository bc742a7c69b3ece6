package adminapi

import (
	"net/http"
	"testing"

	"github.com/dialogix/dialogix/config"
	"github.com/dialogix/dialogix/internal/app"
	"github.com/dialogix/dialogix/internal/webserver"
	"github.com/stretchr/testify/assert"
)

func TestChannelRoutesMounted(t *testing.T) {
	Init()
	s := webserver.Init(app.NewApplication(config.DefaultAppConfig))

	mounted := map[string]bool{}
	for _, r := range s.Echo().Routes() {
		mounted[r.Method+" "+r.Path] = true
	}

	for _, route := range []string{
		"POST /api/v1/channels/whatsapp/connect",
		"POST /api/v1/channels/whatsapp/reconnect",
		"POST /api/v1/channels/whatsapp/disconnect",
		"GET /api/v1/channels/whatsapp/status",
		"GET /api/v1/channels/whatsapp/qrcode",
		"POST /api/v1/webhooks/wppconnect",
		"POST /api/v1/auth/login",
	} {
		assert.True(t, mounted[route], "route not mounted: %s", route)
	}
	assert.False(t, mounted[http.MethodPost+" /api/v1/whatsapp/connect"])
}

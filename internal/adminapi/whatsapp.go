package adminapi

import (
	"net/http"

	"github.com/dialogix/dialogix/internal/webserver"
	"github.com/dialogix/dialogix/internal/whatsapp"
	"github.com/dialogix/dialogix/internal/wppconnect"
	"github.com/labstack/echo/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func registerWhatsappRoutes() {
	webserver.ApiPOST("/channels/whatsapp/connect", postWhatsappConnect)
	webserver.ApiPOST("/channels/whatsapp/reconnect", postWhatsappReconnect)
	webserver.ApiPOST("/channels/whatsapp/disconnect", postWhatsappDisconnect)
	webserver.ApiGET("/channels/whatsapp/status", getWhatsappStatus)
	webserver.ApiGET("/channels/whatsapp/qrcode", getWhatsappQRCode)
	webserver.PubPOST("/webhooks/wppconnect", postWppconnectWebhook)
}

func whatsappFail(c echo.Context, err error) error {
	if errors.Is(err, whatsapp.ErrSessionNotFound) {
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND",
			"No WhatsApp session exists for this tenant", nil)
	}
	if errors.Is(err, wppconnect.ErrNotConfigured) {
		return fail(c, http.StatusServiceUnavailable, "WPP_NOT_CONFIGURED",
			"WPPConnect provider is not configured", nil)
	}
	if wppconnect.IsProviderError(err) {
		return fail(c, http.StatusBadGateway, "WPP_PROVIDER_ERROR",
			"WPPConnect provider returned an error", err.Error())
	}
	return fail(c, http.StatusInternalServerError, "WHATSAPP_ERROR",
		"WhatsApp operation failed", err.Error())
}

func postWhatsappConnect(c echo.Context) error {
	svc := whatsapp.Default()
	if svc == nil {
		return fail(c, http.StatusServiceUnavailable, "WA_NOT_INITIALIZED", "WhatsApp service not initialized", nil)
	}
	state, err := svc.Connect(c.Request().Context(), GetTenantID(c))
	if err != nil {
		return whatsappFail(c, err)
	}
	audit(c, "whatsapp_connect", state.SessionId)
	return ok(c, state)
}

func postWhatsappReconnect(c echo.Context) error {
	svc := whatsapp.Default()
	if svc == nil {
		return fail(c, http.StatusServiceUnavailable, "WA_NOT_INITIALIZED", "WhatsApp service not initialized", nil)
	}
	state, err := svc.Reconnect(c.Request().Context(), GetTenantID(c))
	if err != nil {
		return whatsappFail(c, err)
	}
	audit(c, "whatsapp_reconnect", state.SessionId)
	return ok(c, state)
}

func postWhatsappDisconnect(c echo.Context) error {
	svc := whatsapp.Default()
	if svc == nil {
		return fail(c, http.StatusServiceUnavailable, "WA_NOT_INITIALIZED", "WhatsApp service not initialized", nil)
	}
	state, err := svc.Disconnect(c.Request().Context(), GetTenantID(c))
	if err != nil {
		return whatsappFail(c, err)
	}
	audit(c, "whatsapp_disconnect", state.SessionId)
	return ok(c, state)
}

func getWhatsappStatus(c echo.Context) error {
	svc := whatsapp.Default()
	if svc == nil {
		return fail(c, http.StatusServiceUnavailable, "WA_NOT_INITIALIZED", "WhatsApp service not initialized", nil)
	}
	state, err := svc.GetStatus(c.Request().Context(), GetTenantID(c))
	if err != nil {
		// stored snapshot still answers when the provider poll failed
		if errors.Is(err, wppconnect.ErrNotConfigured) || wppconnect.IsProviderError(err) {
			zap.L().Warn("whatsapp status poll degraded", zap.Error(err))
			return ok(c, state)
		}
		return whatsappFail(c, err)
	}
	return ok(c, state)
}

func getWhatsappQRCode(c echo.Context) error {
	svc := whatsapp.Default()
	if svc == nil {
		return fail(c, http.StatusServiceUnavailable, "WA_NOT_INITIALIZED", "WhatsApp service not initialized", nil)
	}
	qr, err := svc.GetQRCode(c.Request().Context(), GetTenantID(c))
	if err != nil {
		return whatsappFail(c, err)
	}
	return ok(c, map[string]interface{}{
		"qrcode": qr,
		"has_qr": qr != "",
	})
}

// webhookEnvelope is the loosely typed shape logged for every event.
type webhookEnvelope struct {
	Event     string `mapstructure:"event"`
	Session   string `mapstructure:"session"`
	SessionId string `mapstructure:"sessionId"`
	Status    string `mapstructure:"status"`
	State     string `mapstructure:"state"`
}

// postWppconnectWebhook ingests provider events. Always answers 200 so the
// provider does not retry events we chose to drop.
func postWppconnectWebhook(c echo.Context) error {
	svc := whatsapp.Default()
	if svc == nil {
		return fail(c, http.StatusServiceUnavailable, "WA_NOT_INITIALIZED", "WhatsApp service not initialized", nil)
	}

	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse webhook body", nil)
	}

	var envelope webhookEnvelope
	if err := mapstructure.Decode(payload, &envelope); err == nil {
		zap.L().Debug("wppconnect webhook received",
			zap.String("namespace", "whatsapp"),
			zap.String("event", envelope.Event),
			zap.String("session", envelope.Session+envelope.SessionId),
			zap.String("status", envelope.Status+envelope.State))
	}

	if err := svc.HandleWebhook(c.Request().Context(), payload); err != nil {
		zap.L().Error("webhook handling failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "WEBHOOK_ERROR", "Failed to process webhook", nil)
	}
	return ok(c, map[string]interface{}{"received": true})
}

package adminapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/internal/whatsapp"
	"github.com/dialogix/dialogix/internal/wppconnect"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupWebhookService(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.WhatsappSession{}, &domain.ChanChannel{}))

	svc := whatsapp.NewService(db, EventBus.New(), func() *wppconnect.Client {
		return wppconnect.NewClient(wppconnect.Config{BaseURL: "http://127.0.0.1:1", Token: "tok"})
	})
	whatsapp.SetDefault(svc)
	t.Cleanup(func() { whatsapp.SetDefault(nil) })
	return db
}

func TestWebhookEndpointUpdatesSession(t *testing.T) {
	db := setupWebhookService(t)
	require.NoError(t, db.Create(&domain.WhatsappSession{
		TenantId:  6,
		SessionId: "tenant-6",
		Status:    whatsapp.StatusQrPending,
	}).Error)

	e := echo.New()
	body := `{"event":"status-find","session":"tenant-6","status":"CONNECTED","phone":"5511222"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/wppconnect", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, postWppconnectWebhook(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var row domain.WhatsappSession
	require.NoError(t, db.Where("tenant_id = ?", 6).First(&row).Error)
	assert.Equal(t, whatsapp.StatusConnected, row.Status)
	assert.Equal(t, "5511222", row.PhoneNumber)
}

func TestWebhookEndpointDropsUnknownSession(t *testing.T) {
	db := setupWebhookService(t)

	e := echo.New()
	body := `{"session":"not-ours","status":"CONNECTED"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/wppconnect", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, postWppconnectWebhook(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var count int64
	db.Model(&domain.WhatsappSession{}).Count(&count)
	assert.Zero(t, count)
}

func TestWebhookEndpointWithoutService(t *testing.T) {
	whatsapp.SetDefault(nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/wppconnect", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, postWppconnectWebhook(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

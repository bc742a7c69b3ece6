package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/internal/wppconnect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.WhatsappSession{}, &domain.ChanChannel{}))
	return db
}

// providerStub is a scriptable WPPConnect server.
type providerStub struct {
	startBody map[string]interface{}
	checkBody map[string]interface{}
	qrBody    map[string]interface{}
	hostBody  map[string]interface{}

	startCalls  int
	logoutCalls int
	qrCalls     int
}

func (p *providerStub) handler() http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, body map[string]interface{}) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && hasSuffix(r.URL.Path, "/start-session"):
			p.startCalls++
			write(w, p.startBody)
		case r.Method == http.MethodPost && hasSuffix(r.URL.Path, "/logout-session"):
			p.logoutCalls++
			write(w, map[string]interface{}{"status": "CLOSED"})
		case r.Method == http.MethodGet && hasSuffix(r.URL.Path, "/check-connection-session"):
			write(w, p.checkBody)
		case r.Method == http.MethodGet && hasSuffix(r.URL.Path, "/qrcode-session"):
			p.qrCalls++
			write(w, p.qrBody)
		case r.Method == http.MethodGet && hasSuffix(r.URL.Path, "/host-device"):
			write(w, p.hostBody)
		default:
			http.NotFound(w, r)
		}
	})
	return mux
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func newTestService(t *testing.T, baseURL string) *Service {
	t.Helper()
	db := newTestDB(t)
	return NewService(db, EventBus.New(), func() *wppconnect.Client {
		return wppconnect.NewClient(wppconnect.Config{
			BaseURL:    baseURL,
			Token:      "test-token",
			WebhookURL: "http://localhost/webhook",
		})
	})
}

func TestConnectPairingFlow(t *testing.T) {
	stub := &providerStub{
		startBody: map[string]interface{}{"status": "qrcode", "qrcode": "data:image/png;base64,AAA"},
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	state, err := svc.Connect(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, StatusQrPending, state.Status)
	assert.Equal(t, "tenant-1", state.SessionId)
	assert.True(t, state.QrAvailable)
	assert.Equal(t, 1, stub.startCalls)

	qr, err := svc.GetQRCode(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAA", qr)

	// the QR code never reaches the session row
	var row domain.WhatsappSession
	require.NoError(t, svc.db.Where("tenant_id = ?", 1).First(&row).Error)
	assert.Equal(t, StatusQrPending, row.Status)
}

func TestConnectNotConfigured(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, EventBus.New(), func() *wppconnect.Client {
		return wppconnect.NewClient(wppconnect.Config{})
	})
	_, err := svc.Connect(context.Background(), 1)
	assert.ErrorIs(t, err, wppconnect.ErrNotConfigured)

	// no session row is created for a refused connect
	var count int64
	svc.db.Model(&domain.WhatsappSession{}).Count(&count)
	assert.Zero(t, count)
}

func TestConnectProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	state, err := svc.Connect(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, StatusError, state.Status)
	assert.NotEmpty(t, state.ErrorMessage)
}

func TestWebhookPromotesToConnected(t *testing.T) {
	stub := &providerStub{
		startBody: map[string]interface{}{"status": "qrcode", "qrcode": "QR1"},
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	bus := EventBus.New()
	var changes []StatusChange
	require.NoError(t, bus.Subscribe(EventChannelStatusChanged, func(ch StatusChange) {
		changes = append(changes, ch)
	}))

	db := newTestDB(t)
	svc := NewService(db, bus, func() *wppconnect.Client {
		return wppconnect.NewClient(wppconnect.Config{BaseURL: srv.URL, Token: "tok"})
	})

	_, err := svc.Connect(context.Background(), 3)
	require.NoError(t, err)

	err = svc.HandleWebhook(context.Background(), map[string]interface{}{
		"session":     "tenant-3",
		"status":      "CONNECTED",
		"phone":       "5511999990000",
		"displayName": "Acme Support",
	})
	require.NoError(t, err)

	state, _ := svc.store.Get(3)
	assert.Equal(t, StatusConnected, state.Status)
	assert.Equal(t, "5511999990000", state.PhoneNumber)
	assert.Equal(t, "Acme Support", state.DisplayName)
	// pairing done, cached QR is dropped
	assert.Empty(t, svc.store.QR(3))

	require.NotEmpty(t, changes)
	last := changes[len(changes)-1]
	assert.Equal(t, StatusConnected, last.New)
	assert.Equal(t, int64(3), last.TenantId)
}

func TestWebhookUnknownSessionIsDropped(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, EventBus.New(), func() *wppconnect.Client {
		return wppconnect.NewClient(wppconnect.Config{BaseURL: "http://127.0.0.1:1", Token: "tok"})
	})

	require.NoError(t, svc.HandleWebhook(context.Background(), map[string]interface{}{
		"session": "tenant-99",
		"status":  "CONNECTED",
	}))
	require.NoError(t, svc.HandleWebhook(context.Background(), map[string]interface{}{
		"session": "someone-elses-session",
		"status":  "CONNECTED",
	}))
	require.NoError(t, svc.HandleWebhook(context.Background(), map[string]interface{}{
		"status": "CONNECTED",
	}))

	var count int64
	db.Model(&domain.WhatsappSession{}).Count(&count)
	assert.Zero(t, count)
}

func TestGetStatusReconcilesAndFillsDevice(t *testing.T) {
	stub := &providerStub{
		startBody: map[string]interface{}{"status": "qrcode", "qrcode": "QR"},
		checkBody: map[string]interface{}{"status": "CONNECTED"},
		hostBody: map[string]interface{}{
			"response": map[string]interface{}{
				"wid":      "5511988880000",
				"pushname": "Main Line",
			},
		},
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	_, err := svc.Connect(context.Background(), 5)
	require.NoError(t, err)

	state, err := svc.GetStatus(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, StatusConnected, state.Status)
	assert.Equal(t, "5511988880000", state.PhoneNumber)
	assert.Equal(t, "Main Line", state.DisplayName)
	assert.False(t, state.QrAvailable)

	var row domain.WhatsappSession
	require.NoError(t, svc.db.Where("tenant_id = ?", 5).First(&row).Error)
	assert.False(t, row.LastHeartbeatAt.IsZero())
}

func TestGetStatusKeepsStateOnPollFailure(t *testing.T) {
	stub := &providerStub{
		startBody: map[string]interface{}{"status": "CONNECTED", "phone": "551100001111"},
	}
	srv := httptest.NewServer(stub.handler())

	svc := newTestService(t, srv.URL)
	_, err := svc.Connect(context.Background(), 9)
	require.NoError(t, err)

	// provider goes away, the stored snapshot survives the failed poll
	srv.Close()
	state, err := svc.GetStatus(context.Background(), 9)
	require.Error(t, err)
	assert.Equal(t, StatusConnected, state.Status)
}

func TestDisconnectIsBestEffort(t *testing.T) {
	stub := &providerStub{
		startBody: map[string]interface{}{"status": "CONNECTED", "phone": "5511222"},
	}
	srv := httptest.NewServer(stub.handler())

	svc := newTestService(t, srv.URL)
	require.NoError(t, svc.db.Create(&domain.ChanChannel{
		ID: 200, TenantId: 2, Name: "Main", Type: domain.ChannelTypeWhatsapp,
		Status: domain.ChannelDisconnected,
	}).Error)
	_, err := svc.Connect(context.Background(), 2)
	require.NoError(t, err)

	// logout fails because the provider is gone, local teardown still runs
	srv.Close()
	state, err := svc.Disconnect(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, StatusDisconnected, state.Status)
	assert.Empty(t, state.ErrorMessage)
	assert.False(t, state.QrAvailable)

	// the session row is gone and the channel record is cleared
	var count int64
	svc.db.Model(&domain.WhatsappSession{}).Where("tenant_id = ?", 2).Count(&count)
	assert.Zero(t, count)
	var ch domain.ChanChannel
	require.NoError(t, svc.db.First(&ch, 200).Error)
	assert.Equal(t, domain.ChannelDisconnected, ch.Status)
	assert.Empty(t, ch.PhoneNumber)
}

func TestGetStatusWithoutSessionSynthesizes(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:1")
	require.NoError(t, svc.db.Create(&domain.ChanChannel{
		ID: 300, TenantId: 8, Name: "Main", Type: domain.ChannelTypeWhatsapp,
		Status: domain.ChannelDisconnected, PhoneNumber: "5511333",
	}).Error)

	state, err := svc.GetStatus(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, StatusDisconnected, state.Status)
	assert.Equal(t, "tenant-8", state.SessionId)
	assert.Equal(t, "5511333", state.PhoneNumber)

	// status without a session never creates a row
	var count int64
	svc.db.Model(&domain.WhatsappSession{}).Count(&count)
	assert.Zero(t, count)
}

func TestGetQRCodeWithoutSession(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:1")
	_, err := svc.GetQRCode(context.Background(), 11)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetQRCodeRefreshesFromProvider(t *testing.T) {
	stub := &providerStub{
		startBody: map[string]interface{}{"status": "qrcode", "qrcode": "QR-FIRST"},
		qrBody:    map[string]interface{}{"status": "qrcode", "qrcode": "QR-SECOND"},
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	_, err := svc.Connect(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "QR-FIRST", svc.store.QR(12))

	// a stale cached code never shadows the provider's current one
	qr, err := svc.GetQRCode(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "QR-SECOND", qr)
	assert.Equal(t, 1, stub.qrCalls)
}

func TestGetQRCodeFallsBackToCached(t *testing.T) {
	stub := &providerStub{
		startBody: map[string]interface{}{"status": "qrcode", "qrcode": "QR-KEEP"},
		qrBody:    map[string]interface{}{"status": "qrcode"},
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	_, err := svc.Connect(context.Background(), 13)
	require.NoError(t, err)

	// provider answered without a code, the last known one is served
	qr, err := svc.GetQRCode(context.Background(), 13)
	require.NoError(t, err)
	assert.Equal(t, "QR-KEEP", qr)
	assert.Equal(t, 1, stub.qrCalls)
}

func TestChannelRowMirrorsSessionState(t *testing.T) {
	stub := &providerStub{
		startBody: map[string]interface{}{"status": "CONNECTED", "phone": "5511777"},
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	require.NoError(t, svc.db.Create(&domain.ChanChannel{
		ID: 100, TenantId: 4, Name: "Main", Type: domain.ChannelTypeWhatsapp,
		Status: domain.ChannelDisconnected,
	}).Error)

	_, err := svc.Connect(context.Background(), 4)
	require.NoError(t, err)

	var ch domain.ChanChannel
	require.NoError(t, svc.db.First(&ch, 100).Error)
	assert.Equal(t, domain.ChannelConnected, ch.Status)
	assert.Equal(t, "5511777", ch.PhoneNumber)
}

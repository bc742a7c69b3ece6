package wppconnect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotConfigured(t *testing.T) {
	c := NewClient(Config{})
	assert.False(t, c.Configured())

	_, err := c.StartSession(context.Background(), "tenant-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.CheckConnection(context.Background(), "tenant-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.QRCode(context.Background(), "tenant-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStartSessionSendsWebhookBody(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"qrcode","qrcode":"QR"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "secret", WebhookURL: "https://crm.example.com/hook"})
	payload, err := c.StartSession(context.Background(), "tenant-8")
	require.NoError(t, err)

	assert.Equal(t, "/api/tenant-8/start-session", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "https://crm.example.com/hook", gotBody["webhook"])
	assert.Equal(t, true, gotBody["waitQrCode"])
	assert.Equal(t, "QR", ProbeQRCode(payload))
}

func TestProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "secret"})
	_, err := c.CheckConnection(context.Background(), "tenant-1")
	require.Error(t, err)
	assert.True(t, IsProviderError(err))
	assert.Contains(t, err.Error(), "404")
}

func TestTokenFromSecretFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(path, []byte("  file-token\n"), 0600))

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, TokenFile: path})
	assert.True(t, c.Configured())
	_, err := c.HostDevice(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer file-token", gotAuth)
}

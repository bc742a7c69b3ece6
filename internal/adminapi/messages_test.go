package adminapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/internal/webserver"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMessagesContext(t *testing.T, db *gorm.DB, convID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/"+convID+"/messages", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(convID)
	c.Set(webserver.DBContextKey, db)
	c.Set(webserver.ClaimsKey, jwt.NewWithClaims(jwt.SigningMethodHS256,
		&webserver.TokenClaims{OprID: 1, TenantID: 1, Level: "admin"}))
	return c, rec
}

func TestListMessagesChronological(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ChatConversation{}, &domain.ChatMessage{}))

	require.NoError(t, db.Create(&domain.ChatConversation{
		ID: 1, TenantId: 1, ContactId: 10,
		Channel: domain.ChannelTypeWhatsapp, Status: domain.ConversationOpen,
	}).Error)

	// inserted newest first, the listing must come back oldest first
	base := time.Now().Add(-time.Hour)
	for i, content := range []string{"third", "second", "first"} {
		require.NoError(t, db.Create(&domain.ChatMessage{
			ID:             int64(100 + i),
			TenantId:       1,
			ConversationId: 1,
			Direction:      domain.MessageInbound,
			Type:           domain.MessageTypeText,
			Content:        content,
			CreatedAt:      base.Add(time.Duration(3-i) * time.Minute),
		}).Error)
	}

	c, rec := newMessagesContext(t, db, "1")
	require.NoError(t, listMessages(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []domain.ChatMessage `json:"items"`
		Total int64                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 3)
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, "first", resp.Items[0].Content)
	assert.Equal(t, "second", resp.Items[1].Content)
	assert.Equal(t, "third", resp.Items[2].Content)
}

func TestListMessagesUnknownConversation(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ChatConversation{}, &domain.ChatMessage{}))

	c, rec := newMessagesContext(t, db, "42")
	require.NoError(t, listMessages(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

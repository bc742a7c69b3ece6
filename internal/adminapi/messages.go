package adminapi

import (
	"net/http"
	"time"

	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/internal/webserver"
	"github.com/dialogix/dialogix/pkg/common"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// EventMessageCreated is published on the app bus for every stored message.
const EventMessageCreated = "message.created"

func registerMessagesRoutes() {
	webserver.ApiGET("/conversations/:id/messages", listMessages)
	webserver.ApiPOST("/conversations/:id/messages", createMessage)
}

func listMessages(c echo.Context) error {
	convID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID", nil)
	}
	var conv domain.ChatConversation
	if err := tenantScope(c, GetDB(c)).Where("id = ?", convID).First(&conv).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CONVERSATION_NOT_FOUND", "Conversation not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query conversation", err.Error())
	}

	page, pageSize := parsePagination(c)
	base := GetDB(c).Model(&domain.ChatMessage{}).Where("conversation_id = ?", convID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query messages", err.Error())
	}
	var msgs []domain.ChatMessage
	if err := base.Order("created_at ASC, id ASC").Offset((page-1)*pageSize).Limit(pageSize).Find(&msgs).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query messages", err.Error())
	}
	return paged(c, msgs, total, page, pageSize)
}

type messagePayload struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Metadata string `json:"metadata"`
}

// createMessage records an outbound message on a conversation. Delivery to
// the channel is the caller's concern, this endpoint owns the thread state.
func createMessage(c echo.Context) error {
	convID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID", nil)
	}
	var payload messagePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse message parameters", nil)
	}
	if payload.Content == "" {
		return fail(c, http.StatusBadRequest, "MISSING_CONTENT", "Message content is required", nil)
	}

	var conv domain.ChatConversation
	if err := tenantScope(c, GetDB(c)).Where("id = ?", convID).First(&conv).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CONVERSATION_NOT_FOUND", "Conversation not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query conversation", err.Error())
	}
	if conv.Status == domain.ConversationClosed {
		return fail(c, http.StatusConflict, "CONVERSATION_CLOSED", "Cannot post to a closed conversation", nil)
	}

	msgType := payload.Type
	if msgType == "" {
		msgType = domain.MessageTypeText
	}
	claims := GetClaims(c)
	msg := domain.ChatMessage{
		ID:             common.UUIDint64(),
		TenantId:       conv.TenantId,
		ConversationId: conv.ID,
		SenderOprId:    claims.OprID,
		Direction:      domain.MessageOutbound,
		Type:           msgType,
		Content:        payload.Content,
		Metadata:       payload.Metadata,
		IsRead:         true,
		ReadAt:         time.Now(),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := GetDB(c).Create(&msg).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create message", err.Error())
	}

	GetDB(c).Model(&domain.ChatConversation{}).Where("id = ?", conv.ID).Updates(map[string]interface{}{
		"last_message":    msg.Content,
		"last_message_at": msg.CreatedAt,
		"updated_at":      time.Now(),
	})
	GetAppContext(c).Bus().Publish(EventMessageCreated, msg)
	return ok(c, msg)
}

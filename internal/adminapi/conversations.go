package adminapi

import (
	"net/http"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/internal/webserver"
	"github.com/dialogix/dialogix/pkg/common"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func registerConversationsRoutes() {
	webserver.ApiGET("/conversations", listConversations)
	webserver.ApiGET("/conversations/:id", getConversation)
	webserver.ApiPOST("/conversations", createConversation)
	webserver.ApiPUT("/conversations/:id", updateConversation)
	webserver.ApiPOST("/conversations/:id/assign", assignConversation)
	webserver.ApiPOST("/conversations/:id/close", closeConversation)
	webserver.ApiPOST("/conversations/:id/read", markConversationRead)
}

func listConversations(c echo.Context) error {
	page, pageSize := parsePagination(c)
	base := tenantScope(c, GetDB(c).Model(&domain.ChatConversation{}))

	if status := c.QueryParam("status"); status != "" {
		base = base.Where("status = ?", status)
	}
	if channel := c.QueryParam("channel"); channel != "" {
		base = base.Where("channel = ?", channel)
	}
	if assignee := c.QueryParam("assigned_opr_id"); assignee != "" {
		base = base.Where("assigned_opr_id = ?", assignee)
	}
	if since := c.QueryParam("since"); since != "" {
		t, err := dateparse.ParseLocal(since)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_SINCE", "Unable to parse since parameter", err.Error())
		}
		base = base.Where("last_message_at >= ?", t)
	}
	if until := c.QueryParam("until"); until != "" {
		t, err := dateparse.ParseLocal(until)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_UNTIL", "Unable to parse until parameter", err.Error())
		}
		base = base.Where("last_message_at <= ?", t)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query conversations", err.Error())
	}
	var convs []domain.ChatConversation
	if err := base.Order("last_message_at DESC").Offset((page-1)*pageSize).Limit(pageSize).Find(&convs).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query conversations", err.Error())
	}
	return paged(c, convs, total, page, pageSize)
}

func getConversation(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID", nil)
	}
	var conv domain.ChatConversation
	if err := tenantScope(c, GetDB(c)).Where("id = ?", id).First(&conv).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CONVERSATION_NOT_FOUND", "Conversation not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query conversation", err.Error())
	}
	return ok(c, conv)
}

type conversationPayload struct {
	ContactId  int64  `json:"contact_id,string"`
	Channel    string `json:"channel"`
	ExternalId string `json:"external_id"`
	Metadata   string `json:"metadata"`
}

func createConversation(c echo.Context) error {
	var payload conversationPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse conversation parameters", nil)
	}
	if payload.ContactId == 0 || payload.Channel == "" {
		return fail(c, http.StatusBadRequest, "MISSING_FIELDS", "contact_id and channel are required", nil)
	}

	var contact domain.CrmContact
	if err := tenantScope(c, GetDB(c)).Where("id = ?", payload.ContactId).First(&contact).Error; err != nil {
		return fail(c, http.StatusNotFound, "CONTACT_NOT_FOUND", "Contact not found", nil)
	}

	conv := domain.ChatConversation{
		ID:            common.UUIDint64(),
		TenantId:      GetTenantID(c),
		ContactId:     payload.ContactId,
		Channel:       payload.Channel,
		Status:        domain.ConversationOpen,
		ExternalId:    payload.ExternalId,
		Metadata:      payload.Metadata,
		LastMessageAt: time.Now(),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := GetDB(c).Create(&conv).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create conversation", err.Error())
	}
	return ok(c, conv)
}

func updateConversation(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID", nil)
	}
	var payload struct {
		Status   string `json:"status"`
		Metadata string `json:"metadata"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse parameters", nil)
	}
	if payload.Status != "" && payload.Status != domain.ConversationOpen &&
		payload.Status != domain.ConversationPending && payload.Status != domain.ConversationClosed {
		return fail(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown conversation status", nil)
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if payload.Status != "" {
		updates["status"] = payload.Status
	}
	if payload.Metadata != "" {
		updates["metadata"] = payload.Metadata
	}
	res := tenantScope(c, GetDB(c).Model(&domain.ChatConversation{})).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update conversation", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "CONVERSATION_NOT_FOUND", "Conversation not found", nil)
	}
	return ok(c, map[string]interface{}{"updated": true})
}

func assignConversation(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID", nil)
	}
	var payload struct {
		OprId int64 `json:"opr_id,string"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse parameters", nil)
	}
	if payload.OprId != 0 {
		var opr domain.SysOpr
		if err := tenantScope(c, GetDB(c)).Where("id = ?", payload.OprId).First(&opr).Error; err != nil {
			return fail(c, http.StatusNotFound, "OPR_NOT_FOUND", "Operator not found", nil)
		}
	}

	res := tenantScope(c, GetDB(c).Model(&domain.ChatConversation{})).Where("id = ?", id).Updates(map[string]interface{}{
		"assigned_opr_id": payload.OprId,
		"updated_at":      time.Now(),
	})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to assign conversation", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "CONVERSATION_NOT_FOUND", "Conversation not found", nil)
	}
	audit(c, "assign_conversation", c.Param("id"))
	return ok(c, map[string]interface{}{"assigned": true})
}

func closeConversation(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID", nil)
	}
	res := tenantScope(c, GetDB(c).Model(&domain.ChatConversation{})).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     domain.ConversationClosed,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to close conversation", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "CONVERSATION_NOT_FOUND", "Conversation not found", nil)
	}
	return ok(c, map[string]interface{}{"closed": true})
}

// markConversationRead zeroes the unread counter and flags every inbound
// message as read.
func markConversationRead(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID", nil)
	}
	db := GetDB(c)
	res := tenantScope(c, db.Model(&domain.ChatConversation{})).Where("id = ?", id).Updates(map[string]interface{}{
		"unread_count": 0,
		"updated_at":   time.Now(),
	})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to mark conversation read", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "CONVERSATION_NOT_FOUND", "Conversation not found", nil)
	}
	db.Model(&domain.ChatMessage{}).
		Where("conversation_id = ? and direction = ? and is_read = ?", id, domain.MessageInbound, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})
	return ok(c, map[string]interface{}{"read": true})
}

package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/internal/webserver"
	"github.com/dialogix/dialogix/pkg/common"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func registerChannelsRoutes() {
	webserver.ApiGET("/channels", listChannels)
	webserver.ApiGET("/channels/:id", getChannel)
	webserver.ApiPOST("/channels", createChannel)
	webserver.ApiPUT("/channels/:id", updateChannel)
	webserver.ApiDELETE("/channels/:id", deleteChannel)
	webserver.ApiPOST("/channels/:id/default", setDefaultChannel)
}

func validChannelType(t string) bool {
	switch t {
	case domain.ChannelTypeWhatsapp, domain.ChannelTypeInstagram, domain.ChannelTypeTelegram,
		domain.ChannelTypeEmail, domain.ChannelTypeWebchat:
		return true
	}
	return false
}

func listChannels(c echo.Context) error {
	page, pageSize := parsePagination(c)
	base := tenantScope(c, GetDB(c).Model(&domain.ChanChannel{}))
	if t := c.QueryParam("type"); t != "" {
		base = base.Where("type = ?", t)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query channels", err.Error())
	}
	var channels []domain.ChanChannel
	if err := base.Order("id DESC").Offset((page-1)*pageSize).Limit(pageSize).Find(&channels).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query channels", err.Error())
	}
	return paged(c, channels, total, page, pageSize)
}

func getChannel(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID", nil)
	}
	var channel domain.ChanChannel
	if err := tenantScope(c, GetDB(c)).Where("id = ?", id).First(&channel).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CHANNEL_NOT_FOUND", "Channel not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query channel", err.Error())
	}
	return ok(c, channel)
}

type channelPayload struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	IsDefault bool   `json:"is_default"`
}

func createChannel(c echo.Context) error {
	var payload channelPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse channel parameters", nil)
	}
	if strings.TrimSpace(payload.Name) == "" {
		return fail(c, http.StatusBadRequest, "MISSING_NAME", "Channel name is required", nil)
	}
	if !validChannelType(payload.Type) {
		return fail(c, http.StatusBadRequest, "INVALID_TYPE", "Unknown channel type", nil)
	}

	tenantID := GetTenantID(c)
	db := GetDB(c)

	var count int64
	db.Model(&domain.ChanChannel{}).Where("tenant_id = ?", tenantID).Count(&count)
	channel := domain.ChanChannel{
		ID:        common.UUIDint64(),
		TenantId:  tenantID,
		Name:      strings.TrimSpace(payload.Name),
		Type:      payload.Type,
		Status:    domain.ChannelDisconnected,
		IsDefault: payload.IsDefault || count == 0,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if channel.IsDefault {
			if err := tx.Model(&domain.ChanChannel{}).
				Where("tenant_id = ?", tenantID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&channel).Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create channel", err.Error())
	}
	audit(c, "create_channel", channel.Name)
	return ok(c, channel)
}

func updateChannel(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID", nil)
	}
	var payload channelPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse channel parameters", nil)
	}
	var channel domain.ChanChannel
	if err := tenantScope(c, GetDB(c)).Where("id = ?", id).First(&channel).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CHANNEL_NOT_FOUND", "Channel not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query channel", err.Error())
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if payload.Name != "" {
		updates["name"] = strings.TrimSpace(payload.Name)
	}
	if err := GetDB(c).Model(&domain.ChanChannel{}).Where("id = ?", channel.ID).Updates(updates).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update channel", err.Error())
	}
	return ok(c, map[string]interface{}{"updated": true})
}

func deleteChannel(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID", nil)
	}
	var channel domain.ChanChannel
	if err := tenantScope(c, GetDB(c)).Where("id = ?", id).First(&channel).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CHANNEL_NOT_FOUND", "Channel not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query channel", err.Error())
	}
	if channel.IsDefault {
		return fail(c, http.StatusConflict, "DEFAULT_CHANNEL", "Cannot delete the default channel", nil)
	}
	if err := GetDB(c).Delete(&channel).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete channel", err.Error())
	}
	audit(c, "delete_channel", channel.Name)
	return ok(c, map[string]interface{}{"deleted": true})
}

// setDefaultChannel makes one channel the tenant default. Exactly one
// default per tenant is kept, the swap runs in a transaction.
func setDefaultChannel(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID", nil)
	}
	tenantID := GetTenantID(c)
	db := GetDB(c)

	var channel domain.ChanChannel
	if err := db.Where("tenant_id = ? and id = ?", tenantID, id).First(&channel).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CHANNEL_NOT_FOUND", "Channel not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query channel", err.Error())
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.ChanChannel{}).
			Where("tenant_id = ?", tenantID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&domain.ChanChannel{}).
			Where("id = ?", channel.ID).
			Updates(map[string]interface{}{"is_default": true, "updated_at": time.Now()}).Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to set default channel", err.Error())
	}
	audit(c, "set_default_channel", channel.Name)
	return ok(c, map[string]interface{}{"default": true})
}

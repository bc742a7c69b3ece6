package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/internal/webserver"
	"github.com/dialogix/dialogix/pkg/common"
	"github.com/labstack/echo/v4"
)

func registerTagsRoutes() {
	webserver.ApiGET("/tags", listTags)
	webserver.ApiPOST("/tags", createTag)
	webserver.ApiPUT("/tags/:id", updateTag)
	webserver.ApiDELETE("/tags/:id", deleteTag)
}

func listTags(c echo.Context) error {
	var tags []domain.CrmTag
	if err := tenantScope(c, GetDB(c)).Order("name").Find(&tags).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query tags", err.Error())
	}
	return ok(c, tags)
}

func createTag(c echo.Context) error {
	var payload struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse tag parameters", nil)
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return fail(c, http.StatusBadRequest, "MISSING_NAME", "Tag name is required", nil)
	}

	var dup domain.CrmTag
	if err := tenantScope(c, GetDB(c)).Where("name = ?", name).First(&dup).Error; err == nil {
		return fail(c, http.StatusConflict, "DUPLICATE_TAG", "Tag with this name already exists", nil)
	}

	tag := domain.CrmTag{
		ID:        common.UUIDint64(),
		TenantId:  GetTenantID(c),
		Name:      name,
		Color:     payload.Color,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := GetDB(c).Create(&tag).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create tag", err.Error())
	}
	return ok(c, tag)
}

func updateTag(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid tag ID", nil)
	}
	var payload struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse tag parameters", nil)
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if payload.Name != "" {
		updates["name"] = strings.TrimSpace(payload.Name)
	}
	if payload.Color != "" {
		updates["color"] = payload.Color
	}
	res := tenantScope(c, GetDB(c).Model(&domain.CrmTag{})).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update tag", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "TAG_NOT_FOUND", "Tag not found", nil)
	}
	return ok(c, map[string]interface{}{"updated": true})
}

func deleteTag(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid tag ID", nil)
	}
	res := tenantScope(c, GetDB(c)).Where("id = ?", id).Delete(&domain.CrmTag{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete tag", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "TAG_NOT_FOUND", "Tag not found", nil)
	}
	return ok(c, map[string]interface{}{"deleted": true})
}

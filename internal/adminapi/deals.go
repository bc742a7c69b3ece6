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

func registerDealsRoutes() {
	webserver.ApiGET("/deals", listDeals)
	webserver.ApiGET("/deals/:id", getDeal)
	webserver.ApiPOST("/deals", createDeal)
	webserver.ApiPUT("/deals/:id", updateDeal)
	webserver.ApiDELETE("/deals/:id", deleteDeal)
	webserver.ApiPOST("/deals/:id/move", moveDeal)
	webserver.ApiPOST("/deals/:id/close", closeDeal)
}

func listDeals(c echo.Context) error {
	page, pageSize := parsePagination(c)
	base := tenantScope(c, GetDB(c).Model(&domain.CrmDeal{}))
	if pid := c.QueryParam("pipeline_id"); pid != "" {
		base = base.Where("pipeline_id = ?", pid)
	}
	if sid := c.QueryParam("stage_id"); sid != "" {
		base = base.Where("stage_id = ?", sid)
	}
	if status := c.QueryParam("status"); status != "" {
		base = base.Where("status = ?", status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query deals", err.Error())
	}
	var deals []domain.CrmDeal
	if err := base.Order("id DESC").Offset((page-1)*pageSize).Limit(pageSize).Find(&deals).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query deals", err.Error())
	}
	return paged(c, deals, total, page, pageSize)
}

func getDeal(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid deal ID", nil)
	}
	var deal domain.CrmDeal
	if err := tenantScope(c, GetDB(c)).Where("id = ?", id).First(&deal).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "DEAL_NOT_FOUND", "Deal not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query deal", err.Error())
	}
	return ok(c, deal)
}

type dealPayload struct {
	PipelineId int64   `json:"pipeline_id,string"`
	StageId    int64   `json:"stage_id,string"`
	ContactId  int64   `json:"contact_id,string"`
	Title      string  `json:"title"`
	Value      float64 `json:"value"`
	Currency   string  `json:"currency"`
	Remark     string  `json:"remark"`
}

func createDeal(c echo.Context) error {
	var payload dealPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse deal parameters", nil)
	}
	if strings.TrimSpace(payload.Title) == "" {
		return fail(c, http.StatusBadRequest, "MISSING_TITLE", "Deal title is required", nil)
	}

	var stage domain.CrmPipelineStage
	if err := tenantScope(c, GetDB(c)).Where("id = ? and pipeline_id = ?", payload.StageId, payload.PipelineId).First(&stage).Error; err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_STAGE", "Stage does not belong to the pipeline", nil)
	}

	currency := payload.Currency
	if currency == "" {
		currency = "BRL"
	}
	claims := GetClaims(c)
	deal := domain.CrmDeal{
		ID:         common.UUIDint64(),
		TenantId:   claims.TenantID,
		PipelineId: payload.PipelineId,
		StageId:    payload.StageId,
		ContactId:  payload.ContactId,
		OwnerId:    claims.OprID,
		Title:      strings.TrimSpace(payload.Title),
		Value:      payload.Value,
		Currency:   currency,
		Status:     "open",
		Remark:     payload.Remark,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := GetDB(c).Create(&deal).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create deal", err.Error())
	}
	audit(c, "create_deal", deal.Title)
	return ok(c, deal)
}

func updateDeal(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid deal ID", nil)
	}
	var payload dealPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse deal parameters", nil)
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if payload.Title != "" {
		updates["title"] = strings.TrimSpace(payload.Title)
	}
	if payload.Value != 0 {
		updates["value"] = payload.Value
	}
	if payload.Currency != "" {
		updates["currency"] = payload.Currency
	}
	if payload.Remark != "" {
		updates["remark"] = payload.Remark
	}
	res := tenantScope(c, GetDB(c).Model(&domain.CrmDeal{})).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update deal", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "DEAL_NOT_FOUND", "Deal not found", nil)
	}
	return ok(c, map[string]interface{}{"updated": true})
}

func deleteDeal(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid deal ID", nil)
	}
	res := tenantScope(c, GetDB(c)).Where("id = ?", id).Delete(&domain.CrmDeal{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete deal", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "DEAL_NOT_FOUND", "Deal not found", nil)
	}
	return ok(c, map[string]interface{}{"deleted": true})
}

// moveDeal moves a deal to another stage of its own pipeline.
func moveDeal(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid deal ID", nil)
	}
	var payload struct {
		StageId int64 `json:"stage_id,string"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse parameters", nil)
	}

	var deal domain.CrmDeal
	if err := tenantScope(c, GetDB(c)).Where("id = ?", id).First(&deal).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "DEAL_NOT_FOUND", "Deal not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query deal", err.Error())
	}
	if deal.Status != "open" {
		return fail(c, http.StatusConflict, "DEAL_CLOSED", "Cannot move a closed deal", nil)
	}

	var stage domain.CrmPipelineStage
	if err := GetDB(c).Where("id = ? and pipeline_id = ?", payload.StageId, deal.PipelineId).First(&stage).Error; err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_STAGE", "Stage does not belong to the deal's pipeline", nil)
	}

	if err := GetDB(c).Model(&domain.CrmDeal{}).Where("id = ?", deal.ID).Updates(map[string]interface{}{
		"stage_id":   stage.ID,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to move deal", err.Error())
	}
	return ok(c, map[string]interface{}{"moved": true})
}

// closeDeal marks a deal won or lost.
func closeDeal(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid deal ID", nil)
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse parameters", nil)
	}
	if payload.Status != "won" && payload.Status != "lost" {
		return fail(c, http.StatusBadRequest, "INVALID_STATUS", "Status must be won or lost", nil)
	}

	res := tenantScope(c, GetDB(c).Model(&domain.CrmDeal{})).
		Where("id = ? and status = ?", id, "open").
		Updates(map[string]interface{}{
			"status":     payload.Status,
			"closed_at":  time.Now(),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to close deal", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "DEAL_NOT_FOUND", "Deal not found or already closed", nil)
	}
	audit(c, "close_deal", payload.Status)
	return ok(c, map[string]interface{}{"closed": true})
}

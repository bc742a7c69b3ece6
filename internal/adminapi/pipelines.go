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

func registerPipelinesRoutes() {
	webserver.ApiGET("/pipelines", listPipelines)
	webserver.ApiPOST("/pipelines", createPipeline)
	webserver.ApiPUT("/pipelines/:id", updatePipeline)
	webserver.ApiDELETE("/pipelines/:id", deletePipeline)
	webserver.ApiGET("/pipelines/:id/stages", listStages)
	webserver.ApiPOST("/pipelines/:id/stages", createStage)
	webserver.ApiPUT("/pipelines/:id/stages/:sid", updateStage)
	webserver.ApiDELETE("/pipelines/:id/stages/:sid", deleteStage)
}

func listPipelines(c echo.Context) error {
	var pipelines []domain.CrmPipeline
	if err := tenantScope(c, GetDB(c)).Order("id").Find(&pipelines).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query pipelines", err.Error())
	}
	return ok(c, pipelines)
}

func createPipeline(c echo.Context) error {
	var payload struct {
		Name      string `json:"name"`
		IsDefault bool   `json:"is_default"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse pipeline parameters", nil)
	}
	if strings.TrimSpace(payload.Name) == "" {
		return fail(c, http.StatusBadRequest, "MISSING_NAME", "Pipeline name is required", nil)
	}

	pipeline := domain.CrmPipeline{
		ID:        common.UUIDint64(),
		TenantId:  GetTenantID(c),
		Name:      strings.TrimSpace(payload.Name),
		IsDefault: payload.IsDefault,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := GetDB(c).Create(&pipeline).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create pipeline", err.Error())
	}
	return ok(c, pipeline)
}

func updatePipeline(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid pipeline ID", nil)
	}
	var payload struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse pipeline parameters", nil)
	}
	res := tenantScope(c, GetDB(c).Model(&domain.CrmPipeline{})).Where("id = ?", id).Updates(map[string]interface{}{
		"name":       strings.TrimSpace(payload.Name),
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update pipeline", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "PIPELINE_NOT_FOUND", "Pipeline not found", nil)
	}
	return ok(c, map[string]interface{}{"updated": true})
}

func deletePipeline(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid pipeline ID", nil)
	}

	var deals int64
	GetDB(c).Model(&domain.CrmDeal{}).Where("pipeline_id = ?", id).Count(&deals)
	if deals > 0 {
		return fail(c, http.StatusConflict, "PIPELINE_IN_USE", "Pipeline still has deals", nil)
	}

	db := GetDB(c)
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pipeline_id = ?", id).Delete(&domain.CrmPipelineStage{}).Error; err != nil {
			return err
		}
		res := tenantScope(c, tx).Where("id = ?", id).Delete(&domain.CrmPipeline{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "PIPELINE_NOT_FOUND", "Pipeline not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete pipeline", err.Error())
	}
	return ok(c, map[string]interface{}{"deleted": true})
}

func listStages(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid pipeline ID", nil)
	}
	var stages []domain.CrmPipelineStage
	if err := tenantScope(c, GetDB(c)).Where("pipeline_id = ?", id).Order("sort").Find(&stages).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query stages", err.Error())
	}
	return ok(c, stages)
}

func createStage(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid pipeline ID", nil)
	}
	var payload struct {
		Name string `json:"name"`
		Sort int    `json:"sort"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse stage parameters", nil)
	}
	if strings.TrimSpace(payload.Name) == "" {
		return fail(c, http.StatusBadRequest, "MISSING_NAME", "Stage name is required", nil)
	}

	var pipeline domain.CrmPipeline
	if err := tenantScope(c, GetDB(c)).Where("id = ?", id).First(&pipeline).Error; err != nil {
		return fail(c, http.StatusNotFound, "PIPELINE_NOT_FOUND", "Pipeline not found", nil)
	}

	stage := domain.CrmPipelineStage{
		ID:         common.UUIDint64(),
		TenantId:   pipeline.TenantId,
		PipelineId: pipeline.ID,
		Name:       strings.TrimSpace(payload.Name),
		Sort:       payload.Sort,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := GetDB(c).Create(&stage).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create stage", err.Error())
	}
	return ok(c, stage)
}

func updateStage(c echo.Context) error {
	sid, err := parseIDParam(c, "sid")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid stage ID", nil)
	}
	var payload struct {
		Name string `json:"name"`
		Sort *int   `json:"sort"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse stage parameters", nil)
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if payload.Name != "" {
		updates["name"] = strings.TrimSpace(payload.Name)
	}
	if payload.Sort != nil {
		updates["sort"] = *payload.Sort
	}
	res := tenantScope(c, GetDB(c).Model(&domain.CrmPipelineStage{})).Where("id = ?", sid).Updates(updates)
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update stage", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "STAGE_NOT_FOUND", "Stage not found", nil)
	}
	return ok(c, map[string]interface{}{"updated": true})
}

func deleteStage(c echo.Context) error {
	sid, err := parseIDParam(c, "sid")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid stage ID", nil)
	}
	var deals int64
	GetDB(c).Model(&domain.CrmDeal{}).Where("stage_id = ?", sid).Count(&deals)
	if deals > 0 {
		return fail(c, http.StatusConflict, "STAGE_IN_USE", "Stage still has deals", nil)
	}
	res := tenantScope(c, GetDB(c)).Where("id = ?", sid).Delete(&domain.CrmPipelineStage{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete stage", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "STAGE_NOT_FOUND", "Stage not found", nil)
	}
	return ok(c, map[string]interface{}{"deleted": true})
}

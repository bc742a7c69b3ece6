package adminapi

import (
	"net/http"
	"time"

	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/internal/webserver"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// schedulerUpdatePayload relaxes validation rules for partial updates
type schedulerUpdatePayload struct {
	Name     string `json:"name"`
	Interval int    `json:"interval"`
	Status   string `json:"status"`
	Config   string `json:"config"`
	Remark   string `json:"remark"`
}

func registerSchedulersRoutes() {
	webserver.ApiGET("/system/schedulers", listSchedulers)
	webserver.ApiGET("/system/schedulers/:id", getScheduler)
	webserver.ApiPUT("/system/schedulers/:id", updateScheduler)
	webserver.ApiPOST("/system/schedulers/:id/run", triggerScheduler)
}

func requireAdmin(c echo.Context) error {
	claims := GetClaims(c)
	if claims == nil || (claims.Level != "super" && claims.Level != "admin") {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Admin level required", nil)
	}
	return nil
}

func listSchedulers(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	page, pageSize := parsePagination(c)
	base := GetDB(c).Model(&domain.SysScheduler{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query schedulers", err.Error())
	}
	var schedulers []domain.SysScheduler
	if err := base.Order("id").Offset((page-1)*pageSize).Limit(pageSize).Find(&schedulers).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query schedulers", err.Error())
	}
	return paged(c, schedulers, total, page, pageSize)
}

func getScheduler(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid scheduler ID", nil)
	}
	var sched domain.SysScheduler
	if err := GetDB(c).Where("id = ?", id).First(&sched).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "SCHEDULER_NOT_FOUND", "Scheduler not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query scheduler", err.Error())
	}
	return ok(c, sched)
}

func updateScheduler(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid scheduler ID", nil)
	}
	var payload schedulerUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse scheduler parameters", nil)
	}
	if payload.Status != "" && payload.Status != "enabled" && payload.Status != "disabled" {
		return fail(c, http.StatusBadRequest, "INVALID_STATUS", "Status must be enabled or disabled", nil)
	}
	if payload.Interval != 0 && payload.Interval < 10 {
		return fail(c, http.StatusBadRequest, "INVALID_INTERVAL", "Interval must be at least 10 seconds", nil)
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if payload.Name != "" {
		updates["name"] = payload.Name
	}
	if payload.Interval != 0 {
		updates["interval"] = payload.Interval
		updates["next_run_at"] = time.Now().Add(time.Duration(payload.Interval) * time.Second)
	}
	if payload.Status != "" {
		updates["status"] = payload.Status
	}
	if payload.Config != "" {
		updates["config"] = payload.Config
	}
	if payload.Remark != "" {
		updates["remark"] = payload.Remark
	}

	res := GetDB(c).Model(&domain.SysScheduler{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update scheduler", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "SCHEDULER_NOT_FOUND", "Scheduler not found", nil)
	}
	audit(c, "update_scheduler", c.Param("id"))
	return ok(c, map[string]interface{}{"updated": true})
}

// triggerScheduler triggers the scheduler immediately
func triggerScheduler(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid scheduler ID", nil)
	}
	appCtx := GetAppContext(c)
	if err := appCtx.RunSchedulerNow(id); err != nil {
		return fail(c, http.StatusInternalServerError, "RUN_FAILED", "Failed to run scheduler", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/internal/webserver"
	"github.com/dialogix/dialogix/pkg/common"
	"github.com/labstack/echo/v4"
)

func registerTasksRoutes() {
	webserver.ApiGET("/tasks", listTasks)
	webserver.ApiPOST("/tasks", createTask)
	webserver.ApiPUT("/tasks/:id", updateTask)
	webserver.ApiDELETE("/tasks/:id", deleteTask)
	webserver.ApiPOST("/tasks/:id/done", completeTask)
}

func listTasks(c echo.Context) error {
	page, pageSize := parsePagination(c)
	base := tenantScope(c, GetDB(c).Model(&domain.CrmTask{}))
	if assignee := c.QueryParam("assignee_id"); assignee != "" {
		base = base.Where("assignee_id = ?", assignee)
	}
	if done := c.QueryParam("done"); done != "" {
		base = base.Where("done = ?", done == "true")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query tasks", err.Error())
	}
	var tasks []domain.CrmTask
	if err := base.Order("due_at").Offset((page-1)*pageSize).Limit(pageSize).Find(&tasks).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query tasks", err.Error())
	}
	return paged(c, tasks, total, page, pageSize)
}

type taskPayload struct {
	ContactId  int64  `json:"contact_id,string"`
	DealId     int64  `json:"deal_id,string"`
	AssigneeId int64  `json:"assignee_id,string"`
	Title      string `json:"title"`
	DueAt      string `json:"due_at"`
}

func createTask(c echo.Context) error {
	var payload taskPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse task parameters", nil)
	}
	if strings.TrimSpace(payload.Title) == "" {
		return fail(c, http.StatusBadRequest, "MISSING_TITLE", "Task title is required", nil)
	}

	dueAt := time.Now().Add(24 * time.Hour)
	if payload.DueAt != "" {
		t, err := dateparse.ParseLocal(payload.DueAt)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_DUE", "Unable to parse due_at", err.Error())
		}
		dueAt = t
	}

	claims := GetClaims(c)
	assignee := payload.AssigneeId
	if assignee == 0 {
		assignee = claims.OprID
	}
	task := domain.CrmTask{
		ID:         common.UUIDint64(),
		TenantId:   claims.TenantID,
		ContactId:  payload.ContactId,
		DealId:     payload.DealId,
		AssigneeId: assignee,
		Title:      strings.TrimSpace(payload.Title),
		DueAt:      dueAt,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := GetDB(c).Create(&task).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create task", err.Error())
	}
	return ok(c, task)
}

func updateTask(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid task ID", nil)
	}
	var payload taskPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse task parameters", nil)
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if payload.Title != "" {
		updates["title"] = strings.TrimSpace(payload.Title)
	}
	if payload.AssigneeId != 0 {
		updates["assignee_id"] = payload.AssigneeId
	}
	if payload.DueAt != "" {
		t, perr := dateparse.ParseLocal(payload.DueAt)
		if perr != nil {
			return fail(c, http.StatusBadRequest, "INVALID_DUE", "Unable to parse due_at", perr.Error())
		}
		updates["due_at"] = t
	}
	res := tenantScope(c, GetDB(c).Model(&domain.CrmTask{})).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update task", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "TASK_NOT_FOUND", "Task not found", nil)
	}
	return ok(c, map[string]interface{}{"updated": true})
}

func deleteTask(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid task ID", nil)
	}
	res := tenantScope(c, GetDB(c)).Where("id = ?", id).Delete(&domain.CrmTask{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete task", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "TASK_NOT_FOUND", "Task not found", nil)
	}
	return ok(c, map[string]interface{}{"deleted": true})
}

func completeTask(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid task ID", nil)
	}
	res := tenantScope(c, GetDB(c).Model(&domain.CrmTask{})).Where("id = ?", id).Updates(map[string]interface{}{
		"done":       true,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to complete task", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "TASK_NOT_FOUND", "Task not found", nil)
	}
	return ok(c, map[string]interface{}{"done": true})
}

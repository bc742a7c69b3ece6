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

func registerBillingRoutes() {
	webserver.ApiGET("/billing/plans", listPlans)
	webserver.ApiGET("/billing/subscription", getSubscription)
	webserver.ApiPOST("/billing/subscription", changeSubscription)
	webserver.ApiGET("/billing/usage", getUsage)
}

func listPlans(c echo.Context) error {
	var plans []domain.BillingPlan
	if err := GetDB(c).Order("price").Find(&plans).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query plans", err.Error())
	}
	return ok(c, plans)
}

func getSubscription(c echo.Context) error {
	var sub domain.BillingSubscription
	err := tenantScope(c, GetDB(c)).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "NO_SUBSCRIPTION", "Tenant has no subscription", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query subscription", err.Error())
	}
	var plan domain.BillingPlan
	GetDB(c).Where("id = ?", sub.PlanId).First(&plan)
	return ok(c, map[string]interface{}{"subscription": sub, "plan": plan})
}

func changeSubscription(c echo.Context) error {
	claims := GetClaims(c)
	if claims.Level != "super" && claims.Level != "admin" {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Admin level required", nil)
	}
	var payload struct {
		PlanCode string `json:"plan_code"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse parameters", nil)
	}

	var plan domain.BillingPlan
	if err := GetDB(c).Where("code = ?", payload.PlanCode).First(&plan).Error; err != nil {
		return fail(c, http.StatusNotFound, "PLAN_NOT_FOUND", "Unknown plan code", nil)
	}

	tenantID := GetTenantID(c)
	var sub domain.BillingSubscription
	err := GetDB(c).Where("tenant_id = ?", tenantID).First(&sub).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = domain.BillingSubscription{
			TenantId:  tenantID,
			PlanId:    plan.ID,
			Status:    "active",
			PeriodEnd: time.Now().AddDate(0, 1, 0),
		}
		if err := GetDB(c).Create(&sub).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create subscription", err.Error())
		}
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query subscription", err.Error())
	default:
		if err := GetDB(c).Model(&domain.BillingSubscription{}).Where("id = ?", sub.ID).Updates(map[string]interface{}{
			"plan_id":    plan.ID,
			"status":     "active",
			"period_end": time.Now().AddDate(0, 1, 0),
			"updated_at": time.Now(),
		}).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update subscription", err.Error())
		}
	}
	audit(c, "change_subscription", plan.Code)
	return ok(c, map[string]interface{}{"plan": plan.Code})
}

// getUsage reports current usage against the plan limits.
func getUsage(c echo.Context) error {
	tenantID := GetTenantID(c)
	db := GetDB(c)

	var oprs, contacts, channels int64
	db.Model(&domain.SysOpr{}).Where("tenant_id = ?", tenantID).Count(&oprs)
	db.Model(&domain.CrmContact{}).Where("tenant_id = ?", tenantID).Count(&contacts)
	db.Model(&domain.ChanChannel{}).Where("tenant_id = ?", tenantID).Count(&channels)

	usage := map[string]interface{}{
		"oprs":     oprs,
		"contacts": contacts,
		"channels": channels,
	}

	var sub domain.BillingSubscription
	if err := db.Where("tenant_id = ?", tenantID).First(&sub).Error; err == nil {
		var plan domain.BillingPlan
		if err := db.Where("id = ?", sub.PlanId).First(&plan).Error; err == nil {
			usage["limits"] = map[string]interface{}{
				"max_oprs":     plan.MaxOprs,
				"max_contacts": plan.MaxContacts,
				"max_channels": plan.MaxChannels,
			}
		}
	}
	return ok(c, usage)
}

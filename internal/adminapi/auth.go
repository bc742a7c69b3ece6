package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/internal/webserver"
	"github.com/dialogix/dialogix/pkg/common"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func registerAuthRoutes() {
	webserver.PubPOST("/auth/login", postLogin)
	webserver.ApiGET("/auth/me", getMe)
	webserver.ApiGET("/system/oprs", listOprs)
	webserver.ApiPOST("/system/oprs", createOpr)
	webserver.ApiPUT("/system/oprs/:id", updateOpr)
	webserver.ApiDELETE("/system/oprs/:id", deleteOpr)
}

func postLogin(c echo.Context) error {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login parameters", nil)
	}
	email := strings.TrimSpace(strings.ToLower(payload.Email))
	if email == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "MISSING_FIELDS", "email and password are required", nil)
	}

	var opr domain.SysOpr
	err := GetDB(c).Where("email = ?", email).First(&opr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operator", err.Error())
	}
	if opr.Status != common.ENABLED {
		return fail(c, http.StatusUnauthorized, "ACCOUNT_DISABLED", "Account is disabled", nil)
	}
	if bcrypt.CompareHashAndPassword([]byte(opr.Password), []byte(payload.Password)) != nil {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	}

	appctx := GetAppContext(c)
	expire := time.Duration(appctx.Config().Web.JwtExpire) * time.Hour
	if expire == 0 {
		expire = 24 * time.Hour
	}
	claims := webserver.TokenClaims{
		OprID:    opr.ID,
		TenantID: opr.TenantId,
		Email:    opr.Email,
		Level:    opr.Level,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   opr.Email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expire)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := webserver.IssueToken(appctx.Config().Web.Secret, claims)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", err.Error())
	}

	GetDB(c).Model(&domain.SysOpr{}).Where("id = ?", opr.ID).Update("last_login", time.Now())
	zap.L().Info("operator login", zap.String("email", opr.Email), zap.Int64("tenant_id", opr.TenantId))

	return ok(c, map[string]interface{}{
		"token":     token,
		"expire_at": time.Now().Add(expire).Unix(),
		"operator": map[string]interface{}{
			"id":       opr.ID,
			"email":    opr.Email,
			"realname": opr.Realname,
			"level":    opr.Level,
		},
	})
}

func getMe(c echo.Context) error {
	claims := GetClaims(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing token", nil)
	}
	var opr domain.SysOpr
	if err := GetDB(c).Where("id = ?", claims.OprID).First(&opr).Error; err != nil {
		return fail(c, http.StatusNotFound, "OPR_NOT_FOUND", "Operator not found", nil)
	}
	return ok(c, opr)
}

func listOprs(c echo.Context) error {
	page, pageSize := parsePagination(c)
	base := tenantScope(c, GetDB(c).Model(&domain.SysOpr{}))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operators", err.Error())
	}
	var oprs []domain.SysOpr
	if err := base.Order("id DESC").Offset((page-1)*pageSize).Limit(pageSize).Find(&oprs).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operators", err.Error())
	}
	return paged(c, oprs, total, page, pageSize)
}

type oprPayload struct {
	Realname string `json:"realname"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Level    string `json:"level"`
	Status   string `json:"status"`
	Remark   string `json:"remark"`
}

func createOpr(c echo.Context) error {
	claims := GetClaims(c)
	if claims.Level != "super" && claims.Level != "admin" {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Admin level required", nil)
	}

	var payload oprPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse operator parameters", nil)
	}
	email := strings.TrimSpace(strings.ToLower(payload.Email))
	if email == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "MISSING_FIELDS", "email and password are required", nil)
	}

	var dup domain.SysOpr
	if err := GetDB(c).Where("email = ?", email).First(&dup).Error; err == nil {
		return fail(c, http.StatusConflict, "DUPLICATE_EMAIL", "Operator with this email already exists", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "HASH_ERROR", "Failed to hash password", nil)
	}

	level := payload.Level
	if level == "" {
		level = "agent"
	}
	opr := domain.SysOpr{
		ID:        common.UUIDint64(),
		TenantId:  claims.TenantID,
		Realname:  payload.Realname,
		Mobile:    payload.Mobile,
		Email:     email,
		Username:  email,
		Password:  string(hashed),
		Level:     level,
		Status:    common.ENABLED,
		Remark:    payload.Remark,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := GetDB(c).Create(&opr).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create operator", err.Error())
	}
	audit(c, "create_opr", email)
	return ok(c, opr)
}

func updateOpr(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid operator ID", nil)
	}
	var payload oprPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse operator parameters", nil)
	}

	var opr domain.SysOpr
	if err := tenantScope(c, GetDB(c)).Where("id = ?", id).First(&opr).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "OPR_NOT_FOUND", "Operator not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operator", err.Error())
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if payload.Realname != "" {
		updates["realname"] = payload.Realname
	}
	if payload.Mobile != "" {
		updates["mobile"] = payload.Mobile
	}
	if payload.Level != "" {
		updates["level"] = payload.Level
	}
	if payload.Status != "" {
		updates["status"] = payload.Status
	}
	if payload.Remark != "" {
		updates["remark"] = payload.Remark
	}
	if payload.Password != "" {
		hashed, herr := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
		if herr != nil {
			return fail(c, http.StatusInternalServerError, "HASH_ERROR", "Failed to hash password", nil)
		}
		updates["password"] = string(hashed)
	}

	if err := GetDB(c).Model(&domain.SysOpr{}).Where("id = ?", opr.ID).Updates(updates).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update operator", err.Error())
	}
	audit(c, "update_opr", opr.Email)
	return ok(c, map[string]interface{}{"updated": true})
}

func deleteOpr(c echo.Context) error {
	claims := GetClaims(c)
	if claims.Level != "super" && claims.Level != "admin" {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Admin level required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid operator ID", nil)
	}
	if id == claims.OprID {
		return fail(c, http.StatusBadRequest, "SELF_DELETE", "Cannot delete your own account", nil)
	}
	res := tenantScope(c, GetDB(c)).Where("id = ?", id).Delete(&domain.SysOpr{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete operator", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "OPR_NOT_FOUND", "Operator not found", nil)
	}
	audit(c, "delete_opr", c.Param("id"))
	return ok(c, map[string]interface{}{"deleted": true})
}

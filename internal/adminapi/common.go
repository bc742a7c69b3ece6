package adminapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dialogix/dialogix/internal/app"
	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/internal/webserver"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

type apiResponse struct {
	Code string      `json:"code"`
	Data interface{} `json:"data,omitempty"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Detail  interface{} `json:"detail,omitempty"`
}

type pagedResponse struct {
	Code     string      `json:"code"`
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, apiResponse{Code: "OK", Data: data})
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, apiError{Code: code, Message: message, Detail: detail})
}

func paged(c echo.Context, items interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, pagedResponse{
		Code: "OK", Items: items, Total: total, Page: page, PageSize: pageSize,
	})
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// GetDB returns the request scoped database handle.
func GetDB(c echo.Context) *gorm.DB {
	return c.Get(webserver.DBContextKey).(*gorm.DB)
}

// GetAppContext returns the application context.
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

// GetClaims returns the verified token claims, nil on public routes.
func GetClaims(c echo.Context) *webserver.TokenClaims {
	token, ok := c.Get(webserver.ClaimsKey).(*jwt.Token)
	if !ok {
		return nil
	}
	claims, ok := token.Claims.(*webserver.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetTenantID returns the caller's tenant id. The tenant always comes
// from the verified token, never from request parameters.
func GetTenantID(c echo.Context) int64 {
	if claims := GetClaims(c); claims != nil {
		return claims.TenantID
	}
	return 0
}

// tenantScope narrows a query to the caller's tenant.
func tenantScope(c echo.Context, db *gorm.DB) *gorm.DB {
	return db.Where("tenant_id = ?", GetTenantID(c))
}

// audit records an operator action in the oplog.
func audit(c echo.Context, action, desc string) {
	claims := GetClaims(c)
	if claims == nil {
		return
	}
	GetDB(c).Create(&domain.SysOprLog{
		TenantId:  claims.TenantID,
		OprName:   claims.Email,
		OprIp:     c.RealIP(),
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	})
}

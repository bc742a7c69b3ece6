package adminapi

import (
	"net/http"
	"runtime"
	"time"

	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/internal/webserver"
	"github.com/dialogix/dialogix/pkg/common"
	"github.com/dialogix/dialogix/pkg/metrics"
	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/spf13/cast"
)

func registerSystemRoutes() {
	webserver.ApiGET("/system/settings/:category", getSettings)
	webserver.ApiPOST("/system/settings/:category", saveSettings)
	webserver.ApiGET("/system/metrics/:name", getMetricSeries)
	webserver.ApiGET("/system/info", getSystemInfo)
	webserver.ApiGET("/system/oplogs", listOprLogs)
}

// secret setting names are masked on read
var maskedSettings = map[string]bool{
	"token": true,
}

func getSettings(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	category := c.Param("category")
	var rows []domain.SysConfig
	if err := GetDB(c).Where("type = ?", category).Order("sort").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query settings", err.Error())
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		if maskedSettings[row.Name] {
			out[row.Name] = common.MaskToken(row.Value)
			continue
		}
		out[row.Name] = row.Value
	}
	return ok(c, out)
}

func saveSettings(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	category := c.Param("category")
	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse settings", nil)
	}
	if len(payload) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_SETTINGS", "No settings provided", nil)
	}
	if err := GetAppContext(c).SaveSettings(category, payload); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save settings", err.Error())
	}
	audit(c, "save_settings", category)
	return ok(c, map[string]interface{}{"saved": len(payload)})
}

// getMetricSeries returns a stored time series with percentile summaries.
func getMetricSeries(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	name := c.Param("name")
	end := time.Now().Unix()
	start := end - 3600
	if s := c.QueryParam("start"); s != "" {
		start = cast.ToInt64(s)
	}
	if e := c.QueryParam("end"); e != "" {
		end = cast.ToInt64(e)
	}

	points := metrics.Range(name, start, end)
	values := make([]float64, 0, len(points))
	for _, p := range points {
		values = append(values, p.Value)
	}

	summary := map[string]interface{}{}
	if len(values) > 0 {
		if v, err := stats.Mean(values); err == nil {
			summary["mean"] = v
		}
		if v, err := stats.Percentile(values, 50); err == nil {
			summary["p50"] = v
		}
		if v, err := stats.Percentile(values, 95); err == nil {
			summary["p95"] = v
		}
		if v, err := stats.Max(values); err == nil {
			summary["max"] = v
		}
	}
	return ok(c, map[string]interface{}{
		"name":    name,
		"points":  points,
		"summary": summary,
	})
}

func getSystemInfo(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	info := map[string]interface{}{
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
		"cpus":       runtime.NumCPU(),
	}
	if hi, err := host.Info(); err == nil {
		info["hostname"] = hi.Hostname
		info["os"] = hi.OS
		info["platform"] = hi.Platform
		info["uptime"] = hi.Uptime
	}
	return ok(c, info)
}

func listOprLogs(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	page, pageSize := parsePagination(c)
	base := tenantScope(c, GetDB(c).Model(&domain.SysOprLog{}))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query logs", err.Error())
	}
	var logs []domain.SysOprLog
	if err := base.Order("opt_time DESC").Offset((page-1)*pageSize).Limit(pageSize).Find(&logs).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query logs", err.Error())
	}
	return paged(c, logs, total, page, pageSize)
}

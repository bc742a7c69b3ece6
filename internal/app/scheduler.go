package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/pkg/metrics"
	"github.com/guonaihong/gout"
	"go.uber.org/zap"
)

// SchedulerService runs enabled schedulers periodically
func (a *Application) StartSchedulerService(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.runSchedulers()
			}
		}
	}()
}

// runSchedulers executes enabled schedulers whose next run is due
func (a *Application) runSchedulers() {
	var schedulers []domain.SysScheduler
	a.gormDB.Where("status = ?", "enabled").Find(&schedulers)
	now := time.Now()
	for _, sched := range schedulers {
		if sched.NextRunAt.IsZero() || now.After(sched.NextRunAt) || now.Equal(sched.NextRunAt) {
			a.runScheduler(&sched)
			a.gormDB.Model(&domain.SysScheduler{}).Where("id = ?", sched.ID).
				Update("next_run_at", now.Add(time.Duration(sched.Interval)*time.Second))
		}
	}
}

// runScheduler dispatches one scheduler row to its task implementation and
// records the outcome on the row.
func (a *Application) runScheduler(sched *domain.SysScheduler) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var err error
	switch sched.TaskType {
	case "provider_health":
		err = a.runProviderHealthCheck(ctx)
	case "data_retention":
		err = a.runDataRetention(ctx)
	default:
		fn, ok := a.taskByType(sched.TaskType)
		if !ok {
			zap.L().Warn("scheduler has no registered task",
				zap.String("task_type", sched.TaskType))
			return
		}
		err = fn(ctx)
	}

	result, message := "success", "completed"
	if err != nil {
		result, message = "failed", err.Error()
		zap.L().Error("scheduler task failed",
			zap.String("task_type", sched.TaskType), zap.Error(err))
	}
	a.gormDB.Model(&domain.SysScheduler{}).Where("id = ?", sched.ID).Updates(map[string]interface{}{
		"last_run_at":  time.Now(),
		"last_result":  result,
		"last_message": message,
	})
}

// runProviderHealthCheck probes the WPPConnect server over HTTP and records
// reachability as a gauge. An unconfigured provider is not an error.
func (a *Application) runProviderHealthCheck(ctx context.Context) error {
	baseURL := a.GetSettingsStringValue("wppconnect", "base_url")
	if baseURL == "" {
		metrics.SetGauge("wppconnect_reachable", 0)
		return nil
	}

	var code int
	err := gout.GET(strings.TrimRight(baseURL, "/") + "/healthz").
		WithContext(ctx).
		SetTimeout(10 * time.Second).
		Code(&code).
		Do()
	if err != nil || code >= 500 {
		metrics.SetGauge("wppconnect_reachable", 0)
		if err != nil {
			return fmt.Errorf("provider unreachable: %w", err)
		}
		return fmt.Errorf("provider unhealthy: status %d", code)
	}
	metrics.SetGauge("wppconnect_reachable", 1)
	return nil
}

// runDataRetention purges rows past the configured retention windows.
func (a *Application) runDataRetention(ctx context.Context) error {
	messageDays := a.ConfigMgr().GetInt("retention", "message_days")
	if messageDays == 0 {
		messageDays = 365
	}
	oplogDays := a.ConfigMgr().GetInt("retention", "oplog_days")
	if oplogDays == 0 {
		oplogDays = 180
	}

	db := a.gormDB.WithContext(ctx)

	res := db.Where("created_at < ?",
		time.Now().Add(-time.Hour*24*time.Duration(messageDays))).
		Delete(&domain.ChatMessage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		zap.L().Info("purged expired chat messages", zap.Int64("rows", res.RowsAffected))
	}

	res = db.Where("opt_time < ?",
		time.Now().Add(-time.Hour*24*time.Duration(oplogDays))).
		Delete(&domain.SysOprLog{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		zap.L().Info("purged expired operator logs", zap.Int64("rows", res.RowsAffected))
	}
	return nil
}

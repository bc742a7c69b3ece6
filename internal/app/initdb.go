package app

import (
	"strings"
	"time"

	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/pkg/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func (a *Application) checkSuper() {
	const superEmail = "admin@dialogix.local"
	const defaultPassword = "dialogix"

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("failed to hash default password", zap.Error(err))
		return
	}

	var operator domain.SysOpr
	err = a.gormDB.Where("email = ?", superEmail).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.SysOpr{
			ID:        common.UUIDint64(),
			TenantId:  DefaultTenantId,
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     superEmail,
			Username:  "admin",
			Password:  string(hashedPassword),
			Level:     "super",
			Status:    common.ENABLED,
			Remark:    "super",
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("email", superEmail))
		}
		return
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
		return
	}

	resetPassword := strings.TrimSpace(operator.Password) == ""
	resetLevel := !strings.EqualFold(operator.Level, "super")
	resetStatus := !strings.EqualFold(operator.Status, common.ENABLED)

	if !resetPassword && !resetLevel && !resetStatus {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetPassword {
		updates["password"] = string(hashedPassword)
	}
	if resetLevel {
		updates["level"] = "super"
	}
	if resetStatus {
		updates["status"] = common.ENABLED
	}

	if err := a.gormDB.Model(&domain.SysOpr{}).Where("id = ?", operator.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
		return
	}

	zap.L().Warn("repaired default super admin account",
		zap.String("email", superEmail),
		zap.Bool("passwordReset", resetPassword),
		zap.Bool("levelReset", resetLevel),
		zap.Bool("statusEnabled", resetStatus))
}

type configDefault struct {
	Category    string
	Name        string
	Value       string
	Description string
}

func (a *Application) settingDefaults() []configDefault {
	return []configDefault{
		{"wppconnect", "base_url", a.appConfig.Wppconnect.BaseURL, "WPPConnect server base URL"},
		{"wppconnect", "token", a.appConfig.Wppconnect.Token, "WPPConnect API token"},
		{"wppconnect", "token_file", a.appConfig.Wppconnect.TokenFile, "Path to file containing the WPPConnect API token"},
		{"wppconnect", "webhook_url", a.appConfig.Wppconnect.WebhookURL, "Publicly reachable webhook URL handed to the provider"},
		{"scheduler", "max_workers", "8", "Max concurrent workers for scheduled sweeps"},
		{"retention", "message_days", "365", "Days to keep chat messages"},
		{"retention", "oplog_days", "180", "Days to keep operator logs"},
		{"chat", "auto_create_contact", "true", "Create a contact automatically for unknown inbound senders"},
	}
}

func (a *Application) checkSettings() {
	for sortid, item := range a.settingDefaults() {
		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", item.Category, item.Name).
			Count(&count)

		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				Sort:   sortid,
				Type:   item.Category,
				Name:   item.Name,
				Value:  item.Value,
				Remark: item.Description,
			})
			zap.L().Info("initialized config",
				zap.String("key", item.Category+"."+item.Name))
		}
	}
}

// checkSchedulers initializes default scheduled tasks
func (a *Application) checkSchedulers() {
	defaultSchedulers := []domain.SysScheduler{
		{
			Name:     "Session Heartbeat",
			TaskType: "session_heartbeat",
			Interval: 60,
			Status:   "enabled",
			Remark:   "Polls active WhatsApp sessions and reconciles stored state",
		},
		{
			Name:     "Provider Health",
			TaskType: "provider_health",
			Interval: 300,
			Status:   "enabled",
			Remark:   "Checks WPPConnect server reachability",
		},
		{
			Name:     "Data Retention",
			TaskType: "data_retention",
			Interval: 86400,
			Status:   "enabled",
			Remark:   "Purges chat messages and operator logs past retention",
		},
	}

	for _, sched := range defaultSchedulers {
		var count int64
		a.gormDB.Model(&domain.SysScheduler{}).
			Where("task_type = ?", sched.TaskType).
			Count(&count)

		if count == 0 {
			sched.NextRunAt = time.Now().Add(time.Duration(sched.Interval) * time.Second)
			if err := a.gormDB.Create(&sched).Error; err != nil {
				zap.L().Error("failed to create default scheduler",
					zap.String("name", sched.Name),
					zap.Error(err))
			} else {
				zap.L().Info("initialized default scheduler",
					zap.String("name", sched.Name),
					zap.String("task_type", sched.TaskType))
			}
		}
	}
}

// checkPlans initializes the default billing plans
func (a *Application) checkPlans() {
	defaultPlans := []domain.BillingPlan{
		{Code: "free", Name: "Free", Price: 0, MaxOprs: 2, MaxContacts: 200, MaxChannels: 1, Remark: "Starter plan"},
		{Code: "pro", Name: "Pro", Price: 49.9, MaxOprs: 10, MaxContacts: 10000, MaxChannels: 3, Remark: "Professional plan"},
		{Code: "business", Name: "Business", Price: 199.0, MaxOprs: 50, MaxContacts: 100000, MaxChannels: 10, Remark: "Business plan"},
	}

	for _, p := range defaultPlans {
		var count int64
		a.gormDB.Model(&domain.BillingPlan{}).Where("code = ?", p.Code).Count(&count)
		if count == 0 {
			p.CreatedAt = time.Now()
			p.UpdatedAt = time.Now()
			if err := a.gormDB.Create(&p).Error; err != nil {
				zap.L().Error("failed to create default plan", zap.String("code", p.Code), zap.Error(err))
			} else {
				zap.L().Info("initialized default plan", zap.String("code", p.Code))
			}
		}
	}

	var sub int64
	a.gormDB.Model(&domain.BillingSubscription{}).Where("tenant_id = ?", DefaultTenantId).Count(&sub)
	if sub == 0 {
		var free domain.BillingPlan
		if err := a.gormDB.Where("code = ?", "free").First(&free).Error; err == nil {
			a.gormDB.Create(&domain.BillingSubscription{
				TenantId:  DefaultTenantId,
				PlanId:    free.ID,
				Status:    "active",
				PeriodEnd: time.Now().AddDate(0, 1, 0),
			})
		}
	}
}

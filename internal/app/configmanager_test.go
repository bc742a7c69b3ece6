package app

import (
	"context"
	"testing"
	"time"

	"github.com/dialogix/dialogix/config"
	"github.com/dialogix/dialogix/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))

	a := NewApplication(config.DefaultAppConfig)
	a.OverrideDB(db)
	a.configManager = NewConfigManager(a)
	return a
}

func TestConfigManagerSaveAndGet(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.SaveSettings("wppconnect", map[string]interface{}{
		"base_url": "http://wpp.local:21465",
		"token":    "abc",
	}))

	assert.Equal(t, "http://wpp.local:21465", a.GetSettingsStringValue("wppconnect", "base_url"))
	assert.Equal(t, "abc", a.GetSettingsStringValue("wppconnect", "token"))
	assert.Empty(t, a.GetSettingsStringValue("wppconnect", "missing"))

	// overwrite invalidates the cached value
	require.NoError(t, a.SaveSettings("wppconnect", map[string]interface{}{
		"base_url": "http://other:21465",
	}))
	assert.Equal(t, "http://other:21465", a.GetSettingsStringValue("wppconnect", "base_url"))
}

func TestConfigManagerCoercion(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.SaveSettings("scheduler", map[string]interface{}{
		"max_workers": 16,
		"enabled":     true,
	}))
	assert.Equal(t, int64(16), a.GetSettingsInt64Value("scheduler", "max_workers"))
	assert.True(t, a.GetSettingsBoolValue("scheduler", "enabled"))
}

func TestCheckSchedulersSeedsDefaults(t *testing.T) {
	a := newTestApp(t)
	a.checkSchedulers()

	var schedulers []domain.SysScheduler
	require.NoError(t, a.gormDB.Order("task_type").Find(&schedulers).Error)
	types := make([]string, 0, len(schedulers))
	for _, s := range schedulers {
		types = append(types, s.TaskType)
	}
	assert.ElementsMatch(t, []string{"session_heartbeat", "provider_health", "data_retention"}, types)

	// running again does not duplicate
	a.checkSchedulers()
	var count int64
	a.gormDB.Model(&domain.SysScheduler{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestDataRetentionPurgesOldRows(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.SaveSettings("retention", map[string]interface{}{
		"message_days": 30,
		"oplog_days":   30,
	}))

	old := time.Now().Add(-31 * 24 * time.Hour)
	require.NoError(t, a.gormDB.Create(&domain.ChatMessage{
		ID: 1, TenantId: 1, ConversationId: 1, Content: "old", CreatedAt: old,
	}).Error)
	require.NoError(t, a.gormDB.Create(&domain.ChatMessage{
		ID: 2, TenantId: 1, ConversationId: 1, Content: "fresh", CreatedAt: time.Now(),
	}).Error)
	require.NoError(t, a.gormDB.Create(&domain.SysOprLog{
		ID: 1, TenantId: 1, OptAction: "login", OptTime: old,
	}).Error)

	require.NoError(t, a.runDataRetention(context.Background()))

	var msgs int64
	a.gormDB.Model(&domain.ChatMessage{}).Count(&msgs)
	assert.Equal(t, int64(1), msgs)
	var logs int64
	a.gormDB.Model(&domain.SysOprLog{}).Count(&logs)
	assert.Zero(t, logs)
}

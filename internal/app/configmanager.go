package app

import (
	"sync"
	"time"

	"github.com/dialogix/dialogix/internal/domain"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const configCacheTTL = 30 * time.Second

type cachedValue struct {
	value    string
	loadedAt time.Time
}

// ConfigManager reads runtime settings from the sys_config table with a
// short lived cache in front. Values are stored as strings and coerced
// on read.
type ConfigManager struct {
	app *Application

	mu    sync.RWMutex
	cache map[string]cachedValue
}

func NewConfigManager(app *Application) *ConfigManager {
	return &ConfigManager{
		app:   app,
		cache: make(map[string]cachedValue),
	}
}

func (m *ConfigManager) load(category, name string) string {
	key := category + "." + name
	m.mu.RLock()
	cv, ok := m.cache[key]
	m.mu.RUnlock()
	if ok && time.Since(cv.loadedAt) < configCacheTTL {
		return cv.value
	}

	var cfg domain.SysConfig
	err := m.app.gormDB.Where("type = ? and name = ?", category, name).First(&cfg).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			zap.L().Error("load config failed",
				zap.String("category", category), zap.String("name", name), zap.Error(err))
		}
		return ""
	}

	m.mu.Lock()
	m.cache[key] = cachedValue{value: cfg.Value, loadedAt: time.Now()}
	m.mu.Unlock()
	return cfg.Value
}

func (m *ConfigManager) GetString(category, name string) string {
	return m.load(category, name)
}

func (m *ConfigManager) GetInt(category, name string) int {
	return cast.ToInt(m.load(category, name))
}

func (m *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.load(category, name))
}

func (m *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(m.load(category, name))
}

// Save upserts values for one category and invalidates the cache.
func (m *ConfigManager) Save(category string, settings map[string]interface{}) error {
	for name, value := range settings {
		strValue := cast.ToString(value)
		var count int64
		m.app.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Count(&count)
		var err error
		if count == 0 {
			err = m.app.gormDB.Create(&domain.SysConfig{
				Type:  category,
				Name:  name,
				Value: strValue,
			}).Error
		} else {
			err = m.app.gormDB.Model(&domain.SysConfig{}).
				Where("type = ? and name = ?", category, name).
				Update("value", strValue).Error
		}
		if err != nil {
			return errors.Wrapf(err, "save config %s.%s", category, name)
		}
	}

	m.mu.Lock()
	for name := range settings {
		delete(m.cache, category+"."+name)
	}
	m.mu.Unlock()
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

type WebConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Secret    string `yaml:"secret"`
	JwtExpire int    `yaml:"jwt_expire"` // token lifetime in hours
}

type DBConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// WppconnectConfig holds the defaults for the WPPConnect provider; the
// effective values are runtime settings (sys_config) seeded from these.
type WppconnectConfig struct {
	BaseURL    string `yaml:"base_url"`
	Token      string `yaml:"token"`
	TokenFile  string `yaml:"token_file"`
	WebhookURL string `yaml:"webhook_url"`
}

type AppConfig struct {
	System     SysConfig        `yaml:"system"`
	Web        WebConfig        `yaml:"web"`
	Database   DBConfig         `yaml:"database"`
	Logger     LogConfig        `yaml:"logger"`
	Wppconnect WppconnectConfig `yaml:"wppconnect"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "Dialogix",
		Location: "America/Sao_Paulo",
		Workdir:  "/var/dialogix",
		Debug:    true,
	},
	Web: WebConfig{
		Host:      "0.0.0.0",
		Port:      1816,
		Secret:    "9b6de5cc-dialogix-0411-b0b6cc7ceb51",
		JwtExpire: 24,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "dialogix",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/dialogix/dialogix.log",
	},
	Wppconnect: WppconnectConfig{
		BaseURL:    "",
		Token:      "",
		TokenFile:  "",
		WebhookURL: "",
	},
}

func setEnvValue(name string, f func(v string)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue)
	}
}

func setEnvBoolValue(name string, f func(v bool)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue == "true" || evalue == "1" || evalue == "on")
	}
}

func setEnvIntValue(name string, f func(v int)) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	p, err := strconv.ParseInt(evalue, 10, 64)
	if err == nil {
		f(int(p))
	}
}

// LoadConfig reads the yaml configuration file and applies DIALOGIX_*
// environment overrides on top. A missing file yields the defaults.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			cfg = new(AppConfig)
			if err := yaml.Unmarshal(data, cfg); err != nil {
				cfg = DefaultAppConfig
			}
		}
	}

	setEnvValue("DIALOGIX_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvBoolValue("DIALOGIX_SYSTEM_DEBUG", func(v bool) { cfg.System.Debug = v })

	setEnvValue("DIALOGIX_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvValue("DIALOGIX_WEB_SECRET", func(v string) { cfg.Web.Secret = v })
	setEnvIntValue("DIALOGIX_WEB_PORT", func(v int) { cfg.Web.Port = v })

	setEnvValue("DIALOGIX_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("DIALOGIX_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvIntValue("DIALOGIX_DB_PORT", func(v int) { cfg.Database.Port = v })
	setEnvValue("DIALOGIX_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("DIALOGIX_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("DIALOGIX_DB_PWD", func(v string) { cfg.Database.Passwd = v })

	setEnvValue("WPPCONNECT_BASE_URL", func(v string) { cfg.Wppconnect.BaseURL = v })
	setEnvValue("WPPCONNECT_TOKEN", func(v string) { cfg.Wppconnect.Token = v })
	setEnvValue("WPP_SECRET_KEY_FILE", func(v string) { cfg.Wppconnect.TokenFile = v })
	setEnvValue("WPP_WEBHOOK_URL", func(v string) { cfg.Wppconnect.WebhookURL = v })

	cfg.initDirs()
	return cfg
}

func (c *AppConfig) initDirs() {
	_ = os.MkdirAll(c.System.Workdir, 0755)
	_ = os.MkdirAll(filepath.Join(c.System.Workdir, "data"), 0755)
	_ = os.MkdirAll(filepath.Join(c.System.Workdir, "metrics"), 0755)
}

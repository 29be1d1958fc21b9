package config

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host    string `yaml:"host" json:"host"`
	Port    int    `yaml:"port" json:"port"`
	Secret  string `yaml:"secret" json:"secret"`
	MaxBody int64  `yaml:"max_body" json:"max_body"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// InventoryConfig points at the inventory-sync collaborator. Calls are
// best-effort; an empty URL disables the sync entirely.
type InventoryConfig struct {
	SyncURL string `yaml:"sync_url" json:"sync_url"`
	Timeout int    `yaml:"timeout" json:"timeout"`
}

// NotifyConfig configures notification dispatch. When DispatchURL is set
// events are posted as {type,data}; otherwise, when SMTP is configured,
// notifications are rendered and mailed directly.
type NotifyConfig struct {
	DispatchURL string `yaml:"dispatch_url" json:"dispatch_url"`
	Timeout     int    `yaml:"timeout" json:"timeout"`
	SmtpHost    string `yaml:"smtp_host" json:"smtp_host"`
	SmtpPort    int    `yaml:"smtp_port" json:"smtp_port"`
	SmtpUser    string `yaml:"smtp_user" json:"smtp_user"`
	SmtpPasswd  string `yaml:"smtp_passwd" json:"smtp_passwd"`
	MailFrom    string `yaml:"mail_from" json:"mail_from"`
	MailTo      string `yaml:"mail_to" json:"mail_to"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System    SysConfig       `yaml:"system" json:"system"`
	Web       WebConfig       `yaml:"web" json:"web"`
	Database  DBConfig        `yaml:"database" json:"database"`
	Inventory InventoryConfig `yaml:"inventory" json:"inventory"`
	Notify    NotifyConfig    `yaml:"notify" json:"notify"`
	Logger    LogConfig       `yaml:"logger" json:"logger"`
}

func (c *AppConfig) InitDirs() {
	_ = os.MkdirAll(path.Join(c.System.Workdir, "logs"), 0o755)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "data"), 0o755)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "metrics"), 0o755)
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) GetMetricsDir() string {
	return path.Join(c.System.Workdir, "metrics")
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "EcommerceCore",
		Location: "Asia/Kolkata",
		Workdir:  "/var/ecommerce",
		Debug:    true,
	},
	Web: WebConfig{
		Host:    "0.0.0.0",
		Port:    1816,
		Secret:  "9b6de5cc-0731-1203-xxtx-0f568ac9da37",
		MaxBody: 1 << 20,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "ecommerce",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Inventory: InventoryConfig{
		SyncURL: "",
		Timeout: 5,
	},
	Notify: NotifyConfig{
		DispatchURL: "",
		Timeout:     5,
		SmtpPort:    25,
		MailTo:      "test@example.com",
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "ecommerce.log",
	},
}

func setEnvValue(name string, val *string) {
	if evalue := os.Getenv(name); evalue != "" {
		*val = evalue
	}
}

func setEnvInt64Value(name string, val *int64) {
	if evalue := os.Getenv(name); evalue != "" {
		*val = cast.ToInt64(evalue)
	}
}

func setEnvIntValue(name string, val *int) {
	if evalue := os.Getenv(name); evalue != "" {
		*val = cast.ToInt(evalue)
	}
}

func setEnvBoolValue(name string, val *bool) {
	if evalue := os.Getenv(name); evalue != "" {
		*val = cast.ToBool(evalue)
	}
}

// LoadConfig reads the yaml configuration file and applies ECOMMERCE_*
// environment overrides on top of it. A missing file yields the defaults.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			cfg = new(AppConfig)
			if err := yaml.Unmarshal(data, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "parse config %s error: %s\n", cfile, err)
				cfg = DefaultAppConfig
			}
		}
	}

	setEnvValue("ECOMMERCE_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvBoolValue("ECOMMERCE_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("ECOMMERCE_WEB_HOST", &cfg.Web.Host)
	setEnvValue("ECOMMERCE_WEB_SECRET", &cfg.Web.Secret)
	setEnvIntValue("ECOMMERCE_WEB_PORT", &cfg.Web.Port)
	setEnvInt64Value("ECOMMERCE_WEB_MAX_BODY", &cfg.Web.MaxBody)

	setEnvValue("ECOMMERCE_DB_TYPE", &cfg.Database.Type)
	setEnvValue("ECOMMERCE_DB_HOST", &cfg.Database.Host)
	setEnvValue("ECOMMERCE_DB_NAME", &cfg.Database.Name)
	setEnvValue("ECOMMERCE_DB_USER", &cfg.Database.User)
	setEnvValue("ECOMMERCE_DB_PWD", &cfg.Database.Passwd)
	setEnvIntValue("ECOMMERCE_DB_PORT", &cfg.Database.Port)
	setEnvIntValue("ECOMMERCE_DB_MAX_CONN", &cfg.Database.MaxConn)
	setEnvIntValue("ECOMMERCE_DB_IDLE_CONN", &cfg.Database.IdleConn)
	setEnvBoolValue("ECOMMERCE_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("ECOMMERCE_INVENTORY_SYNC_URL", &cfg.Inventory.SyncURL)
	setEnvIntValue("ECOMMERCE_INVENTORY_TIMEOUT", &cfg.Inventory.Timeout)

	setEnvValue("ECOMMERCE_NOTIFY_DISPATCH_URL", &cfg.Notify.DispatchURL)
	setEnvValue("ECOMMERCE_NOTIFY_SMTP_HOST", &cfg.Notify.SmtpHost)
	setEnvIntValue("ECOMMERCE_NOTIFY_SMTP_PORT", &cfg.Notify.SmtpPort)
	setEnvValue("ECOMMERCE_NOTIFY_SMTP_USER", &cfg.Notify.SmtpUser)
	setEnvValue("ECOMMERCE_NOTIFY_SMTP_PWD", &cfg.Notify.SmtpPasswd)
	setEnvValue("ECOMMERCE_NOTIFY_MAIL_FROM", &cfg.Notify.MailFrom)
	setEnvValue("ECOMMERCE_NOTIFY_MAIL_TO", &cfg.Notify.MailTo)

	setEnvValue("ECOMMERCE_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("ECOMMERCE_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	return cfg
}

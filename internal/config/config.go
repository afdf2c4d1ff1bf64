package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "ETPAPPROVER_CONFIG"
	repoEmailEnv    = "REPOSITORY_EMAIL"
	repoPasswordEnv = "REPOSITORY_PASSWORD"
	chatTokenEnv    = "MATTERMOST_TOKEN"
	chatURLEnv      = "MATTERMOST_API_URL"
	trackingPathEnv = "TRACKING_PATH"
	trackingDSNEnv  = "TRACKING_DSN"
)

// Config holds high-level settings required across the application.
type Config struct {
	Repository RepositoryConfig `yaml:"repository"`
	Chat       ChatConfig       `yaml:"chat"`
	Email      EmailConfig      `yaml:"email"`
	Tracking   TrackingConfig   `yaml:"tracking"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// RepositoryConfig describes the document repository we poll for approvals.
type RepositoryConfig struct {
	BaseURL  string `yaml:"baseUrl"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// ChatConfig wires the chat platform plus the notification policy knobs:
// the single always-cc administrator handle and the surname-fragment
// override table, both injected here rather than compiled in.
type ChatConfig struct {
	APIURL      string            `yaml:"apiUrl"`
	Token       string            `yaml:"token"`
	AdminHandle string            `yaml:"adminHandle"`
	InsecureTLS bool              `yaml:"insecureTls"`
	Overrides   map[string]string `yaml:"overrides"`
}

// EmailConfig describes the SMTP channel for run summaries.
type EmailConfig struct {
	SMTPHost string `yaml:"smtpHost"`
	SMTPPort int    `yaml:"smtpPort"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	UseTLS   bool   `yaml:"useTls"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TrackingConfig selects and locates the idempotency ledger backend.
type TrackingConfig struct {
	Backend string `yaml:"backend"` // "file" or "sqlite"
	Path    string `yaml:"path"`    // JSON ledger location (file backend)
	DSN     string `yaml:"dsn"`     // sqlite database path
}

// SchedulerConfig defines when watch mode triggers a scan.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// LoggingConfig controls console verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// LoadFile behaves like Load but reads the given path instead of the env var.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if raw, err := os.ReadFile(path); err != nil {
		log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
	} else {
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(repoEmailEnv); v != "" {
		c.Repository.Email = v
	}

	if v := os.Getenv(repoPasswordEnv); v != "" {
		c.Repository.Password = v
	}

	if v := os.Getenv(chatTokenEnv); v != "" {
		c.Chat.Token = v
	}

	if v := os.Getenv(chatURLEnv); v != "" {
		c.Chat.APIURL = v
	}

	if v := os.Getenv(trackingPathEnv); v != "" {
		c.Tracking.Path = v
	}

	if v := os.Getenv(trackingDSNEnv); v != "" {
		c.Tracking.DSN = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Repository.BaseURL != "" {
		base.Repository.BaseURL = override.Repository.BaseURL
	}
	if override.Repository.Email != "" {
		base.Repository.Email = override.Repository.Email
	}
	if override.Repository.Password != "" {
		base.Repository.Password = override.Repository.Password
	}

	if override.Chat.APIURL != "" {
		base.Chat.APIURL = override.Chat.APIURL
	}
	if override.Chat.Token != "" {
		base.Chat.Token = override.Chat.Token
	}
	if override.Chat.AdminHandle != "" {
		base.Chat.AdminHandle = override.Chat.AdminHandle
	}
	if override.Chat.InsecureTLS {
		base.Chat.InsecureTLS = true
	}
	if len(override.Chat.Overrides) > 0 {
		base.Chat.Overrides = override.Chat.Overrides
	}

	if override.Email.SMTPHost != "" {
		base.Email.SMTPHost = override.Email.SMTPHost
	}
	if override.Email.SMTPPort != 0 {
		base.Email.SMTPPort = override.Email.SMTPPort
	}
	if override.Email.From != "" {
		base.Email.From = override.Email.From
	}
	if override.Email.To != "" {
		base.Email.To = override.Email.To
	}
	if override.Email.UseTLS {
		base.Email.UseTLS = true
	}
	if override.Email.Username != "" {
		base.Email.Username = override.Email.Username
	}
	if override.Email.Password != "" {
		base.Email.Password = override.Email.Password
	}

	if override.Tracking.Backend != "" {
		base.Tracking.Backend = override.Tracking.Backend
	}
	if override.Tracking.Path != "" {
		base.Tracking.Path = override.Tracking.Path
	}
	if override.Tracking.DSN != "" {
		base.Tracking.DSN = override.Tracking.DSN
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Repository: RepositoryConfig{
			BaseURL: "https://publish.etp.kit.edu",
		},
		Chat: ChatConfig{
			AdminHandle: "jhornung",
			Overrides:   map[string]string{},
		},
		Email: EmailConfig{
			SMTPHost: "localhost",
			SMTPPort: 25,
			From:     "etp-admin@lists.kit.edu",
			To:       "webadmin@etp.kit.edu",
		},
		Tracking: TrackingConfig{
			Backend: "file",
			Path:    "processed_submissions.json",
			DSN:     "processed_submissions.db",
		},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		Logging:   LoggingConfig{Level: "info"},
	}
}

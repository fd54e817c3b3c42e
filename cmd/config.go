package main

import (
	"fmt"
	"strings"

	"resume-screener/internal/criteria"
	"resume-screener/internal/extractor"
	"resume-screener/internal/inbox"
	"resume-screener/internal/notifier"
	"resume-screener/internal/processor"
	"resume-screener/internal/scheduler"
	"resume-screener/internal/secrets"
	"resume-screener/internal/storage"

	"github.com/spf13/viper"
)

// AppConfig 应用配置。
type AppConfig struct {
	Database  storage.Config          `mapstructure:"database"`
	Extractor extractor.Config        `mapstructure:"extractor"`
	Scoring   processor.Config        `mapstructure:"scoring"`
	Criteria  criteria.Config         `mapstructure:"criteria"`
	Email     notifier.EmailConfig    `mapstructure:"email"`
	Telegram  notifier.TelegramConfig `mapstructure:"telegram"`
	AMQP      notifier.AMQPConfig     `mapstructure:"amqp"`
	Server    ServerConfig            `mapstructure:"server"`
	Inbox     inbox.Config            `mapstructure:"inbox"`
	Scheduler scheduler.Config        `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	MaxUploadBytes  int64  `mapstructure:"max-upload-bytes"`
	ShutdownTimeout string `mapstructure:"shutdown-timeout"`
}

// setDefaults 注册全部配置键，AutomaticEnv 只对已知键生效。
func setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"database.driver": "sqlite",
		"database.path":   "data/resume_data.db",
		"database.dsn":    "",
		"database.dedup":  storage.DedupFilenameDay,

		"extractor.backend":                 "pdf",
		"extractor.unipdf-license-key":      "",
		"extractor.unipdf-license-key-file": "",

		"scoring.strategy":        "",
		"scoring.fuzzy-threshold": 85,

		"criteria.file":                 "",
		"criteria.job-description-file": "",
		"criteria.cutoff":               criteria.DefaultCutoff,

		"email.enabled":       false,
		"email.host":          "",
		"email.port":          587,
		"email.username":      "",
		"email.password":      "",
		"email.password-file": "",
		"email.from":          "",
		"email.subject":       "",

		"telegram.enabled":    false,
		"telegram.token":      "",
		"telegram.token-file": "",
		"telegram.chat-id":    0,

		"amqp.enabled":  false,
		"amqp.url":      "",
		"amqp.url-file": "",
		"amqp.queue":    "screening_batches",

		"server.addr":             ":8080",
		"server.max-upload-bytes": 32 << 20,
		"server.shutdown-timeout": "10s",

		"inbox.dir":           "",
		"inbox.processed-dir": "",
		"inbox.max-file-size": 20 << 20,

		"scheduler.enabled":  false,
		"scheduler.interval": "15m",
		"scheduler.timeout":  "5m",
		"scheduler.strategy": "",
		"scheduler.notify":   false,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func getConfig() (AppConfig, error) {
	var cfg AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := resolveSecrets(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// resolveSecrets 把 *-file 形式的凭据读入内存，启用了的通道缺凭据时报错。
func resolveSecrets(cfg *AppConfig) error {
	if cfg.Email.Enabled {
		pass, err := secrets.Optional(secrets.Source{Name: "email password", Value: cfg.Email.Password, File: cfg.Email.PasswordFile})
		if err != nil {
			return err
		}
		cfg.Email.Password = pass
	}

	if cfg.Telegram.Enabled {
		token, err := secrets.Load(secrets.Source{Name: "telegram token", Value: cfg.Telegram.Token, File: cfg.Telegram.TokenFile})
		if err != nil {
			return err
		}
		cfg.Telegram.Token = token
	}

	if cfg.AMQP.Enabled {
		url, err := secrets.Load(secrets.Source{Name: "amqp url", Value: cfg.AMQP.URL, File: cfg.AMQP.URLFile})
		if err != nil {
			return err
		}
		cfg.AMQP.URL = url
	}

	if strings.EqualFold(strings.TrimSpace(cfg.Extractor.Backend), "unipdf") {
		key, err := secrets.Load(secrets.Source{
			Name:  "unipdf license key",
			Value: cfg.Extractor.UnipdfLicenseKey,
			File:  cfg.Extractor.UnipdfLicenseKeyFile,
		})
		if err != nil {
			return err
		}
		cfg.Extractor.UnipdfLicenseKey = key
	}

	return nil
}

// redacted 返回可以打到日志里的配置副本。
func (c AppConfig) redacted() AppConfig {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	c.Database.DSN = mask(c.Database.DSN)
	c.Email.Password = mask(c.Email.Password)
	c.Telegram.Token = mask(c.Telegram.Token)
	c.AMQP.URL = mask(c.AMQP.URL)
	c.Extractor.UnipdfLicenseKey = mask(c.Extractor.UnipdfLicenseKey)
	return c
}

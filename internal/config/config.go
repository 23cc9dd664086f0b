// Package config loads application configuration from environment variables,
// an optional YAML file and the OS keychain.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ericfisherdev/profilekeeper/internal/adapter/driven/naukri"
	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

// Mailbox providers accepted by PROFILEKEEPER_MAILBOX.
const (
	MailboxGmail = "gmail"
	MailboxIMAP  = "imap"
)

// Config holds the application configuration. Field tags name the environment
// variable that sets each field so validation errors point at it.
type Config struct {
	Credentials    model.Credentials `validate:"-"`
	KeyringAccount string            `env:"PROFILEKEEPER_KEYRING_ACCOUNT"`

	GmailClientID     string `env:"GMAIL_CLIENT_ID"`
	GmailClientSecret string `env:"GMAIL_CLIENT_SECRET"`
	GmailRefreshToken string `env:"GMAIL_REFRESH_TOKEN"`

	Mailbox      string `env:"PROFILEKEEPER_MAILBOX" validate:"oneof=gmail imap"`
	IMAPAddr     string `env:"PROFILEKEEPER_IMAP_ADDR" validate:"required_if=Mailbox imap"`
	IMAPUsername string `env:"PROFILEKEEPER_IMAP_USERNAME" validate:"required_if=Mailbox imap"`
	IMAPPassword string `env:"PROFILEKEEPER_IMAP_PASSWORD"`

	ListenAddr string `env:"PROFILEKEEPER_LISTEN_ADDR" validate:"required"`

	Skill          string `env:"PROFILEKEEPER_SKILL" validate:"required,excludesall=0x2C"`
	ResumePath     string `env:"PROFILEKEEPER_RESUME_PATH" validate:"required"`
	ResumeFileName string `env:"PROFILEKEEPER_RESUME_FILENAME"`
	ResumeFormKey  string `env:"PROFILEKEEPER_RESUME_FORM_KEY" validate:"required"`
	ResumeFileKey  string `env:"PROFILEKEEPER_RESUME_FILE_KEY" validate:"required"`

	SchedulerEnabled bool           `env:"PROFILEKEEPER_SCHEDULER_ENABLED"`
	SkillsCron       string         `env:"PROFILEKEEPER_SKILLS_CRON" validate:"required"`
	ResumeCron       string         `env:"PROFILEKEEPER_RESUME_CRON" validate:"required"`
	Timezone         string         `env:"PROFILEKEEPER_TIMEZONE" validate:"required"`
	Location         *time.Location `validate:"-"`
	MaxJitter        time.Duration  `env:"PROFILEKEEPER_MAX_JITTER" validate:"gte=0"`

	OTPSender       string        `env:"PROFILEKEEPER_OTP_SENDER" validate:"required,email"`
	OTPSubject      string        `env:"PROFILEKEEPER_OTP_SUBJECT"`
	OTPPattern      string        `env:"PROFILEKEEPER_OTP_PATTERN" validate:"required"`
	OTPPollInterval time.Duration `env:"PROFILEKEEPER_OTP_POLL_INTERVAL" validate:"gt=0"`
	OTPPollAttempts int           `env:"PROFILEKEEPER_OTP_POLL_ATTEMPTS" validate:"min=1"`

	DBPath  string `env:"PROFILEKEEPER_DB_PATH"`
	LockDir string `env:"PROFILEKEEPER_LOCK_DIR"`
}

// JournalEnabled reports whether action runs are recorded in SQLite.
func (c *Config) JournalEnabled() bool {
	return c.DBPath != ""
}

// defaults returns the configuration used when nothing overrides a setting.
func defaults() *Config {
	return &Config{
		Mailbox:          MailboxGmail,
		IMAPAddr:         "imap.gmail.com:993",
		ListenAddr:       "0.0.0.0:3000",
		Skill:            "Bootstrap",
		ResumePath:       "resume.pdf",
		ResumeFormKey:    naukri.DefaultFormKey,
		ResumeFileKey:    naukri.DefaultFileKey,
		SchedulerEnabled: true,
		SkillsCron:       "0 9,15 * * *",
		ResumeCron:       "0 9,15 * * *",
		Timezone:         "Asia/Kolkata",
		MaxJitter:        5 * time.Minute,
		OTPSender:        "info@naukri.com",
		OTPSubject:       "Your OTP for logging in Naukri account",
		OTPPattern:       `\b\d{4,8}\b`,
		OTPPollInterval:  5 * time.Second,
		OTPPollAttempts:  100,
	}
}

// Load reads configuration and returns a validated Config. Settings are
// resolved in order: built-in defaults, the YAML file named by
// PROFILEKEEPER_CONFIG_FILE, then environment variables.
//
// Portal credentials (NAUKRI_USERNAME, NAUKRI_PASSWORD) are optional here;
// each action reports a ConfigError when they are missing. When the password
// is unset and PROFILEKEEPER_KEYRING_ACCOUNT names an account, the password is
// read from the OS keychain.
func Load() (*Config, error) {
	cfg := defaults()

	if path, ok := os.LookupEnv("PROFILEKEEPER_CONFIG_FILE"); ok && path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.Credentials.Password == "" && cfg.KeyringAccount != "" {
		pw, err := LookupPassword(cfg.KeyringAccount)
		if err != nil {
			return nil, fmt.Errorf("PROFILEKEEPER_KEYRING_ACCOUNT %q: %w", cfg.KeyringAccount, err)
		}
		cfg.Credentials.Password = pw
	}

	if cfg.ResumeFileName == "" {
		cfg.ResumeFileName = filepath.Base(cfg.ResumePath)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("PROFILEKEEPER_TIMEZONE has invalid location %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("NAUKRI_USERNAME"); ok {
		cfg.Credentials.Username = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("NAUKRI_PASSWORD"); ok {
		cfg.Credentials.Password = v
	}

	strs := map[string]*string{
		"PROFILEKEEPER_KEYRING_ACCOUNT": &cfg.KeyringAccount,
		"GMAIL_CLIENT_ID":               &cfg.GmailClientID,
		"GMAIL_CLIENT_SECRET":           &cfg.GmailClientSecret,
		"GMAIL_REFRESH_TOKEN":           &cfg.GmailRefreshToken,
		"PROFILEKEEPER_MAILBOX":         &cfg.Mailbox,
		"PROFILEKEEPER_IMAP_ADDR":       &cfg.IMAPAddr,
		"PROFILEKEEPER_IMAP_USERNAME":   &cfg.IMAPUsername,
		"PROFILEKEEPER_IMAP_PASSWORD":   &cfg.IMAPPassword,
		"PROFILEKEEPER_SKILL":           &cfg.Skill,
		"PROFILEKEEPER_RESUME_PATH":     &cfg.ResumePath,
		"PROFILEKEEPER_RESUME_FILENAME": &cfg.ResumeFileName,
		"PROFILEKEEPER_RESUME_FORM_KEY": &cfg.ResumeFormKey,
		"PROFILEKEEPER_RESUME_FILE_KEY": &cfg.ResumeFileKey,
		"PROFILEKEEPER_SKILLS_CRON":     &cfg.SkillsCron,
		"PROFILEKEEPER_RESUME_CRON":     &cfg.ResumeCron,
		"PROFILEKEEPER_TIMEZONE":        &cfg.Timezone,
		"PROFILEKEEPER_OTP_SENDER":      &cfg.OTPSender,
		"PROFILEKEEPER_OTP_SUBJECT":     &cfg.OTPSubject,
		"PROFILEKEEPER_OTP_PATTERN":     &cfg.OTPPattern,
		"PROFILEKEEPER_DB_PATH":         &cfg.DBPath,
		"PROFILEKEEPER_LOCK_DIR":        &cfg.LockDir,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		cfg.ListenAddr = net.JoinHostPort("0.0.0.0", strings.TrimSpace(v))
	}
	if v, ok := os.LookupEnv("PROFILEKEEPER_LISTEN_ADDR"); ok && v != "" {
		cfg.ListenAddr = strings.TrimSpace(v)
	}

	durations := map[string]*time.Duration{
		"PROFILEKEEPER_MAX_JITTER":        &cfg.MaxJitter,
		"PROFILEKEEPER_OTP_POLL_INTERVAL": &cfg.OTPPollInterval,
	}
	for key, dst := range durations {
		if v, ok := os.LookupEnv(key); ok {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
			}
			*dst = parsed
		}
	}

	if v, ok := os.LookupEnv("PROFILEKEEPER_OTP_POLL_ATTEMPTS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("PROFILEKEEPER_OTP_POLL_ATTEMPTS has invalid integer %q: %w", v, err)
		}
		cfg.OTPPollAttempts = n
	}

	if v, ok := os.LookupEnv("PROFILEKEEPER_SCHEDULER_ENABLED"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("PROFILEKEEPER_SCHEDULER_ENABLED has invalid boolean %q: %w", v, err)
		}
		cfg.SchedulerEnabled = b
	}

	return nil
}

var validate = func() func(*Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return func(cfg *Config) error {
		err := v.Struct(cfg)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
}()

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	case "excludesall":
		return fe.Field() + " must not contain a comma"
	default:
		return fmt.Sprintf("%s failed %q check with value %v", fe.Field(), fe.Tag(), fe.Value())
	}
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML overlay. It carries only non-secret settings;
// credentials and tokens come from the environment or the keychain.
type fileConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	Mailbox    string `yaml:"mailbox"`
	IMAP       struct {
		Addr     string `yaml:"addr"`
		Username string `yaml:"username"`
	} `yaml:"imap"`
	KeyringAccount string `yaml:"keyring_account"`

	Skill  string `yaml:"skill"`
	Resume struct {
		Path     string `yaml:"path"`
		FileName string `yaml:"file_name"`
		FormKey  string `yaml:"form_key"`
		FileKey  string `yaml:"file_key"`
	} `yaml:"resume"`

	Schedule struct {
		Enabled   *bool  `yaml:"enabled"`
		Skills    string `yaml:"skills"`
		Resume    string `yaml:"resume"`
		Timezone  string `yaml:"timezone"`
		MaxJitter string `yaml:"max_jitter"`
	} `yaml:"schedule"`

	OTP struct {
		Sender       string `yaml:"sender"`
		Subject      string `yaml:"subject"`
		Pattern      string `yaml:"pattern"`
		PollInterval string `yaml:"poll_interval"`
		PollAttempts int    `yaml:"poll_attempts"`
	} `yaml:"otp"`

	DBPath  string `yaml:"db_path"`
	LockDir string `yaml:"lock_dir"`
}

// applyFile overlays the non-empty settings of the YAML file at path onto cfg.
// Unknown keys are rejected so typos surface at startup.
func applyFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("PROFILEKEEPER_CONFIG_FILE: read %s: %w", path, err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("PROFILEKEEPER_CONFIG_FILE: parse %s: %w", path, err)
	}

	setString(&cfg.ListenAddr, fc.ListenAddr)
	setString(&cfg.Mailbox, fc.Mailbox)
	setString(&cfg.IMAPAddr, fc.IMAP.Addr)
	setString(&cfg.IMAPUsername, fc.IMAP.Username)
	setString(&cfg.KeyringAccount, fc.KeyringAccount)
	setString(&cfg.Skill, fc.Skill)
	setString(&cfg.ResumePath, fc.Resume.Path)
	setString(&cfg.ResumeFileName, fc.Resume.FileName)
	setString(&cfg.ResumeFormKey, fc.Resume.FormKey)
	setString(&cfg.ResumeFileKey, fc.Resume.FileKey)
	setString(&cfg.SkillsCron, fc.Schedule.Skills)
	setString(&cfg.ResumeCron, fc.Schedule.Resume)
	setString(&cfg.Timezone, fc.Schedule.Timezone)
	setString(&cfg.OTPSender, fc.OTP.Sender)
	setString(&cfg.OTPSubject, fc.OTP.Subject)
	setString(&cfg.OTPPattern, fc.OTP.Pattern)
	setString(&cfg.DBPath, fc.DBPath)
	setString(&cfg.LockDir, fc.LockDir)

	if fc.Schedule.Enabled != nil {
		cfg.SchedulerEnabled = *fc.Schedule.Enabled
	}
	if fc.OTP.PollAttempts != 0 {
		cfg.OTPPollAttempts = fc.OTP.PollAttempts
	}
	if err := setDuration(&cfg.MaxJitter, "schedule.max_jitter", fc.Schedule.MaxJitter); err != nil {
		return err
	}
	if err := setDuration(&cfg.OTPPollInterval, "otp.poll_interval", fc.OTP.PollInterval); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("PROFILEKEEPER_CONFIG_FILE: %s has invalid duration %q: %w", key, v, err)
	}
	*dst = d
	return nil
}

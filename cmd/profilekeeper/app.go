package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/profilekeeper/internal/adapter/driven/filelock"
	"github.com/ericfisherdev/profilekeeper/internal/adapter/driven/gmail"
	"github.com/ericfisherdev/profilekeeper/internal/adapter/driven/imapmail"
	"github.com/ericfisherdev/profilekeeper/internal/adapter/driven/naukri"
	"github.com/ericfisherdev/profilekeeper/internal/adapter/driven/resumefile"
	sqliteadapter "github.com/ericfisherdev/profilekeeper/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/profilekeeper/internal/application"
	"github.com/ericfisherdev/profilekeeper/internal/config"
	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
	"github.com/ericfisherdev/profilekeeper/internal/domain/port/driven"
)

// app is the wired object graph shared by every subcommand.
type app struct {
	cfg      *config.Config
	executor *application.ProfileExecutor
	// runs is nil when the journal is disabled.
	runs    driven.RunStore
	closers []func() error
}

// Close releases the resources opened by newApp in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Error("error releasing resource", "error", err)
		}
	}
}

// newApp wires adapters and services from cfg.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg}

	// 1. Run journal (optional).
	if cfg.JournalEnabled() {
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			a.Close()
			return nil, err
		}
		a.runs = sqliteadapter.NewRunRepo(db)
		logger.Info("run journal enabled", "path", db.Path())
	}

	// 2. Action locks: in-process always, cross-process when a lock dir is set.
	var lock driven.ActionLock = application.NewLocalActionLock()
	if cfg.LockDir != "" {
		fileLock, err := filelock.New(cfg.LockDir)
		if err != nil {
			a.Close()
			return nil, err
		}
		lock = application.ChainLocks(lock, fileLock)
		logger.Info("cross-process action locks enabled", "dir", cfg.LockDir)
	}

	// 3. Portal client.
	portalOpts := naukri.DefaultOptions()
	portalOpts.FormKey = cfg.ResumeFormKey
	portalOpts.FileKey = cfg.ResumeFileKey
	portal := naukri.NewClient(portalOpts, logger)

	// 4. OTP retrieval.
	mailbox, err := newMailbox(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	extractor, err := application.NewCodeExtractor(cfg.OTPPattern)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("PROFILEKEEPER_OTP_PATTERN: %w", err)
	}
	retriever := application.NewOTPRetriever(mailbox, extractor, logger)

	// 5. Authentication and actions.
	authCfg := application.DefaultAuthConfig()
	authCfg.OTPSender = cfg.OTPSender
	authCfg.OTPSubject = cfg.OTPSubject
	authCfg.OTPPollAttempts = cfg.OTPPollAttempts
	authCfg.OTPPollInterval = cfg.OTPPollInterval
	auth := application.NewAuthenticator(portal, retriever, authCfg, logger)

	execCfg := application.DefaultExecutorConfig()
	execCfg.Skill = cfg.Skill
	a.executor = application.NewProfileExecutor(
		portal,
		auth,
		application.NewSessionStore(),
		cfg.Credentials,
		resumefile.New(cfg.ResumePath, cfg.ResumeFileName),
		a.runs,
		lock,
		execCfg,
		logger,
	)

	return a, nil
}

// newMailbox builds the configured OTP mailbox. Missing Gmail credentials do
// not stop the process: logins without MFA still work, and a login that does
// need an OTP fails with the credential error in the log.
func newMailbox(ctx context.Context, cfg *config.Config, logger *slog.Logger) (driven.Mailbox, error) {
	switch cfg.Mailbox {
	case config.MailboxIMAP:
		return imapmail.New(imapmail.Config{
			Addr:     cfg.IMAPAddr,
			Username: cfg.IMAPUsername,
			Password: cfg.IMAPPassword,
		}, logger)
	default:
		creds := gmail.Credentials{
			ClientID:     cfg.GmailClientID,
			ClientSecret: cfg.GmailClientSecret,
			RefreshToken: cfg.GmailRefreshToken,
		}
		if err := creds.Validate(); err != nil {
			logger.Warn("gmail credentials incomplete, otp retrieval unavailable", "error", err)
			return unavailableMailbox{err: err}, nil
		}
		return gmail.New(ctx, creds, logger)
	}
}

// unavailableMailbox fails every lookup with the configuration error that
// prevented a real mailbox from being built.
type unavailableMailbox struct {
	err error
}

func (m unavailableMailbox) ListMessages(context.Context, model.MailQuery, int) ([]model.MailSummary, error) {
	return nil, m.err
}

func (m unavailableMailbox) GetMessage(context.Context, string) (model.MailMessage, error) {
	return model.MailMessage{}, m.err
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httphandler "github.com/ericfisherdev/profilekeeper/internal/adapter/driving/http"
	"github.com/ericfisherdev/profilekeeper/internal/application"
	"github.com/ericfisherdev/profilekeeper/internal/config"
	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP endpoints and the action scheduler",
	Long: "Serves /stats, /update-skills, /reupload-resume and /runs, and fires both actions on their " +
		"cron schedules (with random jitter) until interrupted.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	// 1. Load configuration (fail fast on malformed settings).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.Default()
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"mailbox", cfg.Mailbox,
		"skill", cfg.Skill,
		"resume", cfg.ResumePath,
		"scheduler_enabled", cfg.SchedulerEnabled,
		"journal", cfg.JournalEnabled(),
		"credentials", cfg.Credentials,
	)
	if err := cfg.Credentials.Validate(); err != nil {
		logger.Warn("portal credentials incomplete, every action will fail until they are set", "error", err)
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire adapters and services.
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	// 4. Scheduler.
	var scheduler *application.Scheduler
	if cfg.SchedulerEnabled {
		scheduler = application.NewScheduler(a.executor, cfg.Location, cfg.MaxJitter, logger)
		if err := scheduler.Register(model.ActionUpdateSkills, cfg.SkillsCron); err != nil {
			return err
		}
		if err := scheduler.Register(model.ActionReuploadResume, cfg.ResumeCron); err != nil {
			return err
		}
	} else {
		logger.Info("scheduler disabled")
	}

	// 5. HTTP facade.
	handler := httphandler.NewHandler(a.executor, a.runs, time.Now(), logger)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(handler, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// An action may wait out a full OTP poll before it answers.
		WriteTimeout: cfg.OTPPollInterval*time.Duration(cfg.OTPPollAttempts) + 2*time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if scheduler != nil {
		g.Go(func() error {
			scheduler.Start(gCtx)
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	logger.Info("profilekeeper started", "listen_addr", cfg.ListenAddr)

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/teemow/slotbook/internal/booking"
	"github.com/teemow/slotbook/internal/calendar"
	"github.com/teemow/slotbook/internal/config"
	"github.com/teemow/slotbook/internal/google"
	"github.com/teemow/slotbook/internal/instrumentation"
)

// app wires the Google session, the calendar client and the scheduler
// from one validated configuration.
type app struct {
	cfg       *config.Config
	session   *google.Session
	calendar  *calendar.Client
	scheduler *booking.Scheduler
}

// loadConfig reads the dotenv file and environment and validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp builds the application. metrics may be nil.
func newApp(cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}

	oauthConf, err := google.LoadOAuthConfig(cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}

	session, err := google.NewSession(google.SessionConfig{
		OAuth:     oauthConf,
		TokenPath: cfg.TokenPath,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google session: %w", err)
	}

	calCfg := cfg.CalendarConfig()
	calCfg.Metrics = metrics
	calCfg.Logger = logger
	cal, err := calendar.NewClient(session, calCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	codec, err := cfg.Codec()
	if err != nil {
		return nil, err
	}

	scheduler, err := booking.NewScheduler(cal, session, booking.Config{
		OrganizerEmail: cfg.AdminEmail,
		Codec:          codec,
	}, booking.WithLogger(logger), booking.WithMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &app{
		cfg:       cfg,
		session:   session,
		calendar:  cal,
		scheduler: scheduler,
	}, nil
}

// Close releases the session's cached client.
func (a *app) Close() {
	a.session.Close()
}

// setupApp is the shared entry point for the one-shot commands.
func setupApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg, nil, nil)
}

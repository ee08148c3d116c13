package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/teemow/slotbook/internal/calendar"
	"github.com/teemow/slotbook/internal/google"
	"github.com/teemow/slotbook/internal/slot"
)

// Environment variables read by Load.
const (
	EnvCredentialsPath = "CREDENTIALS_PATH"
	EnvTokenPath       = "TOKEN_PATH"
	EnvAdminEmail      = "ADMIN_EMAIL"
	EnvCalendarID      = "CALENDAR_ID"
	EnvLocalTimezone   = "LOCAL_TIMEZONE"
	EnvSlotLabel       = "SLOT_LABEL"
	EnvBreakerFailures = "CALENDAR_BREAKER_FAILURES"
	EnvBreakerTimeout  = "CALENDAR_BREAKER_TIMEOUT"
)

const (
	DefaultCredentialsPath = "credentials.json"
	DefaultBreakerFailures = 5
	DefaultBreakerTimeout  = 30 * time.Second
)

// Config holds slotbook settings.
type Config struct {
	// CredentialsPath is the Google OAuth client secrets JSON.
	CredentialsPath string
	// TokenPath is where the OAuth token is persisted.
	TokenPath string

	// AdminEmail organizes every booking.
	AdminEmail string
	CalendarID string

	// LocalTimezone is the IANA zone slot strings are rendered in.
	LocalTimezone string
	// SlotLabel is the literal suffix of every slot string.
	SlotLabel string

	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Load reads the given dotenv files (".env" when none are given), then the
// environment. Variables already set in the environment win over the files.
// A missing dotenv file is not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	failures, err := getUintEnv(EnvBreakerFailures, DefaultBreakerFailures)
	if err != nil {
		return nil, err
	}
	timeout, err := getDurationEnv(EnvBreakerTimeout, DefaultBreakerTimeout)
	if err != nil {
		return nil, err
	}

	return &Config{
		CredentialsPath: getEnvOrDefault(EnvCredentialsPath, DefaultCredentialsPath),
		TokenPath:       getEnvOrDefault(EnvTokenPath, google.DefaultTokenPath()),
		AdminEmail:      strings.TrimSpace(os.Getenv(EnvAdminEmail)),
		CalendarID:      getEnvOrDefault(EnvCalendarID, calendar.DefaultCalendarID),
		LocalTimezone:   getEnvOrDefault(EnvLocalTimezone, slot.DefaultZone),
		SlotLabel:       getEnvOrDefault(EnvSlotLabel, slot.DefaultLabel),
		BreakerFailures: failures,
		BreakerTimeout:  timeout,
	}, nil
}

// Validate reports settings that make every operation fail.
func (c *Config) Validate() error {
	if c.CredentialsPath == "" {
		return fmt.Errorf("%s cannot be empty", EnvCredentialsPath)
	}
	if c.TokenPath == "" {
		return fmt.Errorf("%s cannot be empty", EnvTokenPath)
	}
	if strings.TrimSpace(c.SlotLabel) == "" {
		return fmt.Errorf("%s cannot be empty", EnvSlotLabel)
	}
	loc, err := c.Location()
	if err != nil {
		return err
	}
	if !slot.FixedOffset(loc, time.Now()) {
		return fmt.Errorf("%s %q observes daylight saving; slot strings need a zone with a fixed UTC offset",
			EnvLocalTimezone, c.LocalTimezone)
	}
	if c.BreakerFailures == 0 {
		return fmt.Errorf("%s must be positive", EnvBreakerFailures)
	}
	if c.BreakerTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvBreakerTimeout)
	}
	return nil
}

// RequireAdminEmail reports a missing or malformed organizer address.
// Only booking needs one.
func (c *Config) RequireAdminEmail() error {
	if c.AdminEmail == "" {
		return fmt.Errorf("%s is required for booking", EnvAdminEmail)
	}
	if at := strings.Index(c.AdminEmail, "@"); at <= 0 || at == len(c.AdminEmail)-1 {
		return fmt.Errorf("%s is not an email address: %q", EnvAdminEmail, c.AdminEmail)
	}
	return nil
}

// Location loads the configured local zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.LocalTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvLocalTimezone, c.LocalTimezone, err)
	}
	return loc, nil
}

// Codec returns the slot codec for the configured zone and label.
func (c *Config) Codec() (*slot.Codec, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return slot.NewCodec(loc, c.SlotLabel), nil
}

// CalendarConfig returns the calendar client settings. Metrics and logger
// are left for the caller.
func (c *Config) CalendarConfig() calendar.Config {
	return calendar.Config{
		CalendarID:      c.CalendarID,
		BreakerFailures: c.BreakerFailures,
		BreakerTimeout:  c.BreakerTimeout,
	}
}

// getEnvOrDefault returns the environment variable value or a default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getUintEnv(key string, defaultValue uint32) (uint32, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return uint32(n), nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

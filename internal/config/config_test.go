package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	EnvCredentialsPath, EnvTokenPath, EnvAdminEmail, EnvCalendarID,
	EnvLocalTimezone, EnvSlotLabel, EnvBreakerFailures, EnvBreakerTimeout,
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allVars {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultCredentialsPath, cfg.CredentialsPath)
	assert.NotEmpty(t, cfg.TokenPath)
	assert.Empty(t, cfg.AdminEmail)
	assert.Equal(t, "primary", cfg.CalendarID)
	assert.Equal(t, "America/Mexico_City", cfg.LocalTimezone)
	assert.Equal(t, "CDT", cfg.SlotLabel)
	assert.Equal(t, uint32(DefaultBreakerFailures), cfg.BreakerFailures)
	assert.Equal(t, DefaultBreakerTimeout, cfg.BreakerTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvCredentialsPath, "/etc/slotbook/client.json")
	t.Setenv(EnvTokenPath, "/var/lib/slotbook/token.json")
	t.Setenv(EnvAdminEmail, " admin@example.com ")
	t.Setenv(EnvCalendarID, "team@group.calendar.google.com")
	t.Setenv(EnvLocalTimezone, "America/Chicago")
	t.Setenv(EnvSlotLabel, "CT")
	t.Setenv(EnvBreakerFailures, "3")
	t.Setenv(EnvBreakerTimeout, "1m")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, &Config{
		CredentialsPath: "/etc/slotbook/client.json",
		TokenPath:       "/var/lib/slotbook/token.json",
		AdminEmail:      "admin@example.com",
		CalendarID:      "team@group.calendar.google.com",
		LocalTimezone:   "America/Chicago",
		SlotLabel:       "CT",
		BreakerFailures: 3,
		BreakerTimeout:  time.Minute,
	}, cfg)

	cal := cfg.CalendarConfig()
	assert.Equal(t, "team@group.calendar.google.com", cal.CalendarID)
	assert.Equal(t, uint32(3), cal.BreakerFailures)
	assert.Equal(t, time.Minute, cal.BreakerTimeout)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSlotLabel, "FROM-ENV")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ADMIN_EMAIL=file@example.com\nSLOT_LABEL=FROM-FILE\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file@example.com", cfg.AdminEmail)
	assert.Equal(t, "FROM-ENV", cfg.SlotLabel, "environment wins over the file")
}

func TestLoad_InvalidNumbers(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{EnvBreakerFailures, "many"},
		{EnvBreakerFailures, "-1"},
		{EnvBreakerTimeout, "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(missingEnvFile(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			CredentialsPath: "credentials.json",
			TokenPath:       "token.json",
			CalendarID:      "primary",
			LocalTimezone:   "America/Mexico_City",
			SlotLabel:       "CDT",
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad zone", func(c *Config) { c.LocalTimezone = "Mars/Olympus" }, EnvLocalTimezone},
		{"daylight saving zone", func(c *Config) { c.LocalTimezone = "America/Chicago" }, "daylight saving"},
		{"utc", func(c *Config) { c.LocalTimezone = "UTC" }, ""},
		{"empty label", func(c *Config) { c.SlotLabel = " " }, EnvSlotLabel},
		{"no credentials", func(c *Config) { c.CredentialsPath = "" }, EnvCredentialsPath},
		{"no token path", func(c *Config) { c.TokenPath = "" }, EnvTokenPath},
		{"zero failures", func(c *Config) { c.BreakerFailures = 0 }, EnvBreakerFailures},
		{"zero timeout", func(c *Config) { c.BreakerTimeout = 0 }, EnvBreakerTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_RequireAdminEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"admin@example.com", false},
		{"", true},
		{"admin", true},
		{"@example.com", true},
		{"admin@", true},
	}

	for _, tt := range tests {
		cfg := &Config{AdminEmail: tt.email}
		err := cfg.RequireAdminEmail()
		if tt.wantErr {
			assert.Error(t, err, tt.email)
		} else {
			assert.NoError(t, err, tt.email)
		}
	}
}

func TestConfig_Codec(t *testing.T) {
	cfg := &Config{LocalTimezone: "America/Mexico_City", SlotLabel: "CDT"}

	codec, err := cfg.Codec()
	require.NoError(t, err)
	assert.Equal(t, "America/Mexico_City", codec.Location().String())
	assert.Equal(t, "CDT", codec.Label())

	cfg.LocalTimezone = "Nowhere/Land"
	_, err = cfg.Codec()
	assert.Error(t, err)
}

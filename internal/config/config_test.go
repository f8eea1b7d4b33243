package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the presign and secret checks read.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"APP_ENV", "DEV_ALLOW_PRESIGN", "SESSION_SECRET", "JWT_SECRET"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultsKeepPresignGated(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Empty(t, cfg.AppEnv)
	assert.False(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.PresignBypass())
	assert.Equal(t, DevSessionSecret, cfg.SessionSecret)
	assert.Equal(t, DevJWTSecret, cfg.JWTSecret)
	assert.NoError(t, cfg.Validate())
}

func TestPresignBypass(t *testing.T) {
	tests := []struct {
		name     string
		appEnv   string
		allow    string
		expected bool
	}{
		{"development env", "development", "", true},
		{"explicit flag", "", "true", true},
		{"explicit flag off", "development", "false", true},
		{"production", "production", "", false},
		{"production with flag", "production", "true", true},
		{"invalid flag", "", "maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", tt.appEnv)
			t.Setenv("DEV_ALLOW_PRESIGN", tt.allow)

			assert.Equal(t, tt.expected, Load().PresignBypass())
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("production rejects default session secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "jwt")

		err := Load().Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SESSION_SECRET")
	})

	t.Run("production rejects default jwt secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("SESSION_SECRET", "session")

		err := Load().Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("production with secrets", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("SESSION_SECRET", "session")
		t.Setenv("JWT_SECRET", "jwt")

		cfg := Load()
		assert.NoError(t, cfg.Validate())
		assert.True(t, cfg.IsProduction())
	})
}

func TestGetDuration(t *testing.T) {
	t.Setenv("REMOTE_TIMEOUT", "3s")
	t.Setenv("STORAGE_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, "3s", cfg.RemoteTimeout.String())
	assert.Equal(t, "10s", cfg.StorageTimeout.String())
}

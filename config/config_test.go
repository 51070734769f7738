package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 30, cfg.Scheduling.SlotDurationMinutes)
	assert.Equal(t, "00:00", cfg.Scheduling.GridOrigin)
	assert.Equal(t, 3, cfg.Scheduling.AutoAssignAttempts)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	assert.True(t, cfg.JWT.CheckRevocation)
	assert.False(t, cfg.DB.AutoMigrate)
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"JWT_SECRET=from-file\nSLOT_DURATION_MINUTES=15\nSLOT_GRID_ORIGIN=09:00\nDB_NAME=clinic\n",
	), 0o600))
	t.Setenv("SLOT_DURATION_MINUTES", "20")

	cfg, err := load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 20, cfg.Scheduling.SlotDurationMinutes)
	assert.Equal(t, "09:00", cfg.Scheduling.GridOrigin)
	assert.Equal(t, "clinic", cfg.DB.Name)
	assert.Contains(t, cfg.DB.DSN(), "dbname=clinic")
	assert.Contains(t, cfg.DB.MigrateURL(), "pgx5://")
}

func TestLoad_Validation(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := load(missing)
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("SLOT_DURATION_MINUTES", "0")
		_, err := load(missing)
		assert.Error(t, err)
	})

	t.Run("bad attempts", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("AUTO_ASSIGN_ATTEMPTS", "0")
		_, err := load(missing)
		assert.Error(t, err)
	})
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestInitialize_MissingDirFallsBackToDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Workers, cfg.Workers)
	assert.Equal(t, dir, cfg.ConfigDir())
}

func TestInitialize_ParsesConfigYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
max_tickets_per_run: 5
auto_create_ticket: true
workers: 8
rate_per_second: 2.5
cache_backend: file
`)
	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxTicketsPerRun)
	assert.True(t, cfg.AutoCreateTicket)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 2.5, cfg.RatePerSecond)
	assert.Equal(t, "file", cfg.CacheBackend)
	// Fields the file omits keep their documented defaults.
	assert.Equal(t, DefaultConfig().SearchWindowDays, cfg.SearchWindowDays)
}

func TestInitialize_LocalOverlayOverridesBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "workers: 3\nauto_create_ticket: false\n")
	writeFile(t, dir, "config.local.yaml", "auto_create_ticket: true\n")

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.AutoCreateTicket)
}

func TestInitialize_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRIAGE_SOURCE_LABEL", "payments-log")
	writeFile(t, dir, "config.yaml", "source_label: \"${TRIAGE_SOURCE_LABEL}\"\n")

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "payments-log", cfg.SourceLabel)
}

func TestInitialize_InvalidYAMLFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "workers: [this is not an int\n")

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
}

func TestInitialize_RejectsOutOfRangeValue(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "workers: 99\n")

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "workers", ve.Field)
}

func TestInitialize_CommentCooldownMinutesToDuration(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "comment_cooldown_minutes: 15\n")

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.CommentCooldown)
}

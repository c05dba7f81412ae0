package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, SemesterConventionCalendar, cfg.Recap.SemesterConvention)
	assert.Equal(t, 5*time.Minute, cfg.Recap.CacheTTL)
	assert.Equal(t, 3, cfg.Artifacts.WorkerRetries)
}

func TestLoadReadsEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RECAP_SEMESTER_CONVENTION", "Academic")
	t.Setenv("RECAP_CACHE_TTL", "90s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SemesterConventionAcademic, cfg.Recap.SemesterConvention)
	assert.Equal(t, 90*time.Second, cfg.Recap.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Mars/Olympus"}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Timezone = "Asia/Jakarta"
	assert.Equal(t, "Asia/Jakarta", cfg.Location().String())
}

// chdirTemp keeps a developer's local .env out of the test.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fbscrape/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Len(t, cfg.Pages, 12)
	assert.Equal(t, "/clubwu5/events/", cfg.ResolvePage("wu5"))
	assert.Equal(t, "/clubbaerenzwinger/events/", cfg.ResolvePage("bärenzwinger"))
	assert.Equal(t, 30*time.Second, cfg.Timeout())
}

func TestResolvePagePassthrough(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, "/SomeClub/events/", cfg.ResolvePage("/SomeClub/events/"))
	assert.Equal(t, "https://mbasic.facebook.com/x/events/", cfg.ResolvePage("https://mbasic.facebook.com/x/events/"))
}

func TestPageNamesSorted(t *testing.T) {
	cfg := &config.Config{Pages: map[string]string{
		"wu5":   "/clubwu5/events/",
		"aqua":  "/AquaDD/events/",
		"gag18": "/KellerklubGAG18eV/events/",
	}}
	assert.Equal(t, []string{"aqua", "gag18", "wu5"}, cfg.PageNames())
}

func TestLoadFirstRunCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fbscrape", "config.yaml")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Pages, 12)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user_agent: custom/1.0\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom/1.0", cfg.UserAgent)
	assert.Len(t, cfg.Pages, 12)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n\t- nope"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsEmptyPath(t *testing.T) {
	_, err := config.Load("")
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := config.DefaultConfig()
	cfg.Pages = map[string]string{"keller": "/kellerklub/events/"}
	cfg.TimeoutSeconds = 45
	cfg.MetricsListen = "127.0.0.1:9185"
	require.NoError(t, cfg.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, 45*time.Second, loaded.Timeout())
}

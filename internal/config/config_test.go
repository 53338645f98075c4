package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calgrid.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "month", cfg.Mode)
	require.Equal(t, "stack", cfg.OverlapMode)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calgrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: week\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "week", cfg.Mode)
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, cfg.Weekdays)
	require.Equal(t, "start", cfg.Fields.Start)
	require.Equal(t, 1, cfg.Category.Days)
	require.Equal(t, 60, cfg.SingleLineMinutes)
}

func TestLoadRejectsInvalidMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calgrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: fortnight\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsInvalidWeekday(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calgrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weekdays: [1, 9]\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsICSSourceWithoutURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calgrid.yaml")
	body := "ics:\n  - id: feed\n    name: Feed\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calgrid.yaml")

	cfg := DefaultConfig()
	cfg.Mode = "category"
	cfg.Category.Days = 2
	cfg.Category.List = []string{"Work", "Home"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "category", loaded.Mode)
	require.Equal(t, 2, loaded.Category.Days)
	require.Equal(t, []string{"Work", "Home"}, loaded.Category.List)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
}

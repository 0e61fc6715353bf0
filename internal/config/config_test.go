package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veighnsche/darkwall/pkg/types"
)

const validYAML = `
service:
  base_url: "http://127.0.0.1:8188"
  timeout: 120
  poll_interval: 3
monitors:
  DP-1:
    resolution: "3840x2160"
    output: "/home/user/.cache/darkwall/DP-1.png"
    command: "swaybg"
themes:
  dark:
    workflow_prefix: "dark"
    default_template: "default.prompt"
schedule:
  latitude: 52.37
  longitude: 4.89
  timezone: "Europe/Amsterdam"
  day_themes:
    - name: dark
      weight: 1.0
prompt:
  time_slot_minutes: 30
  use_monitor_seed: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "darkwall.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8188", cfg.Service.BaseURL)
	assert.Equal(t, 120, cfg.Service.Timeout)
	assert.Equal(t, 3, cfg.Service.PollInterval)
	require.Len(t, cfg.Monitors, 1)
	assert.Equal(t, "DP-1", cfg.Monitors[0].Name)
	assert.Equal(t, "3840x2160", cfg.Monitors[0].Resolution)
	require.Len(t, cfg.Themes, 1)
	assert.Equal(t, "dark", cfg.Themes[0].WorkflowPrefix)
	require.NotNil(t, cfg.Schedule.Latitude)
	assert.InDelta(t, 52.37, *cfg.Schedule.Latitude, 0.001)
}

func TestLoadSortsMonitorNamesForStableRotationOrder(t *testing.T) {
	path := writeConfig(t, `
service:
  base_url: "http://127.0.0.1:8188"
monitors:
  DP-2:
    resolution: "1920x1080"
    output: "/tmp/dp2.png"
  DP-1:
    resolution: "3840x2160"
    output: "/tmp/dp1.png"
  HDMI-A-1:
    resolution: "2560x1440"
    output: "/tmp/hdmi.png"
themes:
  dark:
    workflow_prefix: "dark"
`)
	var order []string
	for i := 0; i < 5; i++ {
		cfg, err := Load(path)
		require.NoError(t, err)
		order = cfg.MonitorNames()
		assert.Equal(t, []string{"DP-1", "DP-2", "HDMI-A-1"}, order)
	}
	assert.Equal(t, []string{"DP-1", "DP-2", "HDMI-A-1"}, order)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
service:
  base_url: "http://127.0.0.1:8188"
monitors:
  DP-1:
    resolution: "1920x1080"
    output: "/tmp/out.png"
themes:
  dark:
    workflow_prefix: "dark"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, cfg.Service.Timeout)
	assert.Equal(t, defaultPollInterval, cfg.Service.PollInterval)
	assert.Equal(t, defaultTimeSlotMinutes, cfg.TimeSlotMinutes)
	assert.True(t, cfg.UseMonitorSeed)
}

func TestLoadDefaultsContentRootsToConfigDirectory(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "atoms"), cfg.AtomsRoot)
	assert.Equal(t, filepath.Join(dir, "prompts"), cfg.PromptsRoot)
	assert.Equal(t, dir, cfg.ConfigRoot)
}

func TestLoadRejectsMissingBaseURL(t *testing.T) {
	path := writeConfig(t, `
monitors:
  DP-1:
    resolution: "1920x1080"
    output: "/tmp/out.png"
themes:
  dark:
    workflow_prefix: "dark"
service: {}
`)
	_, err := Load(path)
	require.Error(t, err)
	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrConfigInvalid, code)
}

func TestLoadRejectsDeprecatedArrayStyleMonitors(t *testing.T) {
	path := writeConfig(t, `
service:
  base_url: "http://127.0.0.1:8188"
monitors:
  - name: DP-1
    resolution: "1920x1080"
themes:
  dark:
    workflow_prefix: "dark"
`)
	_, err := Load(path)
	require.Error(t, err)
	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrConfigInvalid, code)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, `
service:
  base_url: "http://127.0.0.1:8188"
  monitor_count: 2
monitors:
  DP-1:
    resolution: "1920x1080"
    output: "/tmp/out.png"
themes:
  dark:
    workflow_prefix: "dark"
`)
	_, err := Load(path)
	require.Error(t, err)
	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrConfigInvalid, code)
}

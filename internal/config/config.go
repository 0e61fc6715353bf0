// Package config loads, schema-validates, and type-converts the darkwall
// YAML configuration file into the immutable value tree pkg/pipeline
// consumes for a run.
package config

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"
	"github.com/veighnsche/darkwall/pkg/types"
	"gopkg.in/yaml.v3"
)

// Service holds the remote generation service's connection parameters.
type Service struct {
	BaseURL      string
	Timeout      int
	PollInterval int
}

// MonitorConfig is one monitor's declared binding, the config-layer
// counterpart of types.MonitorBinding.
type MonitorConfig struct {
	Name       string
	Resolution string
	Output     string
	Command    string
	Templates  []string
}

// ThemeConfig is one theme's declared content root and workflow prefix.
type ThemeConfig struct {
	Name            string
	WorkflowPrefix  string
	DefaultTemplate string
}

// WorkflowConfig is one workflow id's declared template allowlist.
type WorkflowConfig struct {
	Prompts []string
}

// Config is the immutable, validated value tree a pipeline run borrows.
type Config struct {
	Service         Service
	Monitors        []MonitorConfig
	Themes          []ThemeConfig
	Workflows       map[string]WorkflowConfig
	Schedule        types.Schedule
	TimeSlotMinutes int
	UseMonitorSeed  bool

	AtomsRoot   string
	PromptsRoot string
	ConfigRoot  string
	StatePath   string
	HistoryPath string
}

const (
	defaultTimeout         = 300
	defaultPollInterval    = 5
	defaultTimeSlotMinutes = 30
	defaultUseMonitorSeed  = true
)

// Load reads the YAML file at path via Viper, validates the decoded
// value tree against the embedded JSON Schema (rejecting deprecated
// array-style keys and unknown fields), and converts it to a Config.
// Every failure here is ErrConfigInvalid.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("service.timeout", defaultTimeout)
	v.SetDefault("service.poll_interval", defaultPollInterval)
	v.SetDefault("prompt.time_slot_minutes", defaultTimeSlotMinutes)
	v.SetDefault("prompt.use_monitor_seed", defaultUseMonitorSeed)
	v.SetDefault("schedule.blend_duration_minutes", 30)

	if err := v.ReadInConfig(); err != nil {
		return nil, types.Wrap(types.ErrConfigInvalid, "config.Load", err)
	}

	raw := v.AllSettings()
	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, types.Wrap(types.ErrConfigInvalid, "config.Load", err)
	}
	if err := validator.Validate(raw); err != nil {
		return nil, types.Wrap(types.ErrConfigInvalid, "config.Load", err)
	}

	cfg, err := fromViper(v)
	if err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	if cfg.AtomsRoot == "" {
		cfg.AtomsRoot = filepath.Join(configDir, "atoms")
	}
	if cfg.PromptsRoot == "" {
		cfg.PromptsRoot = filepath.Join(configDir, "prompts")
	}
	if cfg.ConfigRoot == "" {
		cfg.ConfigRoot = configDir
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Service: Service{
			BaseURL:      v.GetString("service.base_url"),
			Timeout:      v.GetInt("service.timeout"),
			PollInterval: v.GetInt("service.poll_interval"),
		},
		Workflows:       make(map[string]WorkflowConfig),
		TimeSlotMinutes: v.GetInt("prompt.time_slot_minutes"),
		UseMonitorSeed:  v.GetBool("prompt.use_monitor_seed"),
		AtomsRoot:       v.GetString("atoms_root"),
		PromptsRoot:     v.GetString("prompts_root"),
		ConfigRoot:      v.GetString("config_root"),
		StatePath:       v.GetString("state_path"),
		HistoryPath:     v.GetString("history_path"),
	}

	if cfg.Service.BaseURL == "" {
		return nil, types.NewError(types.ErrConfigInvalid, "config.fromViper", "service.base_url is required")
	}

	// Viper lower-cases map keys, but monitor names are compositor output
	// names ("DP-1") that must keep their spelling, so they are read from
	// the file itself; viper lookups below are case-insensitive.
	var original struct {
		Monitors map[string]any `yaml:"monitors"`
	}
	if raw, err := os.ReadFile(v.ConfigFileUsed()); err == nil {
		_ = yaml.Unmarshal(raw, &original)
	}
	monitorNames := make([]string, 0, len(original.Monitors))
	for name := range original.Monitors {
		monitorNames = append(monitorNames, name)
	}
	if len(monitorNames) == 0 {
		for name := range v.GetStringMap("monitors") {
			monitorNames = append(monitorNames, name)
		}
	}
	sort.Strings(monitorNames)
	for _, name := range monitorNames {
		prefix := "monitors." + name + "."
		cfg.Monitors = append(cfg.Monitors, MonitorConfig{
			Name:       name,
			Resolution: v.GetString(prefix + "resolution"),
			Output:     v.GetString(prefix + "output"),
			Command:    v.GetString(prefix + "command"),
			Templates:  v.GetStringSlice(prefix + "templates"),
		})
	}

	themesRaw := v.GetStringMap("themes")
	themeNames := make([]string, 0, len(themesRaw))
	for name := range themesRaw {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)
	for _, name := range themeNames {
		prefix := "themes." + name + "."
		cfg.Themes = append(cfg.Themes, ThemeConfig{
			Name:            name,
			WorkflowPrefix:  v.GetString(prefix + "workflow_prefix"),
			DefaultTemplate: v.GetString(prefix + "default_template"),
		})
	}

	workflowsRaw := v.GetStringMap("workflows")
	for id := range workflowsRaw {
		cfg.Workflows[id] = WorkflowConfig{
			Prompts: v.GetStringSlice("workflows." + id + ".prompts"),
		}
	}

	cfg.Schedule = scheduleFromViper(v)

	return cfg, nil
}

func scheduleFromViper(v *viper.Viper) types.Schedule {
	sched := types.Schedule{
		Timezone:             v.GetString("schedule.timezone"),
		SunriseTime:          v.GetString("schedule.sunrise_time"),
		SunsetTime:           v.GetString("schedule.sunset_time"),
		BlendDurationMinutes: v.GetInt("schedule.blend_duration_minutes"),
	}
	if v.IsSet("schedule.latitude") {
		lat := v.GetFloat64("schedule.latitude")
		sched.Latitude = &lat
	}
	if v.IsSet("schedule.longitude") {
		lon := v.GetFloat64("schedule.longitude")
		sched.Longitude = &lon
	}
	sched.DayThemes = weightedThemesFromViper(v, "schedule.day_themes")
	sched.NightThemes = weightedThemesFromViper(v, "schedule.night_themes")
	return sched
}

func weightedThemesFromViper(v *viper.Viper, key string) []types.WeightedTheme {
	raw, ok := v.Get(key).([]any)
	if !ok {
		return nil
	}
	var list []types.WeightedTheme
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		weight, _ := m["weight"].(float64)
		list = append(list, types.WeightedTheme{Name: name, Weight: weight})
	}
	return list
}

// MonitorNames returns the configured monitor names in lexical order.
// Monitors are decoded from a YAML map, whose key order Go's map
// iteration does not preserve across processes; fromViper sorts them
// before building cfg.Monitors so two invocations of the same config
// file always produce the same configured_monitors order for
// pkg/rotation (spec §8).
func (c *Config) MonitorNames() []string {
	names := make([]string, 0, len(c.Monitors))
	for _, m := range c.Monitors {
		names = append(names, m.Name)
	}
	return names
}

// Monitor returns the declared MonitorConfig for name, if any.
func (c *Config) Monitor(name string) (MonitorConfig, bool) {
	for _, m := range c.Monitors {
		if m.Name == name {
			return m, true
		}
	}
	return MonitorConfig{}, false
}

// Theme returns the declared ThemeConfig for name, if any.
func (c *Config) Theme(name string) (ThemeConfig, bool) {
	for _, t := range c.Themes {
		if t.Name == name {
			return t, true
		}
	}
	return ThemeConfig{}, false
}

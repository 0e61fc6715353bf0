package types

import "time"

// Monitor is a named display output discovered from the compositor.
// Identity is Name; it is never persisted beyond rotation cursor
// references.
type Monitor struct {
	Name       string
	Resolution string // "WxH"
}

// MonitorBinding is the user-declared binding of a monitor name to its
// output path, optional setter command, and optional template allowlist.
type MonitorBinding struct {
	Name      string
	Output    string
	Command   string
	Templates []string
}

// Theme is a named content bundle: an atoms subtree and a prompts subtree.
type Theme struct {
	Name            string
	AtomsRoot       string
	PromptsRoot     string
	DefaultTemplate string
	WorkflowPrefix  string
}

// WorkflowID returns the "{prefix}-{WxH}" identifier for this theme at
// the given monitor resolution.
func (t Theme) WorkflowID(resolution string) string {
	return t.WorkflowPrefix + "-" + resolution
}

// PromptResult is the output of template resolution: the resolved text of
// every parsed section, keyed by section name, split into positive and
// negative maps, plus the seed that produced them.
type PromptResult struct {
	Prompts   map[string]string
	Negatives map[string]string
	Seed      uint64
}

// Negative returns the negative text for name, or "" if none was produced.
func (p PromptResult) Negative(name string) string {
	if p.Negatives == nil {
		return ""
	}
	return p.Negatives[name]
}

// WeightedTheme is one entry of a schedule's day_themes/night_themes list.
type WeightedTheme struct {
	Name   string
	Weight float64
}

// Schedule is the declarative solar/manual blending configuration.
type Schedule struct {
	Latitude              *float64
	Longitude             *float64
	Timezone              string
	SunriseTime           string // "HH:MM" manual override, local zone
	SunsetTime            string
	DayThemes             []WeightedTheme
	NightThemes           []WeightedTheme
	BlendDurationMinutes  int
}

// RotationState is the persisted named-monitor cursor.
type RotationState struct {
	Cursor      *string
	LastServed  map[string]time.Time
}

// Phase describes where "now" falls relative to the day/blend/night
// schedule, used by status reporting.
type Phase string

const (
	PhaseDay   Phase = "day"
	PhaseBlend Phase = "blend"
	PhaseNight Phase = "night"
)

// Package schedule implements the solar-driven theme scheduler: it picks
// the active theme for an instant, blending day and night theme lists
// across a window around sunrise and sunset.
package schedule

import (
	"math/rand"
	"sort"
	"time"

	"github.com/veighnsche/darkwall/pkg/seed"
	"github.com/veighnsche/darkwall/pkg/types"
)

const defaultBlendMinutes = 30

// Scheduler samples theme names from a types.Schedule.
type Scheduler struct {
	sched types.Schedule
}

// New returns a Scheduler for sched.
func New(sched types.Schedule) *Scheduler {
	return &Scheduler{sched: sched}
}

func (s *Scheduler) blendDuration() time.Duration {
	minutes := s.sched.BlendDurationMinutes
	if minutes <= 0 {
		minutes = defaultBlendMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// boundaries returns today's sunrise and sunset instants for now's local
// date, honoring manual HH:MM overrides before falling back to solar
// geometry.
func (s *Scheduler) boundaries(now time.Time) (sunrise, sunset time.Time, err error) {
	loc := now.Location()
	if s.sched.Timezone != "" {
		l, e := time.LoadLocation(s.sched.Timezone)
		if e != nil {
			return time.Time{}, time.Time{}, types.Wrap(types.ErrScheduleError, "schedule.boundaries", e)
		}
		loc = l
	}
	local := now.In(loc)

	var computedSunrise, computedSunset time.Time
	var haveComputed bool
	if s.sched.Latitude != nil && s.sched.Longitude != nil {
		sr, ss, ok := sunTimes(local, *s.sched.Latitude, *s.sched.Longitude, loc)
		if !ok {
			return time.Time{}, time.Time{}, types.NewError(types.ErrScheduleError, "schedule.boundaries",
				"sun does not cross the civil horizon at this latitude/date")
		}
		computedSunrise, computedSunset, haveComputed = sr, ss, true
	}

	sunrise, err = s.resolveBoundary(s.sched.SunriseTime, computedSunrise, haveComputed, local, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	sunset, err = s.resolveBoundary(s.sched.SunsetTime, computedSunset, haveComputed, local, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return sunrise, sunset, nil
}

func (s *Scheduler) resolveBoundary(manual string, computed time.Time, haveComputed bool, local time.Time, loc *time.Location) (time.Time, error) {
	if manual != "" {
		t, err := time.ParseInLocation("15:04", manual, loc)
		if err != nil {
			return time.Time{}, types.Wrap(types.ErrScheduleError, "schedule.resolveBoundary", err)
		}
		return time.Date(local.Year(), local.Month(), local.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
	}
	if haveComputed {
		return computed, nil
	}
	return time.Time{}, types.NewError(types.ErrScheduleError, "schedule.resolveBoundary",
		"no manual time and no latitude/longitude configured for solar computation")
}

// Mixture is a probability distribution over theme names.
type Mixture map[string]float64

// Status reports the schedule phase and sampling mixture for now, for
// status-reporting consumers (spec §4.4 auxiliary).
func (s *Scheduler) Status(now time.Time) (types.Phase, Mixture, error) {
	sunrise, sunset, err := s.boundaries(now)
	if err != nil {
		return "", nil, err
	}
	B := s.blendDuration()

	sunriseWindowStart, sunriseWindowEnd := sunrise.Add(-B), sunrise.Add(B)
	sunsetWindowStart, sunsetWindowEnd := sunset.Add(-B), sunset.Add(B)

	switch {
	case !now.Before(sunriseWindowStart) && now.Before(sunriseWindowEnd):
		alpha := blendAlpha(now, sunrise, B)
		return types.PhaseBlend, blend(normalize(s.sched.NightThemes), normalize(s.sched.DayThemes), alpha), nil
	case !now.Before(sunsetWindowStart) && now.Before(sunsetWindowEnd):
		alpha := blendAlpha(now, sunset, B)
		return types.PhaseBlend, blend(normalize(s.sched.DayThemes), normalize(s.sched.NightThemes), alpha), nil
	case !now.Before(sunriseWindowEnd) && now.Before(sunsetWindowStart):
		return types.PhaseDay, normalize(s.sched.DayThemes), nil
	default:
		return types.PhaseNight, normalize(s.sched.NightThemes), nil
	}
}

// ActiveTheme returns the theme name sampled for instant now, using
// baseSeed (via seed.Derive) to build the sampling PRNG.
func (s *Scheduler) ActiveTheme(now time.Time, baseSeed uint64) (string, error) {
	_, mixture, err := s.Status(now)
	if err != nil {
		return "", err
	}
	rng := rand.New(rand.NewSource(int64(seed.Derive(baseSeed, "theme"))))
	return sampleMixture(mixture, rng), nil
}

// blendAlpha computes the clamped linear blend factor around boundary t0
// of radius B: alpha = (now - (t0-B)) / (2B).
func blendAlpha(now, t0 time.Time, B time.Duration) float64 {
	windowStart := t0.Add(-B)
	elapsed := now.Sub(windowStart)
	total := 2 * B
	alpha := float64(elapsed) / float64(total)
	if alpha < 0 {
		return 0
	}
	if alpha > 1 {
		return 1
	}
	return alpha
}

func normalize(list []types.WeightedTheme) Mixture {
	m := make(Mixture)
	var total float64
	for _, wt := range list {
		if wt.Weight <= 0 {
			continue
		}
		m[wt.Name] += wt.Weight
		total += wt.Weight
	}
	if total <= 0 {
		return Mixture{"default": 1.0}
	}
	for k := range m {
		m[k] /= total
	}
	return m
}

// blend mixes two already-normalized distributions: (1-alpha)*before +
// alpha*after.
func blend(before, after Mixture, alpha float64) Mixture {
	m := make(Mixture)
	for name, p := range before {
		m[name] += (1 - alpha) * p
	}
	for name, p := range after {
		m[name] += alpha * p
	}
	return m
}

// sampleMixture draws a theme name from m using rng, proportional to
// probability. Names are visited in sorted order so the draw is
// reproducible regardless of Go's randomized map iteration order.
func sampleMixture(m Mixture, rng *rand.Rand) string {
	if len(m) == 0 {
		return "default"
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	draw := rng.Float64()
	var cumulative float64
	for _, name := range names {
		cumulative += m[name]
		if draw < cumulative {
			return name
		}
	}
	return names[len(names)-1]
}

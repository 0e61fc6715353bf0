// Package seed derives the deterministic 64-bit seed that drives every
// random choice made during a single pipeline run.
package seed

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/veighnsche/darkwall/pkg/types"
)

// MinSlotMinutes and MaxSlotMinutes bound time_slot_minutes (spec §4.1).
const (
	MinSlotMinutes = 1
	MaxSlotMinutes = 1440
)

// Source derives seeds from wall-clock instants.
type Source struct {
	SlotMinutes int
	UseMonitorSeed bool
}

// NewSource validates slotMinutes and returns a Source, or a ConfigInvalid
// PipelineError if the slot width is out of range.
func NewSource(slotMinutes int, useMonitorSeed bool) (*Source, error) {
	if slotMinutes < MinSlotMinutes || slotMinutes > MaxSlotMinutes {
		return nil, types.NewError(types.ErrConfigInvalid, "seed.NewSource",
			fmt.Sprintf("time_slot_minutes must be in [%d,%d], got %d", MinSlotMinutes, MaxSlotMinutes, slotMinutes))
	}
	return &Source{SlotMinutes: slotMinutes, UseMonitorSeed: useMonitorSeed}, nil
}

// Seed derives the 64-bit seed for instant now and monitor name.
//
// The hashed string is "YYYY-MM-DD-HH-{s}-{discriminator}", discriminator
// being the monitor name when UseMonitorSeed is set, otherwise empty, and
// s the whole-day slot index (see SlotIndex): floor(minutes_since_local_
// midnight(now) / SlotMinutes). The first 8 hex characters of the MD5
// digest are read as a big-endian uint32 and zero-extended to 64 bits, so
// the same instant/slot/monitor combination always yields the same seed,
// in this implementation or any other that follows this derivation.
func (s *Source) Seed(now time.Time, monitorName string) uint64 {
	discriminator := ""
	if s.UseMonitorSeed {
		discriminator = monitorName
	}
	key := fmt.Sprintf("%04d-%02d-%02d-%02d-%d-%s",
		now.Year(), now.Month(), now.Day(), now.Hour(), s.SlotIndex(now), discriminator)
	sum := md5.Sum([]byte(key))
	hexDigest := hex.EncodeToString(sum[:])
	first8 := hexDigest[:8]
	raw, err := hex.DecodeString(first8)
	if err != nil {
		// hex.EncodeToString always yields valid hex; unreachable.
		panic(err)
	}
	v := binary.BigEndian.Uint32(raw)
	return uint64(v)
}

// SlotIndex returns the whole-day slot number floor(minutes_since_local_
// midnight(now) / SlotMinutes), the `s` component spec §4.1 hashes into
// the seed key. Status reporting also calls this directly to describe
// "which slot are we in" without hashing.
func (s *Source) SlotIndex(now time.Time) int {
	minutesSinceMidnight := now.Hour()*60 + now.Minute()
	return minutesSinceMidnight / s.SlotMinutes
}

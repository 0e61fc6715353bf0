package rotation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotationCyclesInOrderAndWraps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	m := NewManager(path)
	monitors := []string{"A", "B", "C"}

	assert.Equal(t, "A", m.Next(monitors))
	require.NoError(t, m.Record("A", monitors, time.Now()))

	assert.Equal(t, "B", m.Next(monitors))
	require.NoError(t, m.Record("B", monitors, time.Now()))

	assert.Equal(t, "C", m.Next(monitors))
	require.NoError(t, m.Record("C", monitors, time.Now()))

	assert.Equal(t, "A", m.Next(monitors))
}

func TestRotationTreatsUnknownCursorAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	m := NewManager(path)
	full := []string{"A", "B", "C"}
	require.NoError(t, m.Record("A", full, time.Now())) // cursor -> B

	reduced := []string{"A", "C"} // B disconnected
	assert.Equal(t, "A", m.Next(reduced))
}

func TestRotationCorruptFileTreatedAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	m := NewManager(path)
	assert.Equal(t, "A", m.Next([]string{"A", "B"}))
}

func TestRotationMissingFileTreatedAsFresh(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope", "state.json"))
	assert.Equal(t, "A", m.Next([]string{"A", "B"}))
}

func TestRotationResetClearsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	m := NewManager(path)
	full := []string{"A", "B"}
	require.NoError(t, m.Record("A", full, time.Now()))
	assert.Equal(t, "B", m.Next(full))

	require.NoError(t, m.Reset())
	assert.Equal(t, "A", m.Next(full))
}

func TestRotationPersistsAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	m := NewManager(path)
	require.NoError(t, m.Record("A", []string{"A", "B"}, time.Now()))

	_, err := os.Stat(path)
	require.NoError(t, err)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

package edge

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistorySinkAppendsOneLinePerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery", "history.jsonl")
	sink := NewJSONLHistorySink(path)

	require.NoError(t, sink.Append(HistoryRecord{
		Monitor:         "DP-1",
		Theme:           "dark",
		Seed:            1,
		Timestamp:       time.Now(),
		PositivePrompts: map[string]string{"subject": "a lone lighthouse"},
		NegativePrompts: map[string]string{"subject": "blurry, low quality"},
		Image:           []byte{0x89, 0x50, 0x4e, 0x47},
	}))
	require.NoError(t, sink.Append(HistoryRecord{Monitor: "DP-2", Theme: "nsfw", Seed: 2, Timestamp: time.Now()}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var records []HistoryRecord
	for scanner.Scan() {
		var rec HistoryRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 2)
	assert.Equal(t, "DP-1", records[0].Monitor)
	assert.Equal(t, "a lone lighthouse", records[0].PositivePrompts["subject"])
	assert.Equal(t, "blurry, low quality", records[0].NegativePrompts["subject"])
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, records[0].Image)
	assert.Equal(t, "DP-2", records[1].Monitor)
}

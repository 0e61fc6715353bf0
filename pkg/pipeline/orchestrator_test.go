package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veighnsche/darkwall/pkg/edge"
	"github.com/veighnsche/darkwall/pkg/generation"
	"github.com/veighnsche/darkwall/pkg/rotation"
	"github.com/veighnsche/darkwall/pkg/schedule"
	"github.com/veighnsche/darkwall/pkg/seed"
	"github.com/veighnsche/darkwall/pkg/types"
)

type fakeDetector struct {
	monitors []types.Monitor
}

func (f fakeDetector) Detect(ctx context.Context) ([]types.Monitor, error) {
	return f.monitors, nil
}

type fakeSetter struct {
	applied []string
}

func (f *fakeSetter) Apply(ctx context.Context, path, monitorName string) error {
	f.applied = append(f.applied, monitorName)
	return nil
}

type fakeOutputWriter struct {
	saved map[string][]byte
}

func (f *fakeOutputWriter) Save(path string, data []byte) error {
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	f.saved[path] = data
	return nil
}

func fixtureRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "dark", "atoms"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dark", "atoms", "subject.txt"), []byte("a lone cabin\n"), 0o644))

	require.NoError(t, os.MkdirAll(filepath.Join(root, "dark", "prompts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dark", "prompts", "default.prompt"), []byte(
		"$$positive$$\n__subject__ at dusk\n$$negative$$\nlow quality\n"), 0o644))

	require.NoError(t, os.MkdirAll(filepath.Join(root, "workflows"), 0o755))
	workflowDoc := map[string]any{
		"3": map[string]any{"inputs": map[string]any{"text": "$$positive$$"}},
		"4": map[string]any{"inputs": map[string]any{"text": "$$positive:negative$$"}},
	}
	raw, err := json.Marshal(workflowDoc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "workflows", "dark-1920x1080.json"), raw, 0o644))

	return root
}

func newTestOrchestrator(t *testing.T, root string, genClient *generation.Client, now time.Time) (*Orchestrator, *fakeOutputWriter, *fakeSetter) {
	t.Helper()
	seedSrc, err := seed.NewSource(30, true)
	require.NoError(t, err)

	sched := schedule.New(types.Schedule{
		Timezone:    "UTC",
		SunriseTime: "06:00",
		SunsetTime:  "18:00",
		DayThemes:   []types.WeightedTheme{{Name: "dark", Weight: 1}},
	})

	rotMgr := rotation.NewManager(filepath.Join(root, "state.json"))
	output := &fakeOutputWriter{}
	setter := &fakeSetter{}

	deps := Deps{
		Seed:       seedSrc,
		Scheduler:  sched,
		Rotation:   rotMgr,
		Generation: genClient,
		Monitors:   fakeDetector{monitors: []types.Monitor{{Name: "DP-1", Resolution: "1920x1080"}}},
		Output:     output,
		Setters:    map[string]edge.Setter{"DP-1": setter},
		Themes: map[string]ThemeDefinition{
			"dark": {Name: "dark", AtomsRoot: filepath.Join(root, "dark", "atoms"), PromptsRoot: filepath.Join(root, "dark", "prompts"), WorkflowPrefix: "dark"},
		},
		MonitorTargets: map[string]MonitorTarget{
			"DP-1": {Name: "DP-1", Resolution: "1920x1080", Output: filepath.Join(root, "out", "DP-1.png"), Command: edge.SetterSwaybg},
		},
		ConfigRoot: root,
		Now:        func() time.Time { return now },
	}
	return New(deps), output, setter
}

func newFakeGenerationServer(t *testing.T) *generation.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/prompt", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"prompt_id": "p1"})
	})
	mux.HandleFunc("/history/p1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"p1": map[string]any{
				"status":  map[string]any{"completed": true},
				"outputs": map[string]any{"9": map[string]any{"images": []map[string]any{{"filename": "out.png", "subfolder": "", "type": "output"}}}},
			},
		})
	})
	mux.HandleFunc("/view", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("image-bytes"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := generation.NewClient(srv.URL, 30, 1)
	require.NoError(t, err)
	return client
}

func TestRunSingleEndToEnd(t *testing.T) {
	root := fixtureRoot(t)
	client := newFakeGenerationServer(t)
	now := time.Date(2025, 1, 15, 10, 15, 0, 0, time.UTC)
	orch, output, setter := newTestOrchestrator(t, root, client, now)

	result, err := orch.RunSingle(context.Background(), []string{"DP-1"})
	require.NoError(t, err)
	assert.Equal(t, "DP-1", result.Monitor)
	assert.Equal(t, "dark", result.Theme)
	assert.Equal(t, "dark-1920x1080", result.WorkflowID)
	assert.Contains(t, output.saved, filepath.Join(root, "out", "DP-1.png"))
	assert.Equal(t, []byte("image-bytes"), output.saved[filepath.Join(root, "out", "DP-1.png")])
	assert.Equal(t, []string{"DP-1"}, setter.applied)

	next := orch.deps.Rotation.Next([]string{"DP-1"})
	assert.Equal(t, "DP-1", next) // only one configured monitor, always wraps to itself
}

func TestDryRunPerformsNoIO(t *testing.T) {
	root := fixtureRoot(t)
	client := newFakeGenerationServer(t)
	now := time.Date(2025, 1, 15, 10, 15, 0, 0, time.UTC)
	orch, output, setter := newTestOrchestrator(t, root, client, now)

	plan, err := orch.DryRun(context.Background(), []string{"DP-1"})
	require.NoError(t, err)
	assert.Equal(t, "dark-1920x1080", plan.WorkflowID)
	assert.Equal(t, "default.prompt", plan.TemplateFile)
	assert.Contains(t, plan.Prompt.Prompts["positive"], "a lone cabin")
	assert.Empty(t, output.saved)
	assert.Empty(t, setter.applied)
}

func TestRunSingleFailsWhenNoMonitorConnected(t *testing.T) {
	root := fixtureRoot(t)
	client := newFakeGenerationServer(t)
	now := time.Date(2025, 1, 15, 10, 15, 0, 0, time.UTC)
	orch, _, _ := newTestOrchestrator(t, root, client, now)
	orch.deps.Monitors = fakeDetector{monitors: nil}

	_, err := orch.RunSingle(context.Background(), []string{"DP-1"})
	require.Error(t, err)
	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrMonitorDetectFailed, code)
}

func TestRunAllContinuesAfterOneMonitorFails(t *testing.T) {
	root := fixtureRoot(t)
	client := newFakeGenerationServer(t)
	now := time.Date(2025, 1, 15, 10, 15, 0, 0, time.UTC)
	orch, _, _ := newTestOrchestrator(t, root, client, now)

	orch.deps.Monitors = fakeDetector{monitors: []types.Monitor{
		{Name: "DP-1", Resolution: "1920x1080"},
		{Name: "DP-2", Resolution: "2560x1440"},
	}}
	// Both monitors resolve to the "dark" theme (day_themes has one option),
	// but only dark-1920x1080 exists, so DP-2 fails with WorkflowMissing.
	// DP-2 runs first so DP-1's success shows the iteration went on.
	orch.deps.MonitorTargets["DP-2"] = MonitorTarget{Name: "DP-2", Resolution: "2560x1440", Output: filepath.Join(root, "out", "DP-2.png")}

	results, errs := orch.RunAll(context.Background(), []string{"DP-2", "DP-1"})
	require.Len(t, results, 2)
	require.Len(t, errs, 2)
	code, ok := types.CodeOf(errs[0])
	require.True(t, ok)
	assert.Equal(t, types.ErrWorkflowMissing, code)
	assert.NoError(t, errs[1])
}

// Package workflow resolves (theme, resolution) pairs to workflow JSON
// documents, filters the set of templates eligible for a workflow, and
// injects resolved prompt sections into workflow placeholder leaves.
package workflow

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/veighnsche/darkwall/pkg/seed"
	"github.com/veighnsche/darkwall/pkg/types"
)

// Binding pairs a workflow with an optional template allowlist. An empty
// Prompts list means "any template eligible in the current theme".
type Binding struct {
	Prompts []string
}

// Registry loads workflow documents from a configuration root directory
// and resolves the set of templates eligible for each.
type Registry struct {
	root     string
	bindings map[string]Binding

	mu    sync.Mutex
	cache map[string]any
}

// NewRegistry returns a Registry rooted at configRoot (workflows/*.json
// live under configRoot/workflows), with the given per-workflow-id
// bindings (may be nil/empty).
func NewRegistry(configRoot string, bindings map[string]Binding) *Registry {
	return &Registry{root: configRoot, bindings: bindings, cache: make(map[string]any)}
}

// Load resolves id = "{prefix}-{resolution}" to workflows/{id}.json and
// returns its parsed JSON document. The document is cached; callers must
// never mutate the returned value in place (use Inject, which deep-clones
// before substituting).
func (r *Registry) Load(theme types.Theme, resolution string) (doc any, id string, err error) {
	id = theme.WorkflowID(resolution)

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cache[id]; ok {
		return cached, id, nil
	}

	path := filepath.Join(r.root, "workflows", id+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, id, types.NewError(types.ErrWorkflowMissing, "workflow.Load",
			fmt.Sprintf("workflow %q not found: tried %s", id, path))
	}

	var doc2 any
	if err := json.Unmarshal(raw, &doc2); err != nil {
		return nil, id, types.Wrap(types.ErrWorkflowMissing, "workflow.Load", err)
	}
	if _, ok := doc2.(map[string]any); !ok {
		return nil, id, types.NewError(types.ErrWorkflowMissing, "workflow.Load",
			fmt.Sprintf("workflow %q at %s is not a JSON object", id, path))
	}

	r.cache[id] = doc2
	return doc2, id, nil
}

// EligibleTemplates filters allTemplates (theme prompt filenames) through
// the workflow's allowlist, if any.
func (r *Registry) EligibleTemplates(workflowID string, allTemplates []string) []string {
	binding, ok := r.bindings[workflowID]
	if !ok || len(binding.Prompts) == 0 {
		return allTemplates
	}
	allowed := make(map[string]bool, len(binding.Prompts))
	for _, p := range binding.Prompts {
		allowed[p] = true
	}
	var eligible []string
	for _, t := range allTemplates {
		if allowed[t] {
			eligible = append(eligible, t)
		}
	}
	return eligible
}

// SelectTemplate deterministically picks one eligible template using a
// PRNG derived from baseSeed that is distinct from section resolution's
// (spec §4.5: "distinct from the section-resolution PRNG so that
// template choice is stable under atom edits"). eligible is sorted first
// so the pick does not depend on filesystem/map iteration order.
func SelectTemplate(eligible []string, baseSeed uint64) (string, error) {
	if len(eligible) == 0 {
		return "", types.NewError(types.ErrWorkflowMissing, "workflow.SelectTemplate", "no eligible templates")
	}
	sorted := append([]string(nil), eligible...)
	sort.Strings(sorted)
	rng := rand.New(rand.NewSource(int64(seed.Derive(baseSeed, "template_pick"))))
	return sorted[rng.Intn(len(sorted))], nil
}

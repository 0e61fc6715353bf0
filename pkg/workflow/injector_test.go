package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veighnsche/darkwall/pkg/types"
)

func TestInjectWholeTokenOnly(t *testing.T) {
	doc := map[string]any{
		"a": "$$k$$",
		"b": "prefix $$k$$ suffix",
		"c": map[string]any{"d": "$$k$$"},
	}
	result := types.PromptResult{Prompts: map[string]string{"k": "hello"}}

	out, _, err := Inject(doc, result)
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Equal(t, "hello", m["a"])
	assert.Equal(t, "prefix $$k$$ suffix", m["b"]) // partial occurrence untouched
	assert.Equal(t, "hello", m["c"].(map[string]any)["d"])
}

func TestInjectDoesNotMutateOriginal(t *testing.T) {
	inner := map[string]any{"d": "$$k$$"}
	doc := map[string]any{"c": inner}
	result := types.PromptResult{Prompts: map[string]string{"k": "hello"}}

	_, _, err := Inject(doc, result)
	require.NoError(t, err)
	assert.Equal(t, "$$k$$", inner["d"])
}

func TestInjectFourLeavesEnvironmentAndSubject(t *testing.T) {
	doc := map[string]any{
		"nodes": []any{
			map[string]any{"text": "$$environment$$"},
			map[string]any{"text": "$$environment:negative$$"},
			map[string]any{"text": "$$subject$$"},
			map[string]any{"text": "$$subject:negative$$"},
			map[string]any{"unchanged": "literal"},
		},
	}
	result := types.PromptResult{
		Prompts:   map[string]string{"environment": "forest", "subject": "cat"},
		Negatives: map[string]string{"environment": "blurry", "subject": "ugly"},
	}

	out, _, err := Inject(doc, result)
	require.NoError(t, err)
	nodes := out.(map[string]any)["nodes"].([]any)
	assert.Equal(t, "forest", nodes[0].(map[string]any)["text"])
	assert.Equal(t, "blurry", nodes[1].(map[string]any)["text"])
	assert.Equal(t, "cat", nodes[2].(map[string]any)["text"])
	assert.Equal(t, "ugly", nodes[3].(map[string]any)["text"])
	assert.Equal(t, "literal", nodes[4].(map[string]any)["unchanged"])
}

func TestInjectMissingPositiveIsHardError(t *testing.T) {
	doc := map[string]any{"a": "$$missing$$"}
	result := types.PromptResult{Prompts: map[string]string{}}

	_, _, err := Inject(doc, result)
	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrPromptSectionMissing, code)
}

func TestInjectMissingNegativeDefaultsToEmpty(t *testing.T) {
	doc := map[string]any{"a": "$$k$$", "b": "$$k:negative$$"}
	result := types.PromptResult{Prompts: map[string]string{"k": "hello"}}

	out, report, err := Inject(doc, result)
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Equal(t, "", m["b"])
	assert.Contains(t, report.SubstitutedNegativeDefaults, "k:negative")
}

func TestInjectNegativeWithNoSectionAtAllDefaultsToEmptyAndWarns(t *testing.T) {
	doc := map[string]any{"a": "$$ghost:negative$$"}
	result := types.PromptResult{Prompts: map[string]string{}}

	out, report, err := Inject(doc, result)
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Equal(t, "", m["a"])
	assert.Contains(t, report.SubstitutedNegativeDefaults, "ghost:negative")
}

func TestInjectReportsUnusedSections(t *testing.T) {
	doc := map[string]any{"a": "$$k$$"}
	result := types.PromptResult{Prompts: map[string]string{"k": "hello", "unused": "x"}}

	_, report, err := Inject(doc, result)
	require.NoError(t, err)
	assert.Equal(t, []string{"unused"}, report.UnusedSections)
}

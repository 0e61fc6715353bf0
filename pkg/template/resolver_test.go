package template

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veighnsche/darkwall/pkg/types"
)

type fakeStore struct {
	lines map[string][]string
}

func (f *fakeStore) Select(name string, rng *rand.Rand) (string, error) {
	lines, ok := f.lines[name]
	if !ok || len(lines) == 0 {
		return "", types.NewError(types.ErrAtomMissing, "fakeStore.Select", name)
	}
	return lines[rng.Intn(len(lines))], nil
}

func TestResolveSimplePositive(t *testing.T) {
	tpl, err := Parse("$$positive$$\nhello")
	require.NoError(t, err)

	res, err := Resolve(tpl, &fakeStore{}, 42)
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Result.Prompts["positive"])
	assert.Empty(t, res.Result.Negatives)
}

func TestResolveWildcardAndVariant(t *testing.T) {
	tpl, err := Parse("__color__, {bright|dark}")
	require.NoError(t, err)
	store := &fakeStore{lines: map[string][]string{"color": {"red", "green", "blue"}}}

	res, err := Resolve(tpl, store, 42)
	require.NoError(t, err)
	text := res.Result.Prompts["positive"]
	assert.Regexp(t, `^(red|green|blue), (bright|dark)$`, text)
}

func TestResolveDeterministicForSameSeed(t *testing.T) {
	tpl, _ := Parse("__color__, {bright|dark}")
	store := &fakeStore{lines: map[string][]string{"color": {"red", "green", "blue"}}}

	a, err := Resolve(tpl, store, 42)
	require.NoError(t, err)
	b, err := Resolve(tpl, store, 42)
	require.NoError(t, err)
	assert.Equal(t, a.Result.Prompts["positive"], b.Result.Prompts["positive"])
}

func TestResolveNegativesAndPositivesSeparate(t *testing.T) {
	tpl, err := Parse("$$environment$$\nforest\n$$environment:negative$$\nblurry")
	require.NoError(t, err)

	res, err := Resolve(tpl, &fakeStore{}, 1)
	require.NoError(t, err)
	assert.Equal(t, "forest", res.Result.Prompts["environment"])
	assert.Equal(t, "blurry", res.Result.Negatives["environment"])
}

func TestResolveUnbalancedVariantIsSyntaxError(t *testing.T) {
	tpl, err := Parse("{bright|dark")
	require.NoError(t, err)
	_, err = Resolve(tpl, &fakeStore{}, 1)
	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrTemplateSyntax, code)
}

func TestResolveInvalidWeightIsSyntaxError(t *testing.T) {
	tpl, err := Parse("{0::bright|1::dark}")
	require.NoError(t, err)
	_, err = Resolve(tpl, &fakeStore{}, 1)
	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrTemplateSyntax, code)
}

func TestResolveMissingAtomPropagates(t *testing.T) {
	tpl, err := Parse("__nope__")
	require.NoError(t, err)
	_, err = Resolve(tpl, &fakeStore{}, 1)
	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrAtomMissing, code)
}

func TestResolveWeightedVariantSkewsDistribution(t *testing.T) {
	tpl, err := Parse("{99::a|1::b}")
	require.NoError(t, err)

	counts := map[string]int{}
	for seed := uint64(0); seed < 500; seed++ {
		res, err := Resolve(tpl, &fakeStore{}, seed)
		require.NoError(t, err)
		counts[res.Result.Prompts["positive"]]++
	}
	assert.Greater(t, counts["a"], counts["b"])
}

func TestSectionSeedDiffersPerSection(t *testing.T) {
	a := SectionSeed(42, "positive")
	b := SectionSeed(42, "environment")
	assert.NotEqual(t, a, b)
}

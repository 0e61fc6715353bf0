package atoms

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veighnsche/darkwall/pkg/types"
)

func writeAtomFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name+".txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLookupStripsCommentsAndBlanks(t *testing.T) {
	root := t.TempDir()
	writeAtomFile(t, root, "color", "red\n\n# a comment\ngreen\n   \nblue\n")

	s := New(root)
	lines, err := s.Lookup("color")
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "green", "blue"}, lines)
}

func TestLookupCachesAfterFirstRead(t *testing.T) {
	root := t.TempDir()
	writeAtomFile(t, root, "color", "red\n")

	s := New(root)
	_, err := s.Lookup("color")
	require.NoError(t, err)

	// Mutate on disk; cached value must not change.
	writeAtomFile(t, root, "color", "green\n")
	lines, err := s.Lookup("color")
	require.NoError(t, err)
	assert.Equal(t, []string{"red"}, lines)
}

func TestLookupMissingFile(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Lookup("nope")
	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrAtomMissing, code)
}

func TestSelectEmptyFileIsAtomEmpty(t *testing.T) {
	root := t.TempDir()
	writeAtomFile(t, root, "empty", "# only a comment\n\n")

	s := New(root)
	_, err := s.Select("empty", rand.New(rand.NewSource(1)))
	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrAtomEmpty, code)
}

func TestSelectNestedPath(t *testing.T) {
	root := t.TempDir()
	writeAtomFile(t, root, "subjects/nature", "forest\nocean\n")

	s := New(root)
	v, err := s.Select("subjects/nature", rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Contains(t, []string{"forest", "ocean"}, v)
}

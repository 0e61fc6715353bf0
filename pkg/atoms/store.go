// Package atoms provides the lazy, cached loader of newline-delimited
// atom files beneath a theme's atoms root, and uniform random selection
// over their contents.
package atoms

import (
	"bufio"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/veighnsche/darkwall/pkg/types"
)

// Store caches atom file contents for the lifetime of the process, the
// same RWMutex-guarded map idiom the teacher's pkg/state.Manager uses for
// its own cached state.
type Store struct {
	root string

	mu    sync.RWMutex
	cache map[string][]string
}

// New returns a Store rooted at the theme's atoms directory.
func New(atomsRoot string) *Store {
	return &Store{root: atomsRoot, cache: make(map[string][]string)}
}

// Lookup returns the candidate lines for name ("a/b/c", without
// extension), reading and caching atoms/{name}.txt on first call. Blank
// lines and lines whose first non-whitespace character is '#' are
// discarded; line order is otherwise preserved.
func (s *Store) Lookup(name string) ([]string, error) {
	s.mu.RLock()
	if lines, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return lines, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if lines, ok := s.cache[name]; ok {
		return lines, nil
	}

	path := filepath.Join(s.root, filepath.FromSlash(name)+".txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, types.Wrap(types.ErrAtomMissing, "atoms.Lookup("+name+")", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, types.Wrap(types.ErrAtomMissing, "atoms.Lookup("+name+")", err)
	}

	s.cache[name] = lines
	return lines, nil
}

// Select picks uniformly at random from the candidates for name, using
// rng for the draw. It is AtomEmpty when the file has no candidates left
// after comment/blank stripping, AtomMissing when the file is absent.
func (s *Store) Select(name string, rng *rand.Rand) (string, error) {
	candidates, err := s.Lookup(name)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", types.NewError(types.ErrAtomEmpty, "atoms.Select("+name+")", "atom file has no candidates")
	}
	return candidates[rng.Intn(len(candidates))], nil
}

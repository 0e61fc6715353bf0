// Package template parses multi-section prompt templates and resolves
// wildcard and inline-variant expressions against an atom store using a
// deterministic, seeded PRNG.
package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/veighnsche/darkwall/pkg/types"
)

var (
	sectionNameRe = regexp.MustCompile(`^[a-z0-9_]+(:negative)?$`)
	markerLikeRe  = regexp.MustCompile(`^\$\$(.+)\$\$$`)
)

// Section is one named region of a parsed template.
type Section struct {
	// Name is the base section name with any ":negative" suffix removed
	// ("positive", "environment", ...).
	Name string
	// Negative is true when this section is the ":negative" counterpart
	// of Name.
	Negative bool
	// Content is the section's raw (unresolved) text, comments already
	// stripped, blank lines preserved.
	Content string
}

// Key returns the section's full declared key ("environment:negative").
func (s Section) Key() string {
	if s.Negative {
		return s.Name + ":negative"
	}
	return s.Name
}

// Template is a parsed multi-section prompt document.
type Template struct {
	Sections []Section
}

type workingSection struct {
	key      string
	content  []string
	explicit bool
}

// Parse splits text into sections per spec §4.3/§6.3. Content before the
// first marker belongs to the implicit "positive" section; "$$negative$$"
// is an alias for "$$positive:negative$$"; duplicate section keys are a
// parse error.
func Parse(text string) (*Template, error) {
	lines := strings.Split(text, "\n")

	var sections []workingSection
	seen := make(map[string]bool)
	cur := &workingSection{key: "positive"}

	commit := func() error {
		if cur.explicit || len(cur.content) > 0 {
			if seen[cur.key] {
				return types.NewError(types.ErrTemplateSyntax, "template.Parse",
					fmt.Sprintf("duplicate section %q", cur.key))
			}
			seen[cur.key] = true
			sections = append(sections, *cur)
		}
		return nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if m := markerLikeRe.FindStringSubmatch(trimmed); m != nil {
			inner := m[1]
			if !sectionNameRe.MatchString(inner) {
				return nil, types.NewError(types.ErrTemplateSyntax, "template.Parse",
					fmt.Sprintf("illegal section name %q", inner))
			}
			if err := commit(); err != nil {
				return nil, err
			}
			key := inner
			if key == "negative" {
				key = "positive:negative"
			}
			cur = &workingSection{key: key, explicit: true}
			continue
		}
		cur.content = append(cur.content, line)
	}
	if err := commit(); err != nil {
		return nil, err
	}

	t := &Template{}
	for _, ws := range sections {
		name, negative := splitKey(ws.key)
		t.Sections = append(t.Sections, Section{
			Name:     name,
			Negative: negative,
			Content:  strings.Join(ws.content, "\n"),
		})
	}
	return t, nil
}

func splitKey(key string) (name string, negative bool) {
	if strings.HasSuffix(key, ":negative") {
		return strings.TrimSuffix(key, ":negative"), true
	}
	return key, false
}

package template

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/veighnsche/darkwall/pkg/seed"
	"github.com/veighnsche/darkwall/pkg/types"
)

// IterationCeiling bounds the number of substitution passes per section,
// guarding against pathological self-referential atom files (spec §9).
const IterationCeiling = 32

var (
	wildcardRe = regexp.MustCompile(`__([a-z0-9_/]+)__`)
	variantRe  = regexp.MustCompile(`\{([^{}]*)\}`)
	weightRe   = regexp.MustCompile(`^([0-9]*\.?[0-9]+)::(.*)$`)
)

// AtomSelector is the subset of atoms.Store the resolver depends on.
type AtomSelector interface {
	Select(name string, rng *rand.Rand) (string, error)
}

// Resolution is the outcome of resolving a Template: the PromptResult plus
// any non-fatal warnings (ceiling reached) for the caller to log.
type Resolution struct {
	Result   types.PromptResult
	Warnings []string
}

// Resolve resolves every section of t against store using a PRNG derived
// from baseSeed, distinct per section (spec §4.3, §9 derivation: seed XOR
// stable-hash(section key)). The result's Prompts map holds every
// non-negative section; Negatives holds every ":negative" section.
func Resolve(t *Template, store AtomSelector, baseSeed uint64) (Resolution, error) {
	res := Resolution{Result: types.PromptResult{
		Prompts:   make(map[string]string),
		Negatives: make(map[string]string),
		Seed:      baseSeed,
	}}

	for _, sec := range t.Sections {
		sectionSeed := SectionSeed(baseSeed, sec.Key())
		rng := rand.New(rand.NewSource(int64(sectionSeed)))

		resolved, truncated, err := resolveText(sec.Content, store, rng)
		if err != nil {
			return Resolution{}, err
		}
		if truncated {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"section %q reached the substitution iteration ceiling (%d); using partially resolved text", sec.Key(), IterationCeiling))
		}

		if sec.Negative {
			res.Result.Negatives[sec.Name] = resolved
		} else {
			res.Result.Prompts[sec.Name] = resolved
		}
	}
	return res, nil
}

// SectionSeed derives the section-scoped PRNG seed: baseSeed combined
// with the section key via seed.Derive. This is deliberately a different
// derivation from the seed used for template selection (pkg/workflow),
// so the two draws are independent even though both trace back to the
// same base seed (spec §9 open question).
func SectionSeed(baseSeed uint64, sectionKey string) uint64 {
	return seed.Derive(baseSeed, "section:"+sectionKey)
}

// resolveText repeatedly substitutes wildcards and variants until the text
// is stable or the iteration ceiling is reached, returning the final text
// and whether the ceiling was hit before stabilizing.
func resolveText(text string, store AtomSelector, rng *rand.Rand) (string, bool, error) {
	for i := 0; i < IterationCeiling; i++ {
		if err := checkBalancedVariants(text); err != nil {
			return "", false, err
		}
		next, changed, err := resolvePass(text, store, rng)
		if err != nil {
			return "", false, err
		}
		if !changed {
			return next, false, nil
		}
		text = next
	}
	return text, true, nil
}

// checkBalancedVariants rejects stray '{' or '}' that are not part of a
// non-nested {a|b|c} construct (spec: alternatives must not themselves
// contain '{', '|', or '}').
func checkBalancedVariants(text string) error {
	depth := 0
	for _, r := range text {
		switch r {
		case '{':
			if depth > 0 {
				return types.NewError(types.ErrTemplateSyntax, "template.resolveText", "nested variant braces are not allowed")
			}
			depth++
		case '}':
			depth--
			if depth < 0 {
				return types.NewError(types.ErrTemplateSyntax, "template.resolveText", "unbalanced variant: unmatched '}'")
			}
		}
	}
	if depth != 0 {
		return types.NewError(types.ErrTemplateSyntax, "template.resolveText", "unbalanced variant: unmatched '{'")
	}
	return nil
}

// resolvePass performs one left-to-right substitution pass over text,
// replacing whichever construct (wildcard or variant) occurs first.
func resolvePass(text string, store AtomSelector, rng *rand.Rand) (string, bool, error) {
	var sb strings.Builder
	i := 0
	changed := false

	for i < len(text) {
		rest := text[i:]
		wLoc := wildcardRe.FindStringSubmatchIndex(rest)
		vLoc := variantRe.FindStringSubmatchIndex(rest)

		useWildcard := wLoc != nil && (vLoc == nil || wLoc[0] <= vLoc[0])
		useVariant := vLoc != nil && (wLoc == nil || vLoc[0] < wLoc[0])

		switch {
		case useWildcard:
			sb.WriteString(rest[:wLoc[0]])
			name := rest[wLoc[2]:wLoc[3]]
			val, err := store.Select(name, rng)
			if err != nil {
				return "", false, err
			}
			sb.WriteString(val)
			i += wLoc[1]
			changed = true
		case useVariant:
			sb.WriteString(rest[:vLoc[0]])
			inner := rest[vLoc[2]:vLoc[3]]
			val, err := resolveVariant(inner, rng)
			if err != nil {
				return "", false, err
			}
			sb.WriteString(val)
			i += vLoc[1]
			changed = true
		default:
			sb.WriteString(rest)
			i = len(text)
		}
	}
	return sb.String(), changed, nil
}

type weightedAlt struct {
	weight float64
	text   string
}

// resolveVariant picks one alternative from a "{a|b|c}" or weighted
// "{w1::a|w2::b}" body using rng, proportional to weight.
func resolveVariant(inner string, rng *rand.Rand) (string, error) {
	parts := strings.Split(inner, "|")
	alts := make([]weightedAlt, 0, len(parts))
	var total float64

	for _, part := range parts {
		weight := 1.0
		text := part
		if m := weightRe.FindStringSubmatch(part); m != nil {
			w, err := strconv.ParseFloat(m[1], 64)
			if err != nil || w <= 0 {
				return "", types.NewError(types.ErrTemplateSyntax, "template.resolveVariant",
					fmt.Sprintf("invalid variant weight %q", m[1]))
			}
			weight = w
			text = m[2]
		}
		alts = append(alts, weightedAlt{weight: weight, text: text})
		total += weight
	}
	if total <= 0 || len(alts) == 0 {
		return "", types.NewError(types.ErrTemplateSyntax, "template.resolveVariant", "variant has no viable alternatives")
	}

	draw := rng.Float64() * total
	var cumulative float64
	for _, a := range alts {
		cumulative += a.weight
		if draw < cumulative {
			return a.text, nil
		}
	}
	return alts[len(alts)-1].text, nil
}

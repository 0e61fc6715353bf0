package workflow

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/veighnsche/darkwall/pkg/types"
)

var placeholderRe = regexp.MustCompile(`^\$\$([a-z0-9_]+)(:negative)?\$\$$`)

// InjectionReport carries the informational/warning diagnostics the
// injector produces alongside the substituted document (spec §4.5
// Diagnostics).
type InjectionReport struct {
	// UnusedSections names PromptResult sections with no matching
	// placeholder in the workflow (informational).
	UnusedSections []string
	// SubstitutedNegativeDefaults names negative placeholders that had
	// no corresponding section and were substituted with "" (warning).
	SubstitutedNegativeDefaults []string
}

// Inject deep-clones doc and substitutes every whole-leaf "$$name$$" /
// "$$name:negative$$" placeholder with the corresponding prompt string.
// A positive placeholder with no matching section is a hard
// PromptSectionMissing error; a missing negative is substituted with "".
func Inject(doc any, result types.PromptResult) (any, InjectionReport, error) {
	used := make(map[string]bool)
	var report InjectionReport

	cloned, err := injectValue(doc, result, used, &report)
	if err != nil {
		return nil, InjectionReport{}, err
	}

	for name := range result.Prompts {
		if !used[name] {
			report.UnusedSections = append(report.UnusedSections, name)
		}
	}
	sort.Strings(report.UnusedSections)
	sort.Strings(report.SubstitutedNegativeDefaults)
	return cloned, report, nil
}

func injectValue(v any, result types.PromptResult, used map[string]bool, report *InjectionReport) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			resolved, err := injectValue(child, result, used, report)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			resolved, err := injectValue(child, result, used, report)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case string:
		m := placeholderRe.FindStringSubmatch(val)
		if m == nil {
			return val, nil
		}
		name := m[1]
		negative := m[2] == ":negative"
		if negative {
			if _, ok := result.Negatives[name]; !ok {
				report.SubstitutedNegativeDefaults = append(report.SubstitutedNegativeDefaults, name+":negative")
				used[name] = true
				return "", nil
			}
			used[name] = true
			return result.Negatives[name], nil
		}
		text, ok := result.Prompts[name]
		if !ok {
			return nil, types.NewError(types.ErrPromptSectionMissing, "workflow.Inject",
				fmt.Sprintf("workflow requires positive section %q, not produced by template", name))
		}
		used[name] = true
		return text, nil
	default:
		return val, nil
	}
}

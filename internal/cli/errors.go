package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/veighnsche/darkwall/pkg/types"
)

// suggestions maps each error code to the remediation hints shown below
// the error message, the same one-handler-family-per-category idea as
// the teacher's ErrorHandler strategy objects, keyed on the closed
// ErrorCode enum rather than substring matching since this project has
// one.
var suggestions = map[types.ErrorCode][]string{
	types.ErrConfigInvalid: {
		"run `darkwall config validate` to see every offending key at once",
		"check for deprecated array-style monitors/themes/workflows entries",
	},
	types.ErrNetworkUnreachable: {
		"confirm the generation service is running and reachable at the configured base_url",
		"check for a firewall or VPN blocking the local network",
	},
	types.ErrSubmissionRejected: {
		"the service rejected the injected workflow; check its node graph against the service's schema",
	},
	types.ErrGenerationTimeout: {
		"the service did not finish within the configured timeout",
		"increase service.timeout in the config file if generations are routinely slow",
	},
	types.ErrGenerationFailed: {
		"the service reported a node execution error; check its logs for the failing node",
	},
	types.ErrImageFetchFailed: {
		"the completion record named an image the service could not serve",
	},
	types.ErrWorkflowMissing: {
		"confirm the workflow file exists at the path named in the error",
	},
	types.ErrAtomMissing: {
		"confirm the atom file referenced by the template exists under the theme's atoms root",
	},
	types.ErrAtomEmpty: {
		"the atom file has no usable lines after comment and blank stripping",
	},
	types.ErrTemplateSyntax: {
		"check the prompt file's section markers for an illegal name or a duplicate section",
	},
	types.ErrPromptSectionMissing: {
		"the workflow requires a positive section the template does not produce",
	},
	types.ErrScheduleError: {
		"check schedule.latitude/longitude or the manual sunrise_time/sunset_time format",
	},
	types.ErrMonitorDetectFailed: {
		"confirm wlr-randr or hyprctl is installed and the compositor is running",
	},
	types.ErrFilesystemError: {
		"check that the output path's parent directory is writable",
	},
	types.ErrStatePersistError: {
		"rotation state could not be written; the run still completed",
	},
}

// renderError formats err for stderr: the message, then any known
// remediation suggestions for its error code.
func renderError(err error) string {
	var b strings.Builder
	b.WriteString(color.RedString("error: "))
	b.WriteString(err.Error())

	code, ok := types.CodeOf(err)
	if !ok {
		return b.String()
	}
	hints := suggestions[code]
	if len(hints) == 0 {
		return b.String()
	}
	b.WriteString("\n\n")
	b.WriteString(color.YellowString("suggestions:"))
	for _, h := range hints {
		b.WriteString(fmt.Sprintf("\n  - %s", h))
	}
	return b.String()
}

package cli

import "github.com/veighnsche/darkwall/pkg/types"

// Exit codes from the single-shot command (spec §6.5).
const (
	ExitSuccess           = 0
	ExitConfigError       = 1
	ExitNetworkError      = 2
	ExitGenerationError   = 3
	ExitGenerationTimeout = 4
	ExitFilesystemError   = 5
)

// exitCodeFor maps a PipelineError's code to the exit code table in
// spec §6.5, the same category-to-outcome mapping style as the
// teacher's StructuredError/ErrorHandler strategy objects.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	code, ok := types.CodeOf(err)
	if !ok {
		return ExitGenerationError
	}
	switch code {
	case types.ErrConfigInvalid:
		return ExitConfigError
	case types.ErrNetworkUnreachable, types.ErrSubmissionRejected:
		return ExitNetworkError
	case types.ErrGenerationTimeout:
		return ExitGenerationTimeout
	case types.ErrGenerationFailed, types.ErrImageFetchFailed,
		types.ErrAtomMissing, types.ErrAtomEmpty, types.ErrTemplateSyntax,
		types.ErrWorkflowMissing, types.ErrPromptSectionMissing, types.ErrScheduleError:
		return ExitGenerationError
	case types.ErrFilesystemError, types.ErrStatePersistError, types.ErrMonitorDetectFailed:
		return ExitFilesystemError
	default:
		return ExitGenerationError
	}
}

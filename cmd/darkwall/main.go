// Command darkwall generates one wallpaper per configured display via a
// remote ComfyUI-like queue and installs it with an external setter.
//
// Usage:
//
//	darkwall generate            # render and set the next monitor in rotation
//	darkwall generate --all      # render and set every connected monitor
//	darkwall generate --dry-run  # resolve and print the plan only
//	darkwall rotate reset        # discard the persisted rotation cursor
//	darkwall status              # report the schedule phase and rotation cursor
//	darkwall config validate     # validate darkwall.yaml without generating
//	darkwall version             # print the version
package main

import (
	"os"

	"github.com/veighnsche/darkwall/internal/cli"
)

func main() {
	app := cli.NewApp("")
	os.Exit(app.Run(os.Args))
}

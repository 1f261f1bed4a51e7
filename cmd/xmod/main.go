// Command xmod changes file mode bits, spawning one worker process per
// subdirectory.
package main

import (
	"os"

	"github.com/Iron-Ham/xmod/internal/cmd"
	"github.com/Iron-Ham/xmod/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.ExitCode(err))
	}
}

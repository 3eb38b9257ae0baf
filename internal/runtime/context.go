// Package runtime carries the shared state handed to CLI commands.
package runtime

import (
	"github.com/voicevault/voicevault/internal/conf"
	"github.com/voicevault/voicevault/internal/engine"
)

// Context is created once at startup and populated by the root command
// before any subcommand runs.
type Context struct {
	Settings *conf.Settings
	Engine   *engine.Engine
	CloseLog func() error // closes the engine log file, nil when logging to stdout
}

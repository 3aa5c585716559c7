package model

// Globals contains global flags for the CLI.
type Globals struct {
	DataDir string      `name:"data-dir" default:"~/.zenfeed" help:"Directory for the local database and caches." type:"path"`
	Debug   bool        `name:"debug" help:"Enable debug logging."`
	Version VersionFlag `name:"version" help:"Print version information and quit"`
}

// Package cli resolves the on-disk directory layout phoneagent's commands
// share: settings file, lead store, recordings, call logs, cache, and logs,
// all rooted under a dotfile directory in the user's home.
//
// Example usage:
//
//	p, err := cli.NewPaths("phoneagent")
//	if err != nil { ... }
//	settingsPath := p.ConfigFile()
//	if err := p.EnsureDataDir(); err != nil { ... }
//	recordingsDir := p.DataPath("recordings")
package cli

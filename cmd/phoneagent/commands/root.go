package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/scranst/phoneagent/pkg/cli"
)

var (
	// Global flags
	verbose      bool
	settingsPath string

	audioInputDevice  string
	audioOutputDevice string

	// paths is the on-disk layout for this invocation, resolved once in
	// initPaths and reused by every subcommand.
	paths *cli.Paths
)

var rootCmd = &cobra.Command{
	Use:   "phoneagent",
	Short: "A modem-backed AI phone and SMS agent",
	Long: `phoneagent places and answers phone calls and SMS on a physical
cellular modem, driving the conversation with a speech-to-text/LLM/
text-to-speech pipeline.

Configuration lives at ~/.phoneagent/phoneagent/config.yaml by default; see
'phoneagent config show' and 'phoneagent config init'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initPaths)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "path to the settings file (default: <app dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&audioInputDevice, "input-device", "", "audio input device name (default: system default)")
	rootCmd.PersistentFlags().StringVar(&audioOutputDevice, "output-device", "", "audio output device name (default: system default)")
}

// pathsLoadErr stores the error from cli.NewPaths for deferred reporting,
// the same pattern the teacher uses for its own config load failure.
var pathsLoadErr error

func initPaths() {
	p, err := cli.NewPaths("phoneagent")
	if err != nil {
		pathsLoadErr = err
		return
	}
	paths = p

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// GetPaths returns the resolved Paths, or an error if it couldn't be
// determined (e.g. the home directory is unavailable).
func GetPaths() (*cli.Paths, error) {
	if paths == nil {
		if pathsLoadErr != nil {
			return nil, fmt.Errorf("paths not available: %w", pathsLoadErr)
		}
		p, err := cli.NewPaths("phoneagent")
		if err != nil {
			return nil, fmt.Errorf("paths not available: %w", err)
		}
		paths = p
	}
	return paths, nil
}

// SettingsPath resolves the --settings flag or the default location under
// the app directory.
func SettingsPath() (string, error) {
	if settingsPath != "" {
		return settingsPath, nil
	}
	p, err := GetPaths()
	if err != nil {
		return "", err
	}
	return p.ConfigFile(), nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

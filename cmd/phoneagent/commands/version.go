package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/scranst/phoneagent/cmd/phoneagent/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(build.String())
		if IsVerbose() {
			fmt.Printf("  go: %s\n", runtime.Version())
			if p, err := GetPaths(); err == nil {
				fmt.Printf("  app dir: %s\n", p.AppDir())
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

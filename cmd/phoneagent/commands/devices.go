package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scranst/phoneagent/pkg/telephony/audiorouter"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio devices for --input-device/--output-device",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := audiorouter.ListDevices()
		if err != nil {
			return err
		}
		for _, d := range devices {
			fmt.Printf("[%d] %s (in=%d out=%d, %.0fHz)\n",
				d.Index, d.Name, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

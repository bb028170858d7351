package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var smsCmd = &cobra.Command{
	Use:   "sms",
	Short: "Send a raw SMS through the modem",
}

var (
	smsTo   string
	smsBody string
)

var smsSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one SMS message, bypassing the AI router",
	RunE:  runSMSSend,
}

func init() {
	smsSendCmd.Flags().StringVar(&smsTo, "to", "", "recipient phone number (required)")
	smsSendCmd.Flags().StringVar(&smsBody, "body", "", "message text (required)")
	smsCmd.AddCommand(smsSendCmd)
	rootCmd.AddCommand(smsCmd)
}

func runSMSSend(cmd *cobra.Command, args []string) error {
	if smsTo == "" || smsBody == "" {
		return fmt.Errorf("--to and --body are required")
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	if !a.Modem.Connect(3) {
		return fmt.Errorf("could not connect to the modem")
	}
	defer a.Modem.Disconnect()

	if !a.Modem.SendSMS(smsTo, smsBody) {
		return fmt.Errorf("modem rejected the message")
	}
	fmt.Println("sent")
	return nil
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scranst/phoneagent/pkg/telephony/callagent"
)

var (
	callTo        string
	callObjective string
	callContext   []string
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Place an outbound call and run the conversation to completion",
	RunE:  runCall,
}

func init() {
	callCmd.Flags().StringVar(&callTo, "to", "", "phone number to dial (required)")
	callCmd.Flags().StringVar(&callObjective, "objective", "", "what the agent should accomplish on this call (required)")
	callCmd.Flags().StringSliceVar(&callContext, "context", nil, "additional key=value context entries for the call")
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	if callTo == "" {
		return fmt.Errorf("--to is required")
	}
	if callObjective == "" {
		return fmt.Errorf("--objective is required")
	}

	entries, err := parseContextFlags(callContext)
	if err != nil {
		return err
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	if !a.Modem.Connect(3) {
		return fmt.Errorf("could not connect to the modem")
	}
	defer a.Modem.Disconnect()

	ctx := context.Background()
	result, err := a.Agent.Call(ctx, callagent.Request{
		Phone:     callTo,
		Objective: callObjective,
		Context:   entries,
	})
	if err != nil {
		return fmt.Errorf("call failed: %w", err)
	}

	printResult(result)
	return nil
}

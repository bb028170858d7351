package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scranst/phoneagent/cmd/phoneagent/internal/app"
	"github.com/scranst/phoneagent/pkg/telephony/callagent"
	"github.com/scranst/phoneagent/pkg/telephony/leadstore"
)

// smsPollInterval is how often the SMS loop checks the modem for new
// messages and the router for agent-requested outbound calls, matching
// sms_ai.py's polling cadence (the SIM7600's AT command set has no push
// notification path to drive this event-based instead).
const smsPollInterval = 5 * time.Second

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Answer inbound calls and process inbound SMS until interrupted",
	Long: `listen connects to the modem and runs forever: every inbound call is
answered and run through the incoming persona, and every inbound SMS is
handed to the SMS router. Press Ctrl+C to stop.`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	if !a.Settings.Incoming.Enabled {
		return fmt.Errorf("incoming.enabled is false in settings; nothing to listen for")
	}
	if !a.Modem.Connect(3) {
		return fmt.Errorf("could not connect to the modem")
	}
	defer a.Modem.Disconnect()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	persona := callagent.InboundPersona{
		Objective: "Answer the caller's question and take a message if needed.",
		Greeting:  a.Settings.ResolvePlaceholders(a.Settings.Incoming.Greeting, nil),
	}
	lookup := leadstore.NewCallerLookup(ctx, a.Leads)

	go runCallLoop(ctx, a, persona, lookup)
	if a.Settings.Incoming.SMSEnabled {
		go runSMSLoop(ctx, a)
	}

	fmt.Println("Listening for inbound calls and SMS. Press Ctrl+C to exit.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return nil
}

// runCallLoop answers inbound calls one at a time until ctx is canceled,
// matching agent.py's main loop: wait for a ring, answer, run the
// conversation to completion, then wait for the next one.
func runCallLoop(ctx context.Context, a *app.App, persona callagent.InboundPersona, lookup *leadstore.CallerLookup) {
	for {
		result, ok, err := a.Agent.HandleInbound(ctx, persona, lookup)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			a.Logger.Error("inbound call failed", "error", err)
			continue
		}
		if !ok {
			continue
		}
		a.Logger.Info("inbound call finished", "phone", result.Phone, "success", result.Success, "summary", result.Summary)
	}
}

// runSMSLoop polls the modem for new SMS and hands each one to the router,
// then drains any calls the router's tool-calling loop queued.
func runSMSLoop(ctx context.Context, a *app.App) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		for _, msg := range a.Modem.CheckNewSMS() {
			reply, err := a.Router.ProcessMessage(ctx, msg.Sender, msg.Message)
			if err != nil {
				a.Logger.Error("sms processing failed", "sender", msg.Sender, "error", err)
				continue
			}
			if reply != "" {
				a.Modem.SendSMS(msg.Sender, reply)
			}
		}

		for a.Router.HasPendingCalls() {
			job, ok := a.Router.GetPendingCall()
			if !ok {
				break
			}
			a.Logger.Info("placing agent-requested call", "phone", job.Phone, "objective", job.Objective)
			if _, err := a.Agent.Call(ctx, callagent.Request{Phone: job.Phone, Objective: job.Objective}); err != nil {
				a.Logger.Error("agent-requested call failed", "phone", job.Phone, "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(smsPollInterval):
		}
	}
}

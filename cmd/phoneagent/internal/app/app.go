// Package app wires every telephony component the CLI commands drive into
// one long-lived process: the modem connection, speech/LLM adapters, the
// lead book, call-log/recording storage, and the outbound call agent and
// inbound SMS router built on top of them. Adapted from agent.py's
// PhoneAgent.__init__ and sms_ai.py's SMSAIHandler construction, which do
// the same one-time assembly before the asyncio event loop starts.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/scranst/phoneagent/cmd/phoneagent/internal/hardware"
	"github.com/scranst/phoneagent/pkg/cli"
	"github.com/scranst/phoneagent/pkg/doubaospeech"
	"github.com/scranst/phoneagent/pkg/genx"
	"github.com/scranst/phoneagent/pkg/kv"
	"github.com/scranst/phoneagent/pkg/storage"
	"github.com/scranst/phoneagent/pkg/telephony/callagent"
	"github.com/scranst/phoneagent/pkg/telephony/calllog"
	"github.com/scranst/phoneagent/pkg/telephony/knowledge"
	"github.com/scranst/phoneagent/pkg/telephony/leadstore"
	"github.com/scranst/phoneagent/pkg/telephony/modem"
	"github.com/scranst/phoneagent/pkg/telephony/settings"
	"github.com/scranst/phoneagent/pkg/telephony/smsrouter"
	"github.com/scranst/phoneagent/pkg/telephony/speechadapt"
	"github.com/scranst/phoneagent/pkg/telephony/vad"
)

// reasoningModel and fastModel name the OpenAI chat models sms_ai.py's
// SMSAIHandler picks by persona tier; llmModel is llm.py's single
// call-time model. No per-deployment override exists yet in Settings, so
// these stay fixed, same as the donor's hardcoded model constants.
const (
	llmModel       = "gpt-4o-mini"
	reasoningModel = "gpt-4o"
	fastModel      = "gpt-4o-mini"
)

// ttsOutputRate is the rate the conversation engine's AudioSink expects,
// matching audiorouter.NativeSampleRate.
const ttsOutputRate = 48000

// sttSampleRate is the rate the VAD hands complete utterances to the
// transcriber at (pkg/telephony/vad's ClassifierRateHz default).
const sttSampleRate = 16000

// App bundles every long-lived dependency a phoneagent command needs. Build
// it once per process with New, then hand Agent/Router/Modem to whichever
// command runs.
type App struct {
	Settings *settings.Settings
	Logger   *slog.Logger

	Modem *modem.Modem
	Leads leadstore.Store

	Agent  *callagent.Agent
	Router *smsrouter.Router

	CallLog    *calllog.Store
	Recordings storage.FileStore
}

// Options configures New beyond what Settings alone carries: on-disk
// locations and audio device selection, all overridable by CLI flags.
type Options struct {
	Paths *cli.Paths

	InputDevice  string
	OutputDevice string

	MaxCallDuration time.Duration
}

// New loads settings from settingsPath and assembles an App.
func New(settingsPath string, opts Options) (*App, error) {
	s, err := settings.Load(settingsPath)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()

	generator, err := newGenerator(s)
	if err != nil {
		return nil, fmt.Errorf("app: build generator: %w", err)
	}

	stt, tts, err := newSpeechAdapters(s)
	if err != nil {
		return nil, fmt.Errorf("app: build speech adapters: %w", err)
	}
	llm := speechadapt.NewLLMEngine(generator, llmModel)

	m := modem.New(hardware.UnconfiguredDiscoverer{}, logger)

	leadsDir := opts.Paths.DataPath("leads")
	if err := os.MkdirAll(leadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("app: create lead store directory: %w", err)
	}
	badger, err := kv.NewBadger(kv.BadgerOptions{Dir: leadsDir})
	if err != nil {
		return nil, fmt.Errorf("app: open lead store: %w", err)
	}
	leads := leadstore.New(badger)

	recordings, err := newStorage(s, opts.Paths.DataPath("recordings"), "recordings")
	if err != nil {
		return nil, fmt.Errorf("app: open recordings store: %w", err)
	}
	logFiles, err := newStorage(s, opts.Paths.DataPath("calls"), "calls")
	if err != nil {
		return nil, fmt.Errorf("app: open call log store: %w", err)
	}
	logs := calllog.New(logFiles)

	maxCallDuration := opts.MaxCallDuration
	if maxCallDuration == 0 {
		maxCallDuration = 10 * time.Minute
	}

	agent := callagent.New(m, opts.InputDevice, opts.OutputDevice, stt, tts, llm,
		vad.DefaultConfig(), logs, recordings, maxCallDuration, "doubao-gpt", logger)
	agent.SetKnowledge(knowledge.NewStore())

	router := smsrouter.New(smsrouter.Config{
		Generator:      generator,
		ReasoningModel: reasoningModel,
		FastModel:      fastModel,
		OwnerPhone:     s.CallbackNumber,
		Leads:          leads,
		Settings:       s,
		SendSMS: func(phone, message string) bool {
			return m.SendSMS(phone, message)
		},
	})
	return &App{
		Settings:   s,
		Logger:     logger,
		Modem:      m,
		Leads:      leads,
		Agent:      agent,
		Router:     router,
		CallLog:    logs,
		Recordings: recordings,
	}, nil
}

// newGenerator builds the shared chat Generator from Settings.APIKeys,
// following pkg/genx/modelloader's registerOpenAI factory idiom (build
// option.RequestOptions from the key, construct an openai.Client, wrap it
// as a genx.OpenAIGenerator) but without the file-based registry, since the
// CLI only ever needs the one generator instance.
func newGenerator(s *settings.Settings) (genx.Generator, error) {
	key := s.APIKeys["openai"]
	if key == "" {
		return nil, fmt.Errorf("settings: api_keys.openai is required")
	}
	client := openai.NewClient(option.WithAPIKey(key))
	return &genx.OpenAIGenerator{
		Client:           &client,
		Model:            llmModel,
		SupportToolCalls: true,
	}, nil
}

// newStorage picks the recording/call-log archival backend named by
// Settings.Storage.Backend. "local" (the default, including an empty
// value) stores under localDir; "s3" reuses pkg/storage's S3Store, giving
// the donor's aws-sdk-go-v2 dependency a deployment-time home without
// C8/C11 needing to know which backend is behind storage.FileStore.
func newStorage(s *settings.Settings, localDir, subPrefix string) (storage.FileStore, error) {
	switch s.Storage.Backend {
	case "", "local":
		return storage.NewLocal(localDir)
	case "s3":
		accessKey := s.APIKeys["aws_access_key_id"]
		secretKey := s.APIKeys["aws_secret_access_key"]
		if accessKey == "" || secretKey == "" {
			return nil, fmt.Errorf("settings: api_keys.aws_access_key_id and api_keys.aws_secret_access_key are required for storage.backend=s3")
		}
		if s.Storage.Bucket == "" {
			return nil, fmt.Errorf("settings: storage.bucket is required for storage.backend=s3")
		}
		region := s.APIKeys["aws_region"]
		if region == "" {
			region = "us-east-1"
		}
		cfg := aws.Config{
			Region: region,
			Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{AccessKeyID: accessKey, SecretAccessKey: secretKey}, nil
			}),
		}
		prefix := s.Storage.Prefix
		if prefix != "" {
			prefix = prefix + "/" + subPrefix
		} else {
			prefix = subPrefix
		}
		return storage.NewS3(s3.NewFromConfig(cfg), s.Storage.Bucket, prefix), nil
	default:
		return nil, fmt.Errorf("settings: unknown storage.backend %q (want \"local\" or \"s3\")", s.Storage.Backend)
	}
}

// newSpeechAdapters builds the Doubao-backed STT/TTS pair llm.py's call
// loop and sms_ai.py never needed (voice is C6/C7's concern, not C9's), from
// the doubao_app_id/doubao_access_key/doubao_app_key entries in
// Settings.APIKeys.
func newSpeechAdapters(s *settings.Settings) (speechadapt.Transcriber, speechadapt.Synthesizer, error) {
	appID := s.APIKeys["doubao_app_id"]
	accessKey := s.APIKeys["doubao_access_key"]
	if appID == "" || accessKey == "" {
		return nil, nil, fmt.Errorf("settings: api_keys.doubao_app_id and api_keys.doubao_access_key are required")
	}
	appKey := s.APIKeys["doubao_app_key"]
	if appKey == "" {
		appKey = appID
	}
	client := doubaospeech.NewClient(appID, doubaospeech.WithV2APIKey(accessKey, appKey))

	stt := speechadapt.NewDoubaoTranscriber(client, sttSampleRate, "en-US")
	tts := speechadapt.NewDoubaoSynthesizer(client, "en_male_adam", ttsOutputRate)
	return stt, tts, nil
}

package doubaospeech

import (
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://openspeech.bytedance.com"
	defaultWSURL   = "wss://openspeech.bytedance.com"
	defaultTimeout = 30 * time.Second
)

// V2/V3 API Resource IDs actually requested by this package's callers.
const (
	// ResourceTTSV2 is the default seed-tts-2.0 resource for streaming synthesis.
	ResourceTTSV2 = "seed-tts-2.0"

	// ResourceASRStream is the streaming (duration-billed) recognition resource.
	ResourceASRStream = "volc.bigasr.sauc.duration"

	// ResourceASRFile is the file/async recognition resource.
	ResourceASRFile = "volc.bigasr.auc.duration"
)

// Client represents Doubao Speech API client
type Client struct {
	TTSV2 *TTSServiceV2 // TTS 大模型版 (/api/v3/tts/*)
	ASRV2 *ASRServiceV2 // ASR 大模型版 (/api/v3/sauc/*, /api/v3/asr/*)

	config *clientConfig
}

// clientConfig represents client configuration
type clientConfig struct {
	appID       string
	accessToken string // Bearer Token auth (fallback for V2/V3 APIs)
	accessKey   string // X-Api-Access-Key auth (for V2/V3 APIs)
	apiKey      string // x-api-key auth (simple API Key, for all APIs)
	resourceID  string // Resource ID for V2 APIs (e.g. seed-tts-2.0)
	baseURL     string
	wsURL       string
	httpClient  *http.Client
	timeout     time.Duration
	userID      string // User identifier
}

// Option represents configuration option function
type Option func(*clientConfig)

// NewClient creates Doubao Speech client
//
// appID is the application ID from Volcano Engine console
func NewClient(appID string, opts ...Option) *Client {
	config := &clientConfig{
		appID:   appID,
		baseURL: defaultBaseURL,
		wsURL:   defaultWSURL,
		timeout: defaultTimeout,
		userID:  "default_user",
	}

	for _, opt := range opts {
		opt(config)
	}

	if config.httpClient == nil {
		config.httpClient = &http.Client{
			Timeout: config.timeout,
		}
	}

	c := &Client{
		config: config,
	}

	c.TTSV2 = newTTSServiceV2(c)
	c.ASRV2 = newASRServiceV2(c)

	return c
}

// WithBearerToken uses Bearer Token authentication
//
// token is the access_token from console
// Header format: Authorization: Bearer {token}
func WithBearerToken(token string) Option {
	return func(c *clientConfig) {
		c.accessToken = token
	}
}

// WithAPIKey uses simple API Key authentication (recommended)
//
// apiKey is from: https://console.volcengine.com/speech/new/setting/apikeys
// Header format: x-api-key: {apiKey}
//
// This is the simplest authentication method for TTS/ASR APIs.
// No appid required in requests when using this method.
func WithAPIKey(apiKey string) Option {
	return func(c *clientConfig) {
		c.apiKey = apiKey
	}
}

// WithV2APIKey uses V2/V3 API Key authentication
//
// Header format:
//   - X-Api-Access-Key: {accessKey}
//   - X-Api-App-Key: {appID}
//
// This is required for V2/V3 API endpoints (BigModel TTS/ASR streaming).
// accessKey is the Bearer Token; appKey is accepted for the symmetry of the
// console's key pair but the App-Key header is always the client's AppID.
func WithV2APIKey(accessKey, appKey string) Option {
	return func(c *clientConfig) {
		c.accessKey = accessKey
	}
}

// WithResourceID sets the default resource ID for V2 APIs
func WithResourceID(resourceID string) Option {
	return func(c *clientConfig) {
		c.resourceID = resourceID
	}
}

// WithBaseURL sets HTTP API base URL
//
// Default: https://openspeech.bytedance.com
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithWebSocketURL sets WebSocket URL
//
// Default: wss://openspeech.bytedance.com
func WithWebSocketURL(url string) Option {
	return func(c *clientConfig) {
		c.wsURL = url
	}
}

// WithHTTPClient sets custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithUserID sets user identifier
func WithUserID(userID string) Option {
	return func(c *clientConfig) {
		c.userID = userID
	}
}

// setV2AuthHeaders sets authentication headers for V2/V3 APIs
//
// V2 APIs use X-Api-* headers:
//   - X-Api-App-Key: AppID
//   - X-Api-Access-Key: Bearer Token
//   - X-Api-Resource-Id: Resource ID (e.g. seed-tts-2.0)
//   - X-Api-Connect-Id: Connection ID (for WebSocket)
func (c *Client) setV2AuthHeaders(req *http.Request, resourceID string) {
	// Set App Key (AppID)
	req.Header.Set("X-Api-App-Key", c.config.appID)

	// Set Access Key (Bearer Token)
	if c.config.accessKey != "" {
		req.Header.Set("X-Api-Access-Key", c.config.accessKey)
	} else if c.config.accessToken != "" {
		req.Header.Set("X-Api-Access-Key", c.config.accessToken)
	} else if c.config.apiKey != "" {
		// x-api-key also works for V2 APIs
		req.Header.Set("x-api-key", c.config.apiKey)
	}

	// Set Resource ID
	if resourceID != "" {
		req.Header.Set("X-Api-Resource-Id", resourceID)
	} else if c.config.resourceID != "" {
		req.Header.Set("X-Api-Resource-Id", c.config.resourceID)
	}
}

// getV2WSHeaders returns WebSocket headers for V2/V3 APIs
func (c *Client) getV2WSHeaders(resourceID, connectID string) http.Header {
	headers := http.Header{}

	headers.Set("X-Api-App-Key", c.config.appID)
	headers.Set("X-Api-App-Id", c.config.appID)

	if c.config.accessKey != "" {
		headers.Set("X-Api-Access-Key", c.config.accessKey)
	} else if c.config.accessToken != "" {
		headers.Set("X-Api-Access-Key", c.config.accessToken)
	} else if c.config.apiKey != "" {
		headers.Set("x-api-key", c.config.apiKey)
	}

	if resourceID != "" {
		headers.Set("X-Api-Resource-Id", resourceID)
	}
	if connectID != "" {
		headers.Set("X-Api-Connect-Id", connectID)
	}

	return headers
}

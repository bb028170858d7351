// Package settings loads and resolves the telephony core's deployment
// configuration: the owner's identity, API keys, the inbound-call persona,
// and calendar integration credentials. One YAML file per deployment,
// loaded once at process start, in the donor's ConfigStore idiom
// (pkg/cortex: read-whole-file-then-yaml.Unmarshal, no watching).
package settings

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/scranst/phoneagent/pkg/telephony/leadstore"
)

// Settings is the typed deployment configuration.
type Settings struct {
	MyName         string            `yaml:"my_name"`
	CallbackNumber string            `yaml:"callback_number"`
	Company        string            `yaml:"company"`
	City           string            `yaml:"city"`
	APIKeys        map[string]string `yaml:"api_keys"`
	Incoming       Incoming          `yaml:"incoming"`
	Integrations   Integrations      `yaml:"integrations"`
	Storage        Storage           `yaml:"storage"`
}

// Incoming configures how inbound calls and SMS are handled.
type Incoming struct {
	Enabled    bool   `yaml:"enabled"`
	Persona    string `yaml:"persona"`
	Greeting   string `yaml:"greeting"`
	SMSEnabled bool   `yaml:"sms_enabled"`
}

// Integrations names the calendar provider in use and its credentials.
type Integrations struct {
	CalendarProvider string            `yaml:"calendar_provider"`
	Credentials      map[string]string `yaml:"credentials"`
}

// Storage selects where call recordings and call-log entries archive to.
// Backend is "local" (the default, when empty) or "s3"; Bucket and Prefix
// are only consulted for "s3".
type Storage struct {
	Backend string `yaml:"backend"`
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
}

// Load reads and parses Settings from a YAML file at path.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	return &s, nil
}

// Save writes s to path as YAML, creating or truncating the file.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("settings: write %s: %w", path, err)
	}
	return nil
}

// ResolvePlaceholders substitutes {MY_NAME}, {COMPANY}, {CITY}, and
// {CALLBACK_NUMBER} from s, then overlays {CONTACT_NAME} and
// {CONTACT_COMPANY} from lead when one is supplied, matching the
// persona/greeting placeholder scheme of the original source's incoming
// call config.
func (s *Settings) ResolvePlaceholders(template string, lead *leadstore.Lead) string {
	replacements := map[string]string{
		"{MY_NAME}":         s.MyName,
		"{COMPANY}":         s.Company,
		"{CITY}":            s.City,
		"{CALLBACK_NUMBER}": s.CallbackNumber,
	}
	if lead != nil {
		replacements["{CONTACT_NAME}"] = lead.FullName()
		replacements["{CONTACT_COMPANY}"] = lead.Company
	}

	out := template
	for placeholder, value := range replacements {
		out = strings.ReplaceAll(out, placeholder, value)
	}
	return out
}

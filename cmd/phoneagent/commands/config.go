package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scranst/phoneagent/pkg/telephony/settings"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage phoneagent's deployment settings file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter settings file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := SettingsPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("settings file already exists at %s", path)
		}

		p, err := GetPaths()
		if err != nil {
			return err
		}
		if err := p.EnsureDataDir(); err != nil {
			return fmt.Errorf("create app directory: %w", err)
		}

		s := &settings.Settings{
			MyName:         "Assistant",
			CallbackNumber: "",
			Company:        "",
			City:           "",
			APIKeys: map[string]string{
				"openai":            "",
				"doubao_app_id":     "",
				"doubao_access_key": "",
			},
			Incoming: settings.Incoming{
				Enabled:    false,
				Persona:    "receptionist",
				Greeting:   "Hi, this is {MY_NAME}'s assistant. How can I help you?",
				SMSEnabled: false,
			},
			Storage: settings.Storage{
				Backend: "local",
			},
		}
		if err := s.Save(path); err != nil {
			return fmt.Errorf("write settings: %w", err)
		}
		fmt.Printf("Wrote starter settings to %s\n", path)
		fmt.Println("Fill in api_keys and callback_number before running 'phoneagent call' or 'phoneagent listen'.")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved settings file location and its contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := SettingsPath()
		if err != nil {
			return err
		}
		fmt.Println(path)

		s, err := settings.Load(path)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		fmt.Printf("my_name: %s\n", s.MyName)
		fmt.Printf("company: %s\n", s.Company)
		fmt.Printf("city: %s\n", s.City)
		fmt.Printf("callback_number: %s\n", s.CallbackNumber)
		fmt.Printf("incoming.enabled: %v\n", s.Incoming.Enabled)
		fmt.Printf("incoming.sms_enabled: %v\n", s.Incoming.SMSEnabled)
		backend := s.Storage.Backend
		if backend == "" {
			backend = "local"
		}
		fmt.Printf("storage.backend: %s\n", backend)
		for k := range s.APIKeys {
			configured := s.APIKeys[k] != ""
			fmt.Printf("api_keys.%s configured: %v\n", k, configured)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

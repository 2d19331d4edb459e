package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"area/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/area"
	configFileName = "config.yaml"
)

// Environment variables recognized by ApplyEnvOverrides. Environment always
// wins over the config file so that containerized and CI deployments can
// configure the client without writing files.
const (
	EnvAPIBaseURL      = "AREA_API_URL"
	EnvAPIVersion      = "AREA_API_VERSION"
	EnvRealtimeURL     = "AREA_WS_URL"
	EnvCallbackPort    = "AREA_CALLBACK_PORT"
	EnvLogLevel        = "AREA_LOG_LEVEL"
	EnvGoogleClientID  = "AREA_GOOGLE_CLIENT_ID"
	EnvGitHubClientID  = "AREA_GITHUB_CLIENT_ID"
	EnvDiscordClientID = "AREA_DISCORD_CLIENT_ID"
)

// GetDefaultConfigPathOrPanic returns the default configuration directory
// (~/.config/area). It panics when the home directory cannot be determined,
// which only happens in badly broken environments.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from the specified directory. A missing
// config.yaml is not an error: defaults apply, then environment overrides.
func LoadConfig(configPath string) (AreaConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("Config", "No config.yaml found at %s, using defaults", configFilePath)
			ApplyEnvOverrides(&config)
			return config, nil
		}
		return AreaConfig{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return AreaConfig{}, fmt.Errorf("error parsing config from %s: %w", configFilePath, err)
	}

	logging.Debug("Config", "Loaded configuration from %s", configFilePath)
	ApplyEnvOverrides(&config)
	return config, nil
}

// ApplyEnvOverrides overlays recognized environment variables onto the
// configuration. Unset variables leave the existing values untouched.
func ApplyEnvOverrides(config *AreaConfig) {
	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		config.API.BaseURL = v
	}
	if v := os.Getenv(EnvAPIVersion); v != "" {
		config.API.Version = v
	}
	if v := os.Getenv(EnvRealtimeURL); v != "" {
		config.Realtime.Endpoint = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.Log.Level = v
	}
	if v := os.Getenv(EnvCallbackPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			config.OAuth.CallbackPort = port
		} else {
			logging.Warn("Config", "Ignoring invalid %s value %q", EnvCallbackPort, v)
		}
	}

	overrideClientID(config, "google", EnvGoogleClientID)
	overrideClientID(config, "github", EnvGitHubClientID)
	overrideClientID(config, "discord", EnvDiscordClientID)
}

func overrideClientID(config *AreaConfig, family, envVar string) {
	v := os.Getenv(envVar)
	if v == "" {
		return
	}
	if config.OAuth.Providers == nil {
		config.OAuth.Providers = make(map[string]ProviderConfig)
	}
	pc := config.OAuth.Providers[family]
	pc.ClientID = v
	config.OAuth.Providers[family] = pc
}

package config

// Defaults applied when the config file is absent or leaves fields unset.
const (
	DefaultBaseURL      = "http://localhost:8000"
	DefaultAPIVersion   = "api"
	DefaultLogLevel     = "info"
	DefaultCallbackPort = 8085
)

// GetDefaultConfig returns the default configuration for the area client.
// The realtime endpoint deliberately has no default: notifications are an
// optional feature that is skipped entirely when unconfigured.
func GetDefaultConfig() AreaConfig {
	return AreaConfig{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Version: DefaultAPIVersion,
		},
		OAuth: OAuthConfig{
			CallbackPort: DefaultCallbackPort,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

package config

// AreaConfig is the top-level configuration structure for the area client.
type AreaConfig struct {
	API      APIConfig      `yaml:"api"`
	Realtime RealtimeConfig `yaml:"realtime"`
	OAuth    OAuthConfig    `yaml:"oauth"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig configures the backend REST endpoint.
type APIConfig struct {
	// BaseURL is the backend origin, e.g. "http://localhost:8000".
	// A trailing slash is tolerated.
	BaseURL string `yaml:"baseUrl,omitempty"`

	// Version is the path segment between the origin and every endpoint
	// (default: "api").
	Version string `yaml:"version,omitempty"`
}

// RealtimeConfig configures the realtime notification channel.
type RealtimeConfig struct {
	// Endpoint is the websocket URL for execution notifications.
	// When empty, the realtime channel is disabled entirely.
	Endpoint string `yaml:"endpoint,omitempty"`
}

// ProviderConfig holds the per-provider OAuth client configuration.
type ProviderConfig struct {
	// ClientID is the OAuth client identifier registered with the provider.
	// A flow for a provider without a client ID fails fast before any
	// window or network activity.
	ClientID string `yaml:"clientId,omitempty"`
}

// OAuthConfig configures the OAuth flow controller.
type OAuthConfig struct {
	// CallbackPort is the port for the local authorization callback
	// listener. 0 selects the default port.
	CallbackPort int `yaml:"callbackPort,omitempty"`

	// Providers maps a provider family name (google, github, discord) to
	// its client configuration.
	Providers map[string]ProviderConfig `yaml:"providers,omitempty"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level,omitempty"`
}

// ClientID returns the configured client ID for a provider family, or ""
// when none is configured.
func (c OAuthConfig) ClientID(family string) string {
	return c.Providers[family].ClientID
}

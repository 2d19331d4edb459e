package api

import "encoding/json"

// Parameter describes a single action or reaction parameter.
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Action is a trigger offered by a service.
type Action struct {
	ID           int                    `json:"id,omitempty"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Params       []Parameter            `json:"params,omitempty"`
	ConfigSchema map[string]interface{} `json:"config_schema,omitempty"`
}

// Reaction is a response offered by a service.
type Reaction struct {
	ID           int                    `json:"id,omitempty"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Params       []Parameter            `json:"params,omitempty"`
	ConfigSchema map[string]interface{} `json:"config_schema,omitempty"`
}

// OAuthConfig carries the OAuth parameters the backend publishes for a
// service. Older backends send the authorization endpoint as "auth_url",
// newer ones as "authorization_url"; AuthorizationURL resolves the two.
type OAuthConfig struct {
	Scopes           []string `json:"scopes,omitempty"`
	AuthURL          string   `json:"auth_url,omitempty"`
	AuthorizationURL string   `json:"authorization_url,omitempty"`
	TokenURL         string   `json:"token_url,omitempty"`
}

// AuthorizationEndpoint returns the authorization endpoint, preferring the
// newer field name.
func (c OAuthConfig) AuthorizationEndpoint() string {
	if c.AuthorizationURL != "" {
		return c.AuthorizationURL
	}
	return c.AuthURL
}

// Service is a capability catalog entry: one third-party service with its
// OAuth requirements and the actions/reactions it offers. Immutable once
// fetched.
type Service struct {
	Name          string      `json:"name"`
	DisplayName   string      `json:"display_name"`
	RequiresOAuth bool        `json:"requires_oauth"`
	IsConnected   bool        `json:"is_connected,omitempty"`
	IsActive      bool        `json:"is_active,omitempty"`
	OAuthConfig   OAuthConfig `json:"oauth_config"`
	Actions       []Action    `json:"actions"`
	Reactions     []Reaction  `json:"reactions"`
}

// ServerInfo is the server half of the about document.
type ServerInfo struct {
	CurrentTime int64     `json:"current_time"`
	Services    []Service `json:"services"`
}

// AboutResponse is the capability catalog document served at
// core/about.json.
type AboutResponse struct {
	Client struct {
		Host string `json:"host"`
	} `json:"client"`
	Server ServerInfo `json:"server"`
}

// AreaAction binds a service action into an area.
type AreaAction struct {
	ServiceName string                 `json:"service_name"`
	ActionName  string                 `json:"action_name"`
	Params      map[string]interface{} `json:"params"`
}

// AreaReaction binds a service reaction into an area.
type AreaReaction struct {
	ServiceName  string                 `json:"service_name"`
	ReactionName string                 `json:"reaction_name"`
	Params       map[string]interface{} `json:"params"`
}

// CreateAreaRequest is the payload for creating an automation rule.
type CreateAreaRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Action      AreaAction     `json:"action"`
	Reactions   []AreaReaction `json:"reactions"`
}

// Area is an automation rule as returned by the backend.
type Area struct {
	ID          json.Number    `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	IsActive    bool           `json:"is_active"`
	Action      AreaAction     `json:"action"`
	Reactions   []AreaReaction `json:"reactions"`
	CreatedAt   string         `json:"created_at,omitempty"`
}

// HistoryEntry is one execution record of an area.
type HistoryEntry struct {
	ID         json.Number `json:"id"`
	Status     string      `json:"status"`
	ExecutedAt string      `json:"executed_at"`
	Detail     string      `json:"detail,omitempty"`
}

// Statistics summarizes the user's areas and their executions.
type Statistics struct {
	TotalAreas      int `json:"total_areas"`
	ActiveAreas     int `json:"active_areas"`
	TotalExecutions int `json:"total_executions"`
	FailedRuns      int `json:"failed_runs,omitempty"`
}

// User is the authenticated account as returned by auth/me/.
type User struct {
	ID        json.Number `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name,omitempty"`
	LastName  string      `json:"last_name,omitempty"`
}

// LoginResponse is the final response of the authentication sequence. The
// first step of a two-factor login returns Requires2FA with no tokens; the
// verification step returns the token pair.
type LoginResponse struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Requires2FA  bool   `json:"requires_2fa,omitempty"`
	Detail       string `json:"detail,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// ConnectionStatus describes one service's OAuth connection state as
// reported by oauth/status/.
type ConnectionStatus struct {
	Connected bool                   `json:"connected"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// CompleteResult is the backend's answer to the OAuth completion
// handshake.
type CompleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Service string `json:"service,omitempty"`
	Error   string `json:"error,omitempty"`
}

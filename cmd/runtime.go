package cmd

import (
	"os"

	"area/internal/api"
	"area/internal/catalog"
	"area/internal/cli"
	"area/internal/config"
	"area/internal/oauth"
	"area/internal/session"
	"area/pkg/logging"
)

// runtime carries the wired collaborators each command runs against.
// Every command builds its own instance; nothing is process-global.
type runtime struct {
	cfg      config.AreaConfig
	sessions *session.Store
	api      *api.Client
	catalog  *catalog.Cache
}

// newRuntime loads configuration, initializes logging and wires the
// shared collaborators.
func newRuntime() (*runtime, error) {
	configDir := config.GetDefaultConfigPathOrPanic()

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, err
	}

	logging.Init(logging.ParseLevel(cfg.Log.Level), os.Stderr)

	sessions, err := session.NewStore(session.StoreConfig{Dir: configDir})
	if err != nil {
		return nil, err
	}

	apiClient := api.NewClient(api.ClientConfig{
		BaseURL:  cfg.API.BaseURL,
		Version:  cfg.API.Version,
		Sessions: sessions,
	})

	return &runtime{
		cfg:      cfg,
		sessions: sessions,
		api:      apiClient,
		catalog:  catalog.NewCache(apiClient),
	}, nil
}

// requireSession fails with an AuthRequiredError when no session
// exists.
func (r *runtime) requireSession() error {
	if !r.sessions.Authenticated() {
		return &cli.AuthRequiredError{}
	}
	return nil
}

// flowController builds the authorization flow controller for this
// runtime.
func (r *runtime) flowController() *oauth.FlowController {
	return oauth.NewFlowController(oauth.ControllerConfig{
		Catalog:      r.catalog,
		Backend:      r.api,
		ClientID:     r.cfg.OAuth.ClientID,
		CallbackPort: r.cfg.OAuth.CallbackPort,
	})
}

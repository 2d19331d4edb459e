package oauth

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"area/pkg/logging"
)

// DefaultCallbackPort is the default port for the local redirect
// listener. The configuration layer applies it; the server itself
// treats port 0 as "any free port".
const DefaultCallbackPort = 8085

// CallbackTimeout bounds how long a flow waits for the user to finish
// in the browser.
const CallbackTimeout = 5 * time.Minute

//go:embed templates/callback_success.html
var callbackSuccessHTML string

//go:embed templates/callback_error.html
var callbackErrorHTML string

// CallbackResult is what the provider sent back through the redirect.
type CallbackResult struct {
	// Code is the one-time authorization code.
	Code string

	// State echoes the nonce from the authorization request.
	State string

	// Error is the provider's error code, when authorization failed.
	Error string

	// ErrorDescription is the provider's human-readable error text.
	ErrorDescription string
}

// Denied reports whether the provider refused authorization.
func (r *CallbackResult) Denied() bool {
	return r.Error != ""
}

// CallbackServer is a short-lived local HTTP server that receives one
// provider redirect and then shuts down. The redirect uses GET with the
// result in query parameters.
type CallbackServer struct {
	port     int
	server   *http.Server
	listener net.Listener
	resultCh chan *CallbackResult
	errCh    chan error
	once     sync.Once
	baseURL  string
}

// NewCallbackServer creates a callback server for the given port. Port 0
// requests a kernel-assigned port; providers that require an exact
// redirect URI match need the fixed configured port instead.
func NewCallbackServer(port int) *CallbackServer {
	return &CallbackServer{
		port:     port,
		resultCh: make(chan *CallbackResult, 1),
		errCh:    make(chan error, 1),
	}
}

// Start binds the listener and begins serving. The server stops when
// ctx is cancelled, after the first callback, or on Stop. It returns
// the redirect URI to register with the authorization request.
func (s *CallbackServer) Start(ctx context.Context) (string, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port
	s.baseURL = fmt.Sprintf("http://localhost:%d", s.port)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case s.errCh <- err:
			default:
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return s.RedirectURI(), nil
}

// Wait blocks until the provider redirect arrives, the server fails, or
// ctx is done. A cancelled context is the "user closed the window"
// signal and surfaces as ctx.Err().
func (s *CallbackServer) Wait(ctx context.Context) (*CallbackResult, error) {
	select {
	case result := <-s.resultCh:
		return result, nil
	case err := <-s.errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RedirectURI returns the redirect URI served by this listener.
func (s *CallbackServer) RedirectURI() string {
	return s.baseURL + "/callback"
}

// Port returns the bound port.
func (s *CallbackServer) Port() int {
	return s.port
}

// Stop shuts the server down. Safe to call more than once.
func (s *CallbackServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// handleCallback accepts exactly one redirect; later hits get a 400.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	var handled bool
	s.once.Do(func() {
		handled = true
		s.deliver(w, r)
	})
	if !handled {
		http.Error(w, "callback already processed", http.StatusBadRequest)
	}
}

func (s *CallbackServer) deliver(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")

	query := r.URL.Query()
	result := &CallbackResult{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	var tmpl *template.Template
	var data interface{}
	if result.Denied() {
		tmpl = template.Must(template.New("error").Parse(callbackErrorHTML))
		data = map[string]string{
			"Error":       result.Error,
			"Description": result.ErrorDescription,
		}
	} else {
		tmpl = template.Must(template.New("success").Parse(callbackSuccessHTML))
		data = map[string]string{}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		logging.Error("OAuth", err, "Failed to render callback page")
	}

	select {
	case s.resultCh <- result:
	default:
	}

	// let the response flush before tearing the server down
	go func() {
		time.Sleep(time.Second)
		s.Stop()
	}()
}

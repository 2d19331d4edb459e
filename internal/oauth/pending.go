package oauth

import (
	"crypto/subtle"
	"sync"
	"time"

	"github.com/google/uuid"

	"area/pkg/logging"
	pkgoauth "area/pkg/oauth"
)

// pendingExpiry is how long a pending flow stays claimable before it is
// treated as abandoned.
const pendingExpiry = 10 * time.Minute

// PendingFlow is one in-progress authorization, keyed by provider in
// the store. The state nonce is single use.
type PendingFlow struct {
	// FlowID uniquely identifies this flow for logging.
	FlowID uuid.UUID

	// Provider is the service name the flow authorizes.
	Provider string

	// StateNonce ties the provider callback to this flow.
	StateNonce string

	// OpenedAt is when the flow was started.
	OpenedAt time.Time
}

// PendingStore tracks at most one in-progress flow per provider.
// Safe for concurrent use.
type PendingStore struct {
	mu    sync.Mutex
	flows map[string]*PendingFlow
}

// NewPendingStore creates an empty pending-flow store.
func NewPendingStore() *PendingStore {
	return &PendingStore{flows: make(map[string]*PendingFlow)}
}

// Begin registers a new pending flow for provider with a fresh state
// nonce. Returns ErrFlowInProgress if one is already pending and not
// expired.
func (p *PendingStore) Begin(provider string) (*PendingFlow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.flows[provider]; ok {
		if time.Since(existing.OpenedAt) < pendingExpiry {
			return nil, ErrFlowInProgress
		}
		logging.Warn("OAuth", "Discarding abandoned flow %s for %s", existing.FlowID, provider)
		delete(p.flows, provider)
	}

	nonce, err := pkgoauth.GenerateState()
	if err != nil {
		return nil, err
	}

	flow := &PendingFlow{
		FlowID:     uuid.New(),
		Provider:   provider,
		StateNonce: nonce,
		OpenedAt:   time.Now(),
	}
	p.flows[provider] = flow

	logging.Debug("OAuth", "Started flow %s for %s", flow.FlowID, provider)
	return flow, nil
}

// Consume validates state against the pending flow for provider and
// removes the flow on success. The nonce cannot be consumed twice.
func (p *PendingStore) Consume(provider, state string) (*PendingFlow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	flow, ok := p.flows[provider]
	if !ok {
		return nil, ErrStateMismatch
	}
	if subtle.ConstantTimeCompare([]byte(flow.StateNonce), []byte(state)) != 1 {
		logging.Warn("OAuth", "State mismatch on callback for %s (flow %s)", provider, flow.FlowID)
		return nil, ErrStateMismatch
	}

	delete(p.flows, provider)
	return flow, nil
}

// Cancel drops the pending flow for provider, if any.
func (p *PendingStore) Cancel(provider string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.flows, provider)
}

// Pending reports whether a live flow exists for provider.
func (p *PendingStore) Pending(provider string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	flow, ok := p.flows[provider]
	return ok && time.Since(flow.OpenedAt) < pendingExpiry
}

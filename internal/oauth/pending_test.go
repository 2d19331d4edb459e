package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginGeneratesFreshDistinctState(t *testing.T) {
	store := NewPendingStore()

	first, err := store.Begin("github")
	require.NoError(t, err)
	require.NotEmpty(t, first.StateNonce)
	assert.NotEqual(t, first.FlowID.String(), "00000000-0000-0000-0000-000000000000")

	// a second provider's flow gets its own nonce
	second, err := store.Begin("discord")
	require.NoError(t, err)
	assert.NotEqual(t, first.StateNonce, second.StateNonce)
	assert.NotEqual(t, first.FlowID, second.FlowID)
}

func TestBeginRejectsSecondFlowForSameProvider(t *testing.T) {
	store := NewPendingStore()

	_, err := store.Begin("github")
	require.NoError(t, err)

	_, err = store.Begin("github")
	assert.ErrorIs(t, err, ErrFlowInProgress)

	// other providers are unaffected
	_, err = store.Begin("discord")
	assert.NoError(t, err)
}

func TestConsumeValidatesAndBurnsNonce(t *testing.T) {
	store := NewPendingStore()

	flow, err := store.Begin("github")
	require.NoError(t, err)

	got, err := store.Consume("github", flow.StateNonce)
	require.NoError(t, err)
	assert.Equal(t, flow.FlowID, got.FlowID)

	// replay is rejected
	_, err = store.Consume("github", flow.StateNonce)
	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestConsumeRejectsWrongState(t *testing.T) {
	store := NewPendingStore()

	flow, err := store.Begin("github")
	require.NoError(t, err)

	_, err = store.Consume("github", "attacker-chosen-state")
	assert.ErrorIs(t, err, ErrStateMismatch)

	// the flow survives a failed consume
	assert.True(t, store.Pending("github"))

	_, err = store.Consume("github", flow.StateNonce)
	assert.NoError(t, err)
}

func TestCancelFreesProvider(t *testing.T) {
	store := NewPendingStore()

	_, err := store.Begin("github")
	require.NoError(t, err)

	store.Cancel("github")
	assert.False(t, store.Pending("github"))

	_, err = store.Begin("github")
	assert.NoError(t, err)
}

package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyFor(t *testing.T) {
	tests := []struct {
		service      string
		wantStrategy strategy
		wantFamily   string
		wantOK       bool
	}{
		{"google", strategyBrokered, "google", true},
		{"google_calendar", strategyBrokered, "google", true},
		{"google_gmail", strategyBrokered, "google", true},
		{"github", strategyRedirect, "github", true},
		{"discord", strategyRedirect, "discord", true},
		{"spotify", 0, "", false},
		{"", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			family, ok := familyFor(tt.service)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantStrategy, family.Strategy)
				assert.Equal(t, tt.wantFamily, family.ConfigFamily)
			}
		})
	}
}

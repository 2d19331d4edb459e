package oauth

import "strings"

// strategy selects how a provider family is authorized.
type strategy int

const (
	// strategyBrokered talks to the provider directly and hands the
	// backend the resulting credential.
	strategyBrokered strategy = iota

	// strategyRedirect opens the provider's authorization page from the
	// backend-published URL and forwards the redirected code.
	strategyRedirect
)

// providerFamily is one row of the dispatch table.
type providerFamily struct {
	// Name is the service name, or the family prefix when Prefix is
	// set.
	Name string

	// Prefix matches every service whose name starts with Name
	// (google, google_calendar, google_gmail, ...).
	Prefix bool

	// Strategy is the authorization strategy for the family.
	Strategy strategy

	// ConfigFamily is the client-ID family in the configuration.
	ConfigFamily string
}

// providerFamilies drives strategy dispatch. Adding a provider means
// adding a row, not a branch.
var providerFamilies = []providerFamily{
	{Name: "google", Prefix: true, Strategy: strategyBrokered, ConfigFamily: "google"},
	{Name: "github", Strategy: strategyRedirect, ConfigFamily: "github"},
	{Name: "discord", Strategy: strategyRedirect, ConfigFamily: "discord"},
}

// familyFor resolves the dispatch row for a service name. The second
// return is false for services no strategy covers.
func familyFor(serviceName string) (providerFamily, bool) {
	for _, family := range providerFamilies {
		if family.Prefix {
			if strings.HasPrefix(serviceName, family.Name) {
				return family, true
			}
			continue
		}
		if serviceName == family.Name {
			return family, true
		}
	}
	return providerFamily{}, false
}

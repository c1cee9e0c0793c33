package keycloakauth

import (
	"net/http"
)

// Config of a KeycloakAuth
type Config struct {
	// URL of the keycloak server without the realm part
	// e.g. https://<DOMAIN>:<PORT> or https://<DOMAIN>:<PORT>/auth for older versions
	BaseURL string

	// Defaults to "master"
	Realm string

	ClientID     string
	ClientSecret string

	// Where keycloak redirects to after login
	RedirectURL string

	// Defaults to "openid"
	Scopes []string

	// Optional: public key (PEM or raw base64) used to verify access tokens when
	// extracting roles. If empty, the active key for Algorithm is fetched from the realm.
	PublicKey string
	// Optional: e.g. RS256. Role extraction is disabled if neither PublicKey nor Algorithm is set.
	Algorithm string

	// Optional: static target after logout, see KeycloakAuth.StaticLogoutURL
	PostLogoutRedirectURI string
}

// Option customizes a KeycloakAuth in NewKeycloakAuth
type Option func(*KeycloakAuth)

// WithHTTPClient sets the client used for all outgoing requests (token exchange,
// userinfo, keys and jwks). Timeouts and retries are the client's business.
func WithHTTPClient(client *http.Client) Option {
	return func(k *KeycloakAuth) {
		k.httpClient = client
	}
}

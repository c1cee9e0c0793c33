package keycloakauth

import (
	"strings"

	"golang.org/x/oauth2"
)

// Endpoints are the realm scoped URLs a keycloak client talks to
type Endpoints struct {
	// Realm root, e.g. https://<DOMAIN>/realms/<REALM>. Also the issuer of tokens.
	Issuer string

	AuthURL     string
	TokenURL    string
	UserinfoURL string
	LogoutURL   string
	CertsURL    string

	// Admin endpoint listing the realm keys. It is built from the base url
	// as given, not from the realm root.
	KeysURL string
}

// ResolveEndpoints derives all protocol endpoints for realm on the server at baseURL.
// An empty realm falls back to "master".
func ResolveEndpoints(baseURL, realm string) Endpoints {
	if realm == "" {
		realm = defaultRealm
	}

	root := strings.TrimRight(strings.TrimRight(baseURL, "/")+"/realms/"+realm, "/")
	protocol := root + openIDConnectPath

	return Endpoints{
		Issuer:      root,
		AuthURL:     protocol + "/auth",
		TokenURL:    protocol + "/token",
		UserinfoURL: protocol + "/userinfo",
		LogoutURL:   protocol + "/logout",
		CertsURL:    protocol + "/certs",
		KeysURL:     baseURL + "/admin/realms/" + realm + "/keys",
	}
}

// OAuth2Endpoint returns the auth and token urls for x/oauth2
func (e Endpoints) OAuth2Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:  e.AuthURL,
		TokenURL: e.TokenURL,
	}
}

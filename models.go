package keycloakauth

// Claims of a keycloak access token which are relevant for authorization
type KeycloakToken struct {
	Subject           string                 `json:"sub"`
	AllowedOrigins    []string               `json:"allowed-origins"`
	Email             string                 `json:"email"`
	EmailVerified     bool                   `json:"email_verified"`
	Name              string                 `json:"name"`
	PreferredUsername string                 `json:"preferred_username"`
	RealmAccess       KeycloakAccess         `json:"realm_access"`
	ResourceAccess    KeycloakResourceAccess `json:"resource_access"`
	Scope             string                 `json:"scope"`
}

type KeycloakAccess struct {
	Roles []string `json:"roles"`
}

// Roles granted per client, keyed by client id
type KeycloakResourceAccess map[string]KeycloakAccess

// RoleMap flattens the resource access into client id -> roles
func (r KeycloakResourceAccess) RoleMap() map[string][]string {
	roles := make(map[string][]string, len(r))
	for clientID, access := range r {
		roles[clientID] = access.Roles
	}
	return roles
}

// Response of GET /admin/realms/<REALM>/keys
type realmKeys struct {
	// algorithm -> kid of the key currently used for signing
	Active map[string]string `json:"active"`
	Keys   []realmKey        `json:"keys"`
}

type realmKey struct {
	KID         string `json:"kid"`
	Algorithm   string `json:"algorithm"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	PublicKey   string `json:"publicKey"`
	Certificate string `json:"certificate"`
}

// User is the identity of an authenticated end-user as returned by the userinfo endpoint
type User struct {
	ID       string                 `json:"id"`
	Nickname string                 `json:"nickname"`
	Name     string                 `json:"name"`
	Email    string                 `json:"email"`
	Raw      map[string]interface{} `json:"raw"`
}

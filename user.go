package keycloakauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// UserByToken fetches the userinfo claims of the user the access token belongs to
func (k *KeycloakAuth) UserByToken(ctx context.Context, accessToken string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.endpoints.UserinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create userinfo request (%w)", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch userinfo (%w)", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("could not fetch userinfo: %d %s", res.StatusCode, body)
	}

	claims := map[string]interface{}{}
	if err := json.NewDecoder(res.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("could not decode userinfo (%w)", err)
	}
	return claims, nil
}

// MapUser maps userinfo claims onto a User, keeping the claims as Raw
func (k *KeycloakAuth) MapUser(claims map[string]interface{}) *User {
	get := func(key string) string {
		if v, ok := claims[key].(string); ok {
			return v
		}
		return ""
	}

	return &User{
		ID:       get("sub"),
		Nickname: get("preferred_username"),
		Name:     get("name"),
		Email:    get("email"),
		Raw:      claims,
	}
}

// User fetches userinfo for accessToken and maps it
func (k *KeycloakAuth) User(ctx context.Context, accessToken string) (*User, error) {
	claims, err := k.UserByToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return k.MapUser(claims), nil
}

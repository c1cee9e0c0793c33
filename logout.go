package keycloakauth

import (
	"fmt"
	"net/url"
	"strings"
)

// LogoutParam is an additional query parameter appended to a logout url
type LogoutParam struct {
	Key   string
	Value string
}

// LogoutRequest describes where keycloak should send the user after logging out.
// Empty fields are treated as absent.
type LogoutRequest struct {
	RedirectURI string
	ClientID    string
	IDTokenHint string
	Params      []LogoutParam
}

// LogoutParamsFromMaps converts single-entry maps into ordered logout parameters.
// Every map must hold exactly one key and a value.
func LogoutParamsFromMaps(params ...map[string]string) ([]LogoutParam, error) {
	out := make([]LogoutParam, 0, len(params))
	for i, param := range params {
		if len(param) != 1 {
			return nil, fmt.Errorf("parameter %d has %d entries: %w", i, len(param), ErrInvalidArgument)
		}
		for key, value := range param {
			out = append(out, LogoutParam{Key: key, Value: value})
		}
	}
	return out, nil
}

// BuildLogoutURL appends the redirect parameters of req to logoutURL.
//
// Without a redirect uri the bare url is returned. With only a redirect uri
// the pre-v18 "redirect_uri" parameter is used. As soon as a client id or an
// id token hint is given, the RP-initiated logout parameters of keycloak v18+
// are used and additional parameters are appended in order.
func BuildLogoutURL(logoutURL string, req LogoutRequest) (string, error) {
	for i, param := range req.Params {
		if param.Key == "" {
			return "", fmt.Errorf("parameter %d has no key: %w", i, ErrInvalidArgument)
		}
	}

	if req.RedirectURI == "" {
		return logoutURL, nil
	}

	if req.ClientID == "" && req.IDTokenHint == "" {
		return logoutURL + "?redirect_uri=" + url.QueryEscape(req.RedirectURI), nil
	}

	var b strings.Builder
	b.WriteString(logoutURL)
	b.WriteString("?post_logout_redirect_uri=")
	b.WriteString(url.QueryEscape(req.RedirectURI))

	// either one is required for keycloak to honor the redirect
	if req.ClientID != "" {
		b.WriteString("&client_id=")
		b.WriteString(url.QueryEscape(req.ClientID))
	}
	if req.IDTokenHint != "" {
		b.WriteString("&id_token_hint=")
		b.WriteString(url.QueryEscape(req.IDTokenHint))
	}

	for _, param := range req.Params {
		b.WriteString("&")
		b.WriteString(param.Key)
		b.WriteString("=")
		b.WriteString(url.QueryEscape(param.Value))
	}

	return b.String(), nil
}

// StaticLogoutURL builds a logout url with a redirect taken from configuration.
// The id token hint is appended as is.
func StaticLogoutURL(logoutURL, idTokenHint, postLogoutRedirectURI string) string {
	return fmt.Sprintf("%s?id_token_hint=%s&post_logout_redirect_uri=%s",
		logoutURL, idTokenHint, url.QueryEscape(postLogoutRedirectURI))
}

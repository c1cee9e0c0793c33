package keycloakauth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/dunv/uhttp"
	"github.com/dunv/ulog"
	"github.com/google/uuid"
)

// SetupHandlers registers login, login completion and logout under /keycloakauth
func (k *KeycloakAuth) SetupHandlers(u *uhttp.UHTTP) {
	u.Handle("/keycloakauth/login", uhttp.NewHandler(uhttp.WithGet(k.handleLogin)))
	u.Handle("/keycloakauth/complete", uhttp.NewHandler(uhttp.WithGet(k.handleComplete)))
	u.Handle("/keycloakauth/logout", uhttp.NewHandler(uhttp.WithGet(k.handleLogout)))
}

func (k *KeycloakAuth) handleLogin(r *http.Request, returnCode *int) interface{} {
	w := r.Context().Value(uhttp.CtxKeyResponseWriter).(http.ResponseWriter)

	// state and nonce are compared again in handleComplete
	state := uuid.New().String()
	http.SetCookie(w, flowCookie(r, "state", state))
	nonce := uuid.New().String()
	http.SetCookie(w, flowCookie(r, "nonce", nonce))

	http.Redirect(w, r, k.AuthCodeURL(state, oidc.Nonce(nonce)), http.StatusFound)
	return nil
}

func (k *KeycloakAuth) handleComplete(r *http.Request, returnCode *int) interface{} {
	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		return errors.New(errParam)
	}

	stateCookie, err := r.Cookie("state")
	if err != nil {
		return errors.New("stateCookie not found")
	}
	if query.Get("state") != stateCookie.Value {
		return errors.New("state-cookie and state from redirect do not match")
	}

	token, err := k.Exchange(r.Context(), query.Get("code"))
	if err != nil {
		return err
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return fmt.Errorf("could not extract id_token")
	}
	idToken, err := k.VerifyIDToken(oidc.ClientContext(r.Context(), k.httpClient), rawIDToken)
	if err != nil {
		return fmt.Errorf("could not verify id_token")
	}

	nonceCookie, err := r.Cookie("nonce")
	if err != nil {
		return errors.New("nonceCookie not found")
	}
	if idToken.Nonce != nonceCookie.Value {
		return errors.New("nonce-cookie and id_token.nonce do not match")
	}

	user, err := k.User(r.Context(), token.AccessToken)
	if err != nil {
		return err
	}

	ulog.Debugf("user %s logged in to realm %s", user.Nickname, k.config.Realm)
	return map[string]interface{}{
		"refresh_token": token.RefreshToken,
		"access_token":  token.AccessToken,
		"id_token":      rawIDToken,
		"user":          user,
		"roles":         k.Roles(r.Context(), token.AccessToken, ""),
	}
}

func (k *KeycloakAuth) handleLogout(r *http.Request, returnCode *int) interface{} {
	w := r.Context().Value(uhttp.CtxKeyResponseWriter).(http.ResponseWriter)

	logoutURL, err := k.logoutTarget(r.URL.Query())
	if err != nil {
		return err
	}

	http.Redirect(w, r, logoutURL, http.StatusFound)
	return nil
}

// logoutTarget picks the logout url for the query of a logout request.
// An explicit redirect_uri wins over the configured PostLogoutRedirectURI,
// which needs an id_token_hint.
func (k *KeycloakAuth) logoutTarget(query url.Values) (string, error) {
	redirectURI := query.Get("redirect_uri")
	idTokenHint := query.Get("id_token_hint")

	switch {
	case redirectURI != "":
		return k.LogoutURL(LogoutRequest{
			RedirectURI: redirectURI,
			ClientID:    k.config.ClientID,
			IDTokenHint: idTokenHint,
		})
	case k.config.PostLogoutRedirectURI != "" && idTokenHint != "":
		return k.StaticLogoutURL(idTokenHint), nil
	}
	return k.endpoints.LogoutURL, nil
}

func flowCookie(r *http.Request, name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		MaxAge:   int(time.Hour.Seconds()),
		Secure:   r.TLS != nil,
		HttpOnly: true,
	}
}

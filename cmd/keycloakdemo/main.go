package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dunv/keycloakauth"
	"github.com/dunv/uhttp"
	"github.com/dunv/ulog"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	BaseURL               string `env:"KEYCLOAK_BASE_URL" env-required:"true"`
	Realm                 string `env:"KEYCLOAK_REALM" env-default:"master"`
	ClientID              string `env:"KEYCLOAK_CLIENT_ID" env-required:"true"`
	ClientSecret          string `env:"KEYCLOAK_CLIENT_SECRET"`
	RedirectURL           string `env:"KEYCLOAK_REDIRECT_URL" env-default:"http://localhost:8080/keycloakauth/complete"`
	PublicKey             string `env:"KEYCLOAK_PUBLIC_KEY"`
	Algorithm             string `env:"KEYCLOAK_ALGORITHM"`
	PostLogoutRedirectURI string `env:"KEYCLOAK_POST_LOGOUT_REDIRECT_URI"`
}

func main() {
	config := Config{}
	ulog.FatalIfError(cleanenv.ReadEnv(&config))

	k, err := keycloakauth.NewKeycloakAuth(keycloakauth.Config{
		BaseURL:               config.BaseURL,
		Realm:                 config.Realm,
		ClientID:              config.ClientID,
		ClientSecret:          config.ClientSecret,
		RedirectURL:           config.RedirectURL,
		Scopes:                []string{"openid", "profile", "email"},
		PublicKey:             config.PublicKey,
		Algorithm:             config.Algorithm,
		PostLogoutRedirectURI: config.PostLogoutRedirectURI,
	})
	ulog.FatalIfError(err)

	u := uhttp.NewUHTTP(uhttp.WithSendPanicInfoToClient(true))
	k.SetupHandlers(u)

	u.Handle("/api/roles", uhttp.NewHandler(
		uhttp.WithOptionalGet(uhttp.R{
			"client_id": uhttp.STRING,
		}),
		uhttp.WithGet(func(r *http.Request, returnCode *int) interface{} {
			authParts := strings.Split(r.Header.Get("Authorization"), "Bearer ")
			if len(authParts) != 2 {
				return errors.New("could not parse Authorization Header")
			}

			clientID := ""
			if c := uhttp.GetAsString("client_id", r); c != nil {
				clientID = *c
			}
			return k.Roles(r.Context(), authParts[1], clientID)
		}),
	))

	ulog.Infof("serving keycloak realm %s", k.Endpoints().Issuer)
	ulog.FatalIfError(u.ListenAndServe())
}

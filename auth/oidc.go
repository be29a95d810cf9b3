package auth

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/tcriess/lightspeed-court/config"
	"github.com/tcriess/lightspeed-court/globals"
)

// ErrUnknownProvider is returned for OIDC providers that are not configured.
var ErrUnknownProvider = errors.New("unknown oidc provider")

// Authenticate verifies a given OIDC ID-Token using the configured OIDC provider.
// It returns the email claim of the token, which is then used to look up the moderator account.
func Authenticate(ctx context.Context, idToken, oidcProvider string, cfg *config.Config) (string, error) {
	if idToken == "" {
		return "", ErrInvalidCredentials
	}
	var oidcConf *config.OIDCConfig
	for i := range cfg.OIDCConfigs {
		if cfg.OIDCConfigs[i].Name == oidcProvider {
			oidcConf = &cfg.OIDCConfigs[i]
			break
		}
	}
	if oidcConf == nil {
		globals.AppLogger.Debug("no oidc config found for provider", "provider", oidcProvider)
		return "", ErrUnknownProvider
	}
	provider, err := oidc.NewProvider(ctx, oidcConf.ProviderUrl)
	if err != nil {
		return "", errors.Wrap(err, "could not discover oidc provider")
	}
	conf := oidc.Config{}
	if oidcConf.ClientId == "" {
		conf.SkipClientIDCheck = true
	} else {
		conf.ClientID = oidcConf.ClientId
	}
	verifier := provider.Verifier(&conf)
	verifiedIdToken, err := verifier.Verify(ctx, idToken)
	if err != nil {
		globals.AppLogger.Debug("could not verify id token", "provider", oidcProvider, "error", err)
		return "", ErrInvalidCredentials
	}

	claims := struct {
		Email string `json:"email"`
	}{}
	err = verifiedIdToken.Claims(&claims)
	if err != nil {
		return "", err
	}
	if claims.Email == "" {
		return "", errors.New("empty e-mail address")
	}
	return claims.Email, nil
}

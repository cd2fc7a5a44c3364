package gslides

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/slides/v1"
)

// EnvToken is read when the credential reference is empty.
const EnvToken = "MD2DECK_CLOUD_TOKEN"

// Scopes requested for every credential kind.
var Scopes = []string{slides.PresentationsScope, drive.DriveFileScope}

const envPrefix = "env:"

// tokenFile is the OAuth token layout written by common CLI login flows.
type tokenFile struct {
	Type         string    `json:"type"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
}

// TokenSource resolves a credential reference. getenv may be nil.
func TokenSource(ctx context.Context, ref string, getenv func(string) string) (oauth2.TokenSource, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	ref = strings.TrimSpace(ref)
	if ref == "" {
		if tok := getenv(EnvToken); tok != "" {
			return staticToken(tok), nil
		}
		return nil, fmt.Errorf("%w: no reference given and %s is empty", ErrNoCredentials, EnvToken)
	}

	if name, ok := strings.CutPrefix(ref, envPrefix); ok {
		tok := getenv(name)
		if tok == "" {
			return nil, fmt.Errorf("%w: environment variable %s is empty", ErrNoCredentials, name)
		}
		return staticToken(tok), nil
	}

	data, err := os.ReadFile(ref) // #nosec G304 -- user-provided credential path
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCredential, err)
	}
	return tokenSourceFromJSON(ctx, data)
}

func tokenSourceFromJSON(ctx context.Context, data []byte) (oauth2.TokenSource, error) {
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCredential, err)
	}

	if tf.Type == "service_account" {
		cfg, err := google.JWTConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadCredential, err)
		}
		return cfg.TokenSource(ctx), nil
	}

	if tf.AccessToken == "" && tf.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token file has neither access_token nor refresh_token", ErrBadCredential)
	}

	tok := &oauth2.Token{
		AccessToken:  tf.AccessToken,
		RefreshToken: tf.RefreshToken,
		TokenType:    tf.TokenType,
		Expiry:       tf.Expiry,
	}
	if tf.RefreshToken != "" && tf.ClientID != "" {
		cfg := &oauth2.Config{
			ClientID:     tf.ClientID,
			ClientSecret: tf.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       Scopes,
		}
		return cfg.TokenSource(ctx, tok), nil
	}
	if tf.AccessToken == "" {
		return nil, fmt.Errorf("%w: refresh_token needs client_id to be refreshed", ErrBadCredential)
	}
	return oauth2.StaticTokenSource(tok), nil
}

func staticToken(access string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: access, TokenType: "Bearer"})
}

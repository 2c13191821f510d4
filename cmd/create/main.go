// Command create mints a signed token for exercising a locally running
// server.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-jose/go-jose/v4"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/jamestelfer/bearer-guard/internal/token"
	"github.com/spf13/cobra"
)

type options struct {
	secret    string
	jwksPath  string
	keyID     string
	algorithm string
	claims    string
	ttl       time.Duration
}

func main() {
	opts := options{}

	rootCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a signed JWT for local testing",
		Long: `Create signs the supplied claims with either a shared secret or a
private key from a JWKS file, and prints the compact token.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.secret == "" {
				opts.secret = os.Getenv("JWT_HMAC_SECRET")
			}

			compact, err := createToken(opts, time.Now())
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), compact)
			return nil
		},
	}

	rootCmd.Flags().StringVar(&opts.secret, "secret", "", "HMAC secret (env: JWT_HMAC_SECRET)")
	rootCmd.Flags().StringVar(&opts.jwksPath, "jwks", "", "path to a JWKS file holding private keys")
	rootCmd.Flags().StringVar(&opts.keyID, "kid", "test-key", "key ID to sign with when --jwks is used")
	rootCmd.Flags().StringVar(&opts.algorithm, "alg", "", "signing algorithm (default HS256, or the alg of the JWK)")
	rootCmd.Flags().StringVar(&opts.claims, "claims", `{"user_id":"42"}`, "claims as a JSON object")
	rootCmd.Flags().DurationVar(&opts.ttl, "ttl", time.Minute, "token lifetime; iat and exp are omitted when zero")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func createToken(opts options, now time.Time) (string, error) {
	claims := gojwt.MapClaims{}
	if err := json.Unmarshal([]byte(opts.claims), &claims); err != nil {
		return "", fmt.Errorf("claims must be a JSON object: %w", err)
	}

	if opts.ttl > 0 {
		claims["iat"] = now.Unix()
		claims["exp"] = now.Add(opts.ttl).Unix()
	}

	alg, keyID, key, err := signingKey(opts)
	if err != nil {
		return "", err
	}

	return token.Sign(alg, keyID, key, claims)
}

func signingKey(opts options) (alg string, keyID string, key any, err error) {
	switch {
	case opts.secret != "" && opts.jwksPath != "":
		return "", "", nil, errors.New("only one of --secret and --jwks may be supplied")

	case opts.secret != "":
		alg = opts.algorithm
		if alg == "" {
			alg = gojwt.SigningMethodHS256.Alg()
		}
		return alg, "", []byte(opts.secret), nil

	case opts.jwksPath != "":
		jwk, err := loadJWK(opts.jwksPath, opts.keyID)
		if err != nil {
			return "", "", nil, err
		}

		alg = opts.algorithm
		if alg == "" {
			alg = jwk.Algorithm
		}
		return alg, jwk.KeyID, jwk.Key, nil

	default:
		return "", "", nil, errors.New("a signing key is required: supply --secret or --jwks")
	}
}

func loadJWK(path, keyID string) (jose.JSONWebKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return jose.JSONWebKey{}, fmt.Errorf("error reading jwks: %w", err)
	}

	jwks := jose.JSONWebKeySet{}
	if err := json.Unmarshal(data, &jwks); err != nil {
		return jose.JSONWebKey{}, fmt.Errorf("error loading jwks: %w", err)
	}

	keys := jwks.Key(keyID)
	if len(keys) == 0 {
		return jose.JSONWebKey{}, fmt.Errorf("no key with id %q in %s", keyID, path)
	}

	return keys[0], nil
}

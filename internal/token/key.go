package token

import (
	"bytes"
	"context"
	"crypto"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

// Key is the material used to check token signatures. The zero value is not
// usable; construct one with HMACKey, one of the PEM parsers or a key set.
// A Key never changes after construction and is safe to share between
// goroutines.
type Key struct {
	resolve func(t *jwt.Token) (any, error)
}

// IsZero reports whether the key was never configured.
func (k Key) IsZero() bool {
	return k.resolve == nil
}

// HMACKey returns a key for the HS256/384/512 algorithms. The secret is copied.
func HMACKey(secret []byte) Key {
	s := bytes.Clone(secret)
	return Key{
		resolve: func(*jwt.Token) (any, error) { return s, nil },
	}
}

// RSAPublicKeyFromPEM parses a PEM encoded PKCS1 or PKIX RSA public key.
func RSAPublicKeyFromPEM(data []byte) (Key, error) {
	pub, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return Key{}, fmt.Errorf("failed to parse RSA public key: %w", err)
	}
	return publicKey(pub), nil
}

// ECPublicKeyFromPEM parses a PEM encoded PKIX ECDSA public key.
func ECPublicKeyFromPEM(data []byte) (Key, error) {
	pub, err := jwt.ParseECPublicKeyFromPEM(data)
	if err != nil {
		return Key{}, fmt.Errorf("failed to parse EC public key: %w", err)
	}
	return publicKey(pub), nil
}

// EdPublicKeyFromPEM parses a PEM encoded PKIX Ed25519 public key.
func EdPublicKeyFromPEM(data []byte) (Key, error) {
	pub, err := jwt.ParseEdPublicKeyFromPEM(data)
	if err != nil {
		return Key{}, fmt.Errorf("failed to parse Ed25519 public key: %w", err)
	}
	return publicKey(pub), nil
}

func publicKey(pub crypto.PublicKey) Key {
	return Key{
		resolve: func(*jwt.Token) (any, error) { return pub, nil },
	}
}

// KeySetFromJWKS parses a JSON Web Key Set. The "kid" header of a token
// selects the key used to verify it. Tokens without a "kid" are only
// accepted when the set holds exactly one key. Private keys in the set are
// reduced to their public half.
func KeySetFromJWKS(data []byte) (Key, error) {
	var set jose.JSONWebKeySet
	if err := json.Unmarshal(data, &set); err != nil {
		return Key{}, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	if len(set.Keys) == 0 {
		return Key{}, errors.New("JWKS contains no keys")
	}

	byID := make(map[string]any, len(set.Keys))
	all := make([]any, 0, len(set.Keys))

	for i, jwk := range set.Keys {
		material, err := verificationMaterial(jwk)
		if err != nil {
			return Key{}, fmt.Errorf("JWKS key %d (kid=%q): %w", i, jwk.KeyID, err)
		}

		if jwk.KeyID != "" {
			byID[jwk.KeyID] = material
		}
		all = append(all, material)
	}

	return Key{
		resolve: func(t *jwt.Token) (any, error) {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				if len(all) == 1 {
					return all[0], nil
				}
				return nil, fmt.Errorf("token has no key id and the key set holds %d keys", len(all))
			}

			material, ok := byID[kid]
			if !ok {
				return nil, fmt.Errorf("no key with id %q in key set", kid)
			}
			return material, nil
		},
	}, nil
}

func verificationMaterial(jwk jose.JSONWebKey) (any, error) {
	// symmetric keys have no public half
	if secret, ok := jwk.Key.([]byte); ok {
		if len(secret) == 0 {
			return nil, errors.New("symmetric key is empty")
		}
		return secret, nil
	}

	if !jwk.Valid() {
		return nil, errors.New("key is invalid")
	}

	if jwk.IsPublic() {
		return jwk.Key, nil
	}

	pub := jwk.Public()
	if pub.Key == nil {
		return nil, fmt.Errorf("unsupported key type %T", jwk.Key)
	}

	return pub.Key, nil
}

// FetchKeySet retrieves the issuer's JWKS via OpenID discovery. This performs
// network I/O and is intended to run once at startup: the returned key is
// static and never refreshed.
func FetchKeySet(ctx context.Context, issuerURL *url.URL) (Key, error) {
	provider := jwks.NewProvider(issuerURL)

	set, err := provider.KeyFunc(ctx)
	if err != nil {
		return Key{}, fmt.Errorf("failed to fetch JWKS for issuer %s: %w", issuerURL, err)
	}

	data, err := json.Marshal(set)
	if err != nil {
		return Key{}, fmt.Errorf("failed to encode fetched JWKS: %w", err)
	}

	return KeySetFromJWKS(data)
}

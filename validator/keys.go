package validator

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/auth0/go-jwks-guard/jwks"
)

var errUnknownKeyType = errors.New("unrecognized key type")

// keyStrategy converts one key family into a verification key. A strategy
// only serves the algorithms it lists.
type keyStrategy struct {
	keyType    jwa.KeyType
	algorithms []SignatureAlgorithm
	convert    func(jwk.Key) (any, error)
}

// keyStrategies is the ordered list of supported key families.
var keyStrategies = []keyStrategy{
	{
		keyType:    jwa.RSA,
		algorithms: []SignatureAlgorithm{RS256, RS384, RS512, PS256, PS384, PS512},
		convert:    publicKeyAs[*rsa.PublicKey],
	},
	{
		keyType:    jwa.EC,
		algorithms: []SignatureAlgorithm{ES256, ES384, ES512},
		convert:    publicKeyAs[*ecdsa.PublicKey],
	},
	{
		keyType:    jwa.OKP,
		algorithms: []SignatureAlgorithm{EdDSA},
		convert:    publicKeyAs[ed25519.PublicKey],
	},
	{
		keyType:    jwa.OctetSeq,
		algorithms: []SignatureAlgorithm{HS256, HS384, HS512},
		convert:    publicKeyAs[[]byte],
	},
}

// convertKey turns key into the raw key that verifies alg signatures.
func convertKey(key jwks.JWK, alg SignatureAlgorithm) (any, error) {
	for _, strategy := range keyStrategies {
		if string(strategy.keyType) != key.KeyType {
			continue
		}

		if !slices.Contains(strategy.algorithms, alg) {
			return nil, fmt.Errorf("key type %s cannot verify %s signatures", key.KeyType, alg)
		}
		if key.Algorithm != "" && key.Algorithm != string(alg) {
			return nil, fmt.Errorf("key %q is published for %s, token uses %s", key.KeyID, key.Algorithm, alg)
		}

		parsed, err := jwk.ParseKey(key.Raw())
		if err != nil {
			return nil, fmt.Errorf("could not parse key %q: %w", key.KeyID, err)
		}

		return strategy.convert(parsed)
	}

	return nil, fmt.Errorf("%w: %q", errUnknownKeyType, key.KeyType)
}

// publicKeyAs extracts the public part of key as T. Private keys published
// by mistake are reduced to their public half.
func publicKeyAs[T any](key jwk.Key) (any, error) {
	public, err := jwk.PublicKeyOf(key)
	if err != nil {
		return nil, fmt.Errorf("could not get public key: %w", err)
	}

	var raw any
	if err := public.Raw(&raw); err != nil {
		return nil, fmt.Errorf("could not export key: %w", err)
	}

	typed, ok := raw.(T)
	if !ok {
		return nil, fmt.Errorf("unexpected key material %T", raw)
	}
	return typed, nil
}

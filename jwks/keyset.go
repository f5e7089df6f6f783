package jwks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// JWK is one published key. Values are immutable once fetched.
type JWK struct {
	KeyID     string   `json:"kid,omitempty"`
	KeyType   string   `json:"kty"`
	Algorithm string   `json:"alg,omitempty"`
	Use       string   `json:"use,omitempty"`
	N         string   `json:"n,omitempty"`
	E         string   `json:"e,omitempty"`
	X5C       []string `json:"x5c,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON keeps the full member alongside the decoded fields so that
// key types with extra parameters (EC, OKP, oct) can be converted later.
func (k *JWK) UnmarshalJSON(data []byte) error {
	type plain JWK
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*k = JWK(p)
	k.raw = bytes.Clone(data)
	return nil
}

// Raw returns the JSON member the key was decoded from. Keys built in code
// are encoded from their fields.
func (k JWK) Raw() json.RawMessage {
	if k.raw != nil {
		return k.raw
	}
	type plain JWK
	data, err := json.Marshal(plain(k))
	if err != nil {
		return nil
	}
	return data
}

// KeySet is an ordered sequence of keys and the time it was fetched.
// A KeySet is never modified after it is handed out by a Cache.
type KeySet struct {
	Keys      []JWK
	FetchedAt time.Time
}

// Len returns the number of keys in the set. It is safe on a nil set.
func (s *KeySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Keys)
}

// First returns the first key of the set.
func (s *KeySet) First() (JWK, bool) {
	if s.Len() == 0 {
		return JWK{}, false
	}
	return s.Keys[0], true
}

// FindByKid returns the first key whose kid equals kid. It reports false when
// kid is empty or no key matches.
func FindByKid(set *KeySet, kid string) (JWK, bool) {
	if kid == "" || set == nil {
		return JWK{}, false
	}
	for _, key := range set.Keys {
		if key.KeyID == kid {
			return key, true
		}
	}
	return JWK{}, false
}

type document struct {
	Keys []JWK `json:"keys"`
}

// ParseKeySet decodes a JWKS document of the form {"keys":[...]}.
func ParseKeySet(data []byte, fetchedAt time.Time) (*KeySet, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not decode jwks: %w", err)
	}
	if len(doc.Keys) == 0 {
		return nil, ErrNoKeys
	}
	return &KeySet{Keys: doc.Keys, FetchedAt: fetchedAt}, nil
}

package validator

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// maxTokenSize rejects oversized input before any decoding; real tokens are
// a few KB.
const maxTokenSize = 1 << 20

var (
	errTokenEmpty    = errors.New("token is empty")
	errTokenTooLarge = errors.New("token exceeds maximum size (1MB)")
	errTokenSegments = errors.New("token must have exactly three segments")
)

// TokenHeader is the JOSE header read without verification. It is only used
// to select a verification key.
type TokenHeader struct {
	Algorithm SignatureAlgorithm `json:"alg,omitempty"`
	KeyID     string             `json:"kid,omitempty"`
	Type      string             `json:"typ,omitempty"`
}

type segments struct {
	header    []byte
	payload   []byte
	signature []byte
}

// splitToken splits a compact JWS into its decoded segments.
func splitToken(token string) (segments, error) {
	if token == "" {
		return segments{}, errTokenEmpty
	}
	if len(token) > maxTokenSize {
		return segments{}, errTokenTooLarge
	}
	if strings.Count(token, ".") != 2 {
		return segments{}, errTokenSegments
	}

	parts := strings.Split(token, ".")
	decoded := make([][]byte, len(parts))
	for i, part := range parts {
		b, err := base64.RawURLEncoding.DecodeString(part)
		if err != nil {
			return segments{}, fmt.Errorf("segment %d is not valid base64url: %w", i, err)
		}
		decoded[i] = b
	}

	return segments{header: decoded[0], payload: decoded[1], signature: decoded[2]}, nil
}

func parseHeader(data []byte) (TokenHeader, error) {
	var header TokenHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return TokenHeader{}, fmt.Errorf("could not decode token header: %w", err)
	}
	return header, nil
}

// ParseHeader returns the unverified header of token. It must not be used
// for anything but key selection and diagnostics.
func ParseHeader(token string) (TokenHeader, error) {
	segs, err := splitToken(token)
	if err != nil {
		return TokenHeader{}, err
	}
	return parseHeader(segs.header)
}

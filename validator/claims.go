package validator

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"
)

// Claims is the verified payload of a token. It is only produced after the
// signature has been verified.
type Claims struct {
	Issuer    string       `json:"iss,omitempty"`
	Subject   string       `json:"sub,omitempty"`
	Audience  Audience     `json:"aud,omitempty"`
	Expiry    *NumericDate `json:"exp,omitempty"`
	NotBefore *NumericDate `json:"nbf,omitempty"`
	IssuedAt  *NumericDate `json:"iat,omitempty"`
	ID        string       `json:"jti,omitempty"`

	// Fields set by the authorization server for this resource server.
	UserID      string   `json:"userId,omitempty"`
	Email       string   `json:"email,omitempty"`
	Authorities []string `json:"authorities,omitempty"`
	Type        string   `json:"type,omitempty"`
}

// Audience is the aud claim. It decodes from either a string or an array.
type Audience []string

func (a *Audience) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = Audience{single}
		return nil
	}

	var multiple []string
	if err := json.Unmarshal(data, &multiple); err != nil {
		return fmt.Errorf("aud must be a string or an array of strings: %w", err)
	}
	*a = multiple
	return nil
}

// ContainsAny reports whether at least one of values is in the audience.
func (a Audience) ContainsAny(values ...string) bool {
	for _, v := range values {
		if slices.Contains(a, v) {
			return true
		}
	}
	return false
}

// NumericDate is a JSON numeric date in seconds since the epoch. Claims
// hold it by pointer so that an absent claim is nil, distinct from 0.
type NumericDate int64

// Numeric dates must fall within years 0001 to 9999.
var (
	minNumericDate = float64(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC).Unix())
	maxNumericDate = float64(time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC).Unix())
)

// NewNumericDate returns t as a *NumericDate, truncated to seconds.
func NewNumericDate(t time.Time) *NumericDate {
	d := NumericDate(t.Unix())
	return &d
}

func (d *NumericDate) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("numeric date must be a number: %w", err)
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("numeric date %s is out of range: %w", n, err)
	}
	if math.IsNaN(f) || f < minNumericDate || f > maxNumericDate {
		return fmt.Errorf("numeric date %s is out of range", n)
	}
	*d = NumericDate(math.Trunc(f))
	return nil
}

// Time returns d as a time.Time.
func (d NumericDate) Time() time.Time {
	return time.Unix(int64(d), 0)
}

func parseClaims(payload []byte) (*Claims, error) {
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("could not decode token claims: %w", err)
	}
	return &claims, nil
}

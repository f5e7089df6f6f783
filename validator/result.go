package validator

// Reason identifies why a token was rejected.
type Reason string

const (
	ReasonMalformedToken      Reason = "token_malformed"
	ReasonKeySetUnavailable   Reason = "jwks_unavailable"
	ReasonKeyNotFound         Reason = "jwks_key_not_found"
	ReasonUnsupportedKey      Reason = "unsupported_key"
	ReasonAlgorithmNotAllowed Reason = "invalid_algorithm"
	ReasonBadSignature        Reason = "invalid_signature"
	ReasonExpired             Reason = "token_expired"
	ReasonNotYetValid         Reason = "token_not_yet_valid"
	ReasonBadIssuer           Reason = "invalid_issuer"
	ReasonBadAudience         Reason = "invalid_audience"
)

var reasonMessages = map[Reason]string{
	ReasonMalformedToken:      "malformed token",
	ReasonKeySetUnavailable:   "key set unavailable",
	ReasonKeyNotFound:         "key not found",
	ReasonUnsupportedKey:      "unsupported key",
	ReasonAlgorithmNotAllowed: "algorithm not allowed",
	ReasonBadSignature:        "bad signature",
	ReasonExpired:             "expired",
	ReasonNotYetValid:         "not yet valid",
	ReasonBadIssuer:           "bad issuer",
	ReasonBadAudience:         "bad audience",
}

// Message returns the short human-readable form of r.
func (r Reason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return string(r)
}

// Result is the outcome of Validate: either Claims with an empty Reason, or
// a Reason with the Cause that produced it.
type Result struct {
	Claims *Claims
	Reason Reason
	Cause  error
}

// Valid reports whether the token was accepted.
func (r Result) Valid() bool {
	return r.Reason == "" && r.Claims != nil
}

// Err returns nil for a valid result and a *ValidationError otherwise.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	reason := r.Reason
	if reason == "" {
		reason = ReasonMalformedToken
	}
	return &ValidationError{Code: reason, Message: reason.Message(), Details: r.Cause}
}

func invalid(reason Reason, cause error) Result {
	return Result{Reason: reason, Cause: cause}
}

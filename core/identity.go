package core

import "github.com/auth0/go-jwks-guard/validator"

// Identity is the caller as seen by handlers of a protected route.
type Identity struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Authorities []string `json:"authorities"`
}

// IdentityFromClaims projects verified claims onto an Identity. The subject
// is used as the username.
func IdentityFromClaims(claims *validator.Claims) Identity {
	if claims == nil {
		return Identity{Authorities: []string{}}
	}

	authorities := claims.Authorities
	if authorities == nil {
		authorities = []string{}
	}

	return Identity{
		ID:          claims.UserID,
		Username:    claims.Subject,
		Email:       claims.Email,
		Authorities: authorities,
	}
}

// HasAuthority reports whether the identity was granted authority.
func (i Identity) HasAuthority(authority string) bool {
	for _, a := range i.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auth0/go-jwks-guard/internal/config"
	"github.com/auth0/go-jwks-guard/validator"
)

const (
	testIssuer   = "https://auth.example.com"
	testAudience = "resource-server"
	testKid      = "key-1"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	server     *Server
	privateKey *rsa.PrivateKey
	fetches    *atomic.Int32
}

func newJWKSServer(t *testing.T, privateKey *rsa.PrivateKey) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	key, err := jwk.FromRaw(privateKey.Public())
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, testKid))
	require.NoError(t, key.Set(jwk.AlgorithmKey, jwa.RS256))
	set := jwk.NewSet()
	require.NoError(t, set.AddKey(key))
	body, err := json.Marshal(set)
	require.NoError(t, err)

	fetches := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	return srv, fetches
}

func testConfig(t *testing.T, jwksURL string) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Auth.JWKSURL = jwksURL
	cfg.Auth.Issuer = testIssuer
	cfg.Auth.Audience = []string{testAudience}
	return cfg
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return newFixtureWith(t, func(*config.Config) {})
}

func newFixtureWith(t *testing.T, mutate func(*config.Config)) fixture {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	jwksServer, fetches := newJWKSServer(t, privateKey)

	cfg := testConfig(t, jwksServer.URL)
	mutate(cfg)

	s, err := New(context.Background(), cfg,
		WithRegistry(prometheus.NewRegistry()),
		WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, err)

	return fixture{server: s, privateKey: privateKey, fetches: fetches}
}

func (f fixture) token(t *testing.T, mutate func(jwt.MapClaims)) string {
	t.Helper()

	claims := jwt.MapClaims{
		"iss":         testIssuer,
		"sub":         "alice",
		"aud":         testAudience,
		"iat":         testNow.Add(-time.Minute).Unix(),
		"exp":         testNow.Add(time.Minute).Unix(),
		"userId":      "42",
		"email":       "alice@example.com",
		"authorities": []string{"ROLE_USER"},
	}
	if mutate != nil {
		mutate(claims)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKid
	signed, err := token.SignedString(f.privateKey)
	require.NoError(t, err)
	return signed
}

func (f fixture) do(t *testing.T, method, path string, header http.Header) (int, http.Header, string) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return rec.Code, rec.Header(), string(body)
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func Test_Routes(t *testing.T) {
	f := newFixture(t)

	testCases := []struct {
		name           string
		method         string
		path           string
		header         func(t *testing.T) http.Header
		wantStatusCode int
		wantBody       string
	}{
		{
			name:           "health is public",
			method:         http.MethodGet,
			path:           "/health",
			wantStatusCode: http.StatusOK,
			wantBody:       `{"auth_server":"https://auth.example.com","service":"jwks-guard-resource-server","status":"ok"}`,
		},
		{
			name:           "it requires an authorization header",
			method:         http.MethodGet,
			path:           "/api/protected",
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"error":"Authorization header required"}`,
		},
		{
			name:   "it rejects a non bearer authorization header",
			method: http.MethodGet,
			path:   "/api/protected",
			header: func(*testing.T) http.Header {
				return http.Header{"Authorization": []string{"Basic dXNlcjpwYXNz"}}
			},
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"error":"Invalid Authorization header format"}`,
		},
		{
			name:   "it rejects an expired token with the reason",
			method: http.MethodGet,
			path:   "/api/protected",
			header: func(t *testing.T) http.Header {
				return bearer(f.token(t, func(c jwt.MapClaims) {
					c["exp"] = testNow.Add(-time.Minute).Unix()
				}))
			},
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"error":"Invalid token","details":"expired"}`,
		},
		{
			name:   "it rejects a token for another audience",
			method: http.MethodGet,
			path:   "/api/protected/info",
			header: func(t *testing.T) http.Header {
				return bearer(f.token(t, func(c jwt.MapClaims) { c["aud"] = "other" }))
			},
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"error":"Invalid token","details":"bad audience"}`,
		},
		{
			name:   "it rejects garbage",
			method: http.MethodGet,
			path:   "/api/protected",
			header: func(*testing.T) http.Header {
				return bearer("not-a-jwt")
			},
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"error":"Invalid token","details":"malformed token"}`,
		},
		{
			name:   "it serves the protected resource for a valid token",
			method: http.MethodGet,
			path:   "/api/protected",
			header: func(t *testing.T) http.Header {
				return bearer(f.token(t, nil))
			},
			wantStatusCode: http.StatusOK,
			wantBody: fmt.Sprintf(`{
				"message": "Access granted",
				"timestamp": "2026-10-18T12:00:00Z",
				"user": {"id": "42", "username": "alice", "email": "alice@example.com", "authorities": ["ROLE_USER"]},
				"resource": {
					"data": "This is protected data from the resource server",
					"accessed_at": "2026-10-18T12:00:00Z",
					"token_claims": {"aud": ["resource-server"], "iss": "https://auth.example.com", "iat": %d, "exp": %d}
				}
			}`, testNow.Add(-time.Minute).Unix(), testNow.Add(time.Minute).Unix()),
		},
		{
			name:   "it serves the protected info for a valid token",
			method: http.MethodGet,
			path:   "/api/protected/info",
			header: func(t *testing.T) http.Header {
				return bearer(f.token(t, nil))
			},
			wantStatusCode: http.StatusOK,
			wantBody: `{
				"info": "This resource is protected by tokens from https://auth.example.com",
				"current_user": "alice",
				"allowed_resources": ["/api/protected", "/api/protected/info"],
				"auth_server": "https://auth.example.com"
			}`,
		},
		{
			name:           "unknown routes are not found",
			method:         http.MethodGet,
			path:           "/nope",
			wantStatusCode: http.StatusNotFound,
			wantBody:       `{"error":"Endpoint not found"}`,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var header http.Header
			if testCase.header != nil {
				header = testCase.header(t)
			}

			status, _, body := f.do(t, testCase.method, testCase.path, header)

			assert.Equal(t, testCase.wantStatusCode, status)
			assert.JSONEq(t, testCase.wantBody, body)
		})
	}

	assert.EqualValues(t, 1, f.fetches.Load(), "the key set is fetched once and then served from the cache")
}

func Test_AlgorithmConfig(t *testing.T) {
	t.Run("the configured allow-list reaches the validator", func(t *testing.T) {
		f := newFixtureWith(t, func(cfg *config.Config) {
			cfg.Auth.AllowedAlgorithms = []validator.SignatureAlgorithm{validator.ES256}
			cfg.Auth.DefaultAlgorithm = validator.ES256
		})

		status, _, body := f.do(t, http.MethodGet, "/api/protected", bearer(f.token(t, nil)))

		assert.Equal(t, http.StatusUnauthorized, status)
		assert.JSONEq(t, `{"error":"Invalid token","details":"algorithm not allowed"}`, body)
		assert.Zero(t, f.fetches.Load())
	})

	t.Run("the configured default algorithm applies to tokens without alg", func(t *testing.T) {
		f := newFixtureWith(t, func(cfg *config.Config) {
			cfg.Auth.AllowedAlgorithms = []validator.SignatureAlgorithm{validator.RS256, validator.RS512}
			cfg.Auth.DefaultAlgorithm = validator.RS512
		})

		token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
			"iss": testIssuer,
			"aud": testAudience,
			"exp": testNow.Add(time.Minute).Unix(),
		})
		token.Header["kid"] = testKid
		delete(token.Header, "alg")
		signed, err := token.SignedString(f.privateKey)
		require.NoError(t, err)

		status, _, body := f.do(t, http.MethodGet, "/api/protected/info", bearer(signed))

		assert.Equal(t, http.StatusUnauthorized, status)
		assert.JSONEq(t, `{"error":"Invalid token","details":"unsupported key"}`, body)
	})
}

func Test_Ready(t *testing.T) {
	f := newFixture(t)

	status, _, body := f.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.JSONEq(t, `{"status":"unavailable"}`, body)
	assert.Zero(t, f.fetches.Load(), "readiness never fetches")

	status, _, _ = f.do(t, http.MethodGet, "/api/protected", bearer(f.token(t, nil)))
	require.Equal(t, http.StatusOK, status)

	status, _, body = f.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ready","keys":1,"fetched_at":"2026-10-18T12:00:00Z"}`, body)
}

func Test_Metrics(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodGet, "/api/protected", bearer(f.token(t, nil)))
	f.do(t, http.MethodGet, "/api/protected", bearer(f.token(t, func(c jwt.MapClaims) {
		c["iss"] = "https://evil.example.com"
	})))

	status, _, body := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)

	assert.Contains(t, body, `jwks_guard_validations_total{result="valid"} 1`)
	assert.Contains(t, body, `jwks_guard_validations_total{result="invalid_issuer"} 1`)
	assert.Contains(t, body, `jwks_guard_jwks_keys 1`)
}

func Test_CORS(t *testing.T) {
	f := newFixture(t)

	t.Run("it answers preflight requests from allowed origins", func(t *testing.T) {
		status, header, _ := f.do(t, http.MethodOptions, "/api/protected", http.Header{
			"Origin":                        []string{"http://localhost:5173"},
			"Access-Control-Request-Method": []string{"GET"},
		})

		assert.Equal(t, http.StatusNoContent, status)
		assert.Equal(t, "http://localhost:5173", header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", header.Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, header.Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("it ignores other origins", func(t *testing.T) {
		status, header, _ := f.do(t, http.MethodGet, "/health", http.Header{
			"Origin": []string{"https://evil.example.com"},
		})

		assert.Equal(t, http.StatusOK, status)
		assert.Empty(t, header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("it decorates simple requests from allowed origins", func(t *testing.T) {
		status, header, _ := f.do(t, http.MethodGet, "/health", http.Header{
			"Origin": []string{"http://localhost:8081"},
		})

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "http://localhost:8081", header.Get("Access-Control-Allow-Origin"))
	})
}

func Test_New(t *testing.T) {
	t.Run("it requires a config", func(t *testing.T) {
		_, err := New(context.Background(), nil)
		assert.EqualError(t, err, "config cannot be nil")
	})

	t.Run("it requires a jwks url without discovery", func(t *testing.T) {
		_, err := New(context.Background(), testConfig(t, ""))
		assert.EqualError(t, err, "no jwks url configured and discovery is disabled")
	})

	t.Run("it rejects nil options", func(t *testing.T) {
		_, err := New(context.Background(), testConfig(t, "https://auth.example.com/jwks"), WithLogger(nil))
		assert.EqualError(t, err, "invalid option: logger cannot be nil")
	})

	t.Run("it rejects an unsupported algorithm", func(t *testing.T) {
		cfg := testConfig(t, "https://auth.example.com/jwks")
		cfg.Auth.AllowedAlgorithms = []validator.SignatureAlgorithm{"none"}

		_, err := New(context.Background(), cfg, WithRegistry(prometheus.NewRegistry()))
		assert.ErrorContains(t, err, "failed to set up token validator")
	})

	t.Run("it discovers the jwks url from the issuer", func(t *testing.T) {
		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, "/.well-known/openid-configuration") {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprintf(w, `{"issuer":%q,"jwks_uri":%q}`, srv.URL, srv.URL+"/oauth2/jwks")
		}))
		t.Cleanup(srv.Close)

		cfg := testConfig(t, "")
		cfg.Auth.Issuer = srv.URL
		cfg.Auth.DiscoverJWKS = true

		s, err := New(context.Background(), cfg,
			WithRegistry(prometheus.NewRegistry()),
			WithHTTPClient(srv.Client()),
		)
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/oauth2/jwks", s.KeySetCache().URL())
		assert.NotNil(t, s.Validator())
	})
}

func Test_Run(t *testing.T) {
	f := newFixture(t)
	f.server.cfg.Server.Host = "127.0.0.1"
	f.server.cfg.Server.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

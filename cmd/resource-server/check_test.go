package main

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jwksServer(t *testing.T, privateKey *rsa.PrivateKey) *httptest.Server {
	t.Helper()

	key, err := jwk.FromRaw(privateKey.Public())
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, "key-1"))
	require.NoError(t, key.Set(jwk.AlgorithmKey, jwa.RS256))
	set := jwk.NewSet()
	require.NoError(t, set.AddKey(key))
	body, err := json.Marshal(set)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, privateKey *rsa.PrivateKey, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss": "https://auth.example.com",
		"sub": "alice",
		"aud": "resource-server",
		"exp": exp.Unix(),
	})
	token.Header["kid"] = "key-1"
	signed, err := token.SignedString(privateKey)
	require.NoError(t, err)
	return signed
}

func runCheck(t *testing.T, args ...string) (map[string]any, error) {
	t.Helper()
	chdir(t, t.TempDir())

	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()

	var out map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out), "stdout: %s stderr: %s", stdout.String(), stderr.String())
	return out, err
}

func Test_CheckCommand(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := jwksServer(t, privateKey)

	flags := []string{
		"--jwks-url", srv.URL,
		"--issuer", "https://auth.example.com",
		"--audience", "resource-server",
	}

	t.Run("it prints the claims of a valid token", func(t *testing.T) {
		token := signToken(t, privateKey, time.Now().Add(time.Minute))

		out, err := runCheck(t, append([]string{"check", token}, flags...)...)
		require.NoError(t, err)

		assert.Equal(t, true, out["valid"])
		assert.NotContains(t, out, "reason")
		claims := out["claims"].(map[string]any)
		assert.Equal(t, "alice", claims["sub"])
		header := out["header"].(map[string]any)
		assert.Equal(t, "key-1", header["kid"])
		assert.Equal(t, "RS256", header["alg"])
	})

	t.Run("it prints the reason for a rejected token", func(t *testing.T) {
		token := signToken(t, privateKey, time.Now().Add(-time.Minute))

		out, err := runCheck(t, append([]string{"check", token}, flags...)...)
		assert.EqualError(t, err, "token rejected: token_expired")

		assert.Equal(t, false, out["valid"])
		assert.Equal(t, "token_expired", out["reason"])
		assert.Equal(t, "expired", out["message"])
		assert.NotContains(t, out, "claims")
	})

	t.Run("it reports a malformed token without a header", func(t *testing.T) {
		out, err := runCheck(t, append([]string{"check", "garbage"}, flags...)...)
		assert.EqualError(t, err, "token rejected: token_malformed")

		assert.Equal(t, "token_malformed", out["reason"])
		assert.NotContains(t, out, "header")
	})
}

func Test_CheckCommandConfigFile(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := jwksServer(t, privateKey)

	path := filepath.Join(t.TempDir(), "guard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  jwks_url: `+srv.URL+`
  issuer: https://auth.example.com
  audience: [resource-server]
log:
  level: error
`), 0o600))

	token := signToken(t, privateKey, time.Now().Add(time.Minute))
	out, err := runCheck(t, "check", token, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, true, out["valid"])
}

func Test_CheckCommandConfigError(t *testing.T) {
	chdir(t, t.TempDir())

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"check", "token"})

	err := root.Execute()
	assert.ErrorContains(t, err, "failed to load config")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}

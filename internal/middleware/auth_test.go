package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/portfolio/pkg/httpcontext"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func run(mw func(fasthttp.RequestHandler) fasthttp.RequestHandler, authorization string) (*fasthttp.RequestCtx, bool) {
	var rc fasthttp.RequestCtx
	if authorization != "" {
		rc.Request.Header.Set("Authorization", authorization)
	}
	called := false
	mw(func(ctx *fasthttp.RequestCtx) {
		called = true
		ctx.SetStatusCode(fasthttp.StatusOK)
	})(&rc)
	return &rc, called
}

func TestJWTAuth_OpenWithoutSecret(t *testing.T) {
	_, called := run(JWTAuth("", "", nil), "")
	assert.True(t, called)
}

func TestJWTAuth_AcceptsValidToken(t *testing.T) {
	token := sign(t, "s3cret", jwt.MapClaims{
		"sub": "alice",
		"iss": "portfolio-ledger",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	rc, called := run(JWTAuth("s3cret", "portfolio-ledger", nil), "Bearer "+token)
	assert.True(t, called)
	assert.Equal(t, "alice", rc.UserValue(string(httpcontext.KeySubject)))
}

func TestJWTAuth_Rejects(t *testing.T) {
	mw := JWTAuth("s3cret", "portfolio-ledger", nil)

	cases := map[string]string{
		"missing":       "",
		"garbage":       "Bearer not-a-token",
		"wrong secret":  "Bearer " + sign(t, "other", jwt.MapClaims{"iss": "portfolio-ledger"}),
		"expired":       "Bearer " + sign(t, "s3cret", jwt.MapClaims{"iss": "portfolio-ledger", "exp": time.Now().Add(-time.Hour).Unix()}),
		"wrong issuer":  "Bearer " + sign(t, "s3cret", jwt.MapClaims{"iss": "someone-else"}),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rc, called := run(mw, header)
			assert.False(t, called)
			assert.Equal(t, fasthttp.StatusUnauthorized, rc.Response.StatusCode())
			assert.Contains(t, string(rc.Response.Body()), "UNAUTHORIZED")
		})
	}
}

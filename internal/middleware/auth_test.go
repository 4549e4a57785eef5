package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoSession() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := SessionIDFromContext(r.Context())
		_, _ = w.Write([]byte(id))
	})
}

func TestRequireAcceptsIssuedToken(t *testing.T) {
	s := NewSessions("secret", 0)
	token, err := s.Issue("sess-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	s.Require(echoSession()).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "sess-1", rr.Body.String())
}

func TestRequireTokenQueryParam(t *testing.T) {
	s := NewSessions("secret", 0)
	token, err := s.Issue("sess-ws")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	s.Require(echoSession()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	assert.Equal(t, "sess-ws", rr.Body.String())
}

func TestRequireRejects(t *testing.T) {
	s := NewSessions("secret", time.Hour)
	other, err := NewSessions("other-secret", time.Hour).Issue("sess-1")
	require.NoError(t, err)

	expiredIssuer := NewSessions("secret", time.Hour)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.Issue("sess-1")
	require.NoError(t, err)

	noSession, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"missing":       "",
		"not bearer":    "Token abc",
		"wrong secret":  "Bearer " + other,
		"expired":       "Bearer " + expired,
		"no session id": "Bearer " + noSession,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rr := httptest.NewRecorder()
			s.Require(echoSession()).ServeHTTP(rr, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestOptionalPassesThrough(t *testing.T) {
	s := NewSessions("secret", 0)

	rr := httptest.NewRecorder()
	s.Optional(echoSession()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())

	token, err := s.Issue("sess-2")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	s.Optional(echoSession()).ServeHTTP(rr, req)
	assert.Equal(t, "sess-2", rr.Body.String())
}

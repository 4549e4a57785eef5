package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const SessionCtxKey = contextKey("session_id")

// DefaultTTL is how long a device session token stays valid.
const DefaultTTL = 30 * 24 * time.Hour

// Sessions issues and checks signed device-session tokens. A token only
// names a session; which user the session is logged in as lives in the store.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for sessionID.
func (s *Sessions) Issue(sessionID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"session_id": sessionID,
		"iat":        now.Unix(),
		"exp":        now.Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates a token and returns its session id.
func (s *Sessions) Parse(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	sessionID, ok := claims["session_id"].(string)
	if !ok || sessionID == "" {
		return "", errors.New("invalid session_id in token")
	}
	return sessionID, nil
}

// bearer reads the token from the Authorization header, or the token query
// parameter for clients such as browsers opening a WebSocket.
func bearer(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if t := r.URL.Query().Get("token"); t != "" {
			return t, nil
		}
		return "", errors.New("missing Authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid Authorization header")
	}
	return parts[1], nil
}

// Require rejects requests without a valid session token.
func (s *Sessions) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearer(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		sessionID, err := s.Parse(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), SessionCtxKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional attaches the session when a valid token is present and passes
// the request through either way.
func (s *Sessions) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw, err := bearer(r); err == nil {
			if sessionID, err := s.Parse(raw); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), SessionCtxKey, sessionID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SessionIDFromContext extracts the session set by Require or Optional.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(SessionCtxKey).(string)
	return id, ok
}

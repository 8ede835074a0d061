package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired, or signed
// with the wrong key.
var ErrInvalidToken = errors.New("invalid token")

// SessionClaims holds the session binding embedded in access tokens issued by
// the external auth flow.
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
}

// SessionTokenProvider issues and validates HS256 tokens that bind an access
// token to a session. The external auth flow owns credentials; this provider
// only covers the session claim.
type SessionTokenProvider struct {
	secret []byte
	issuer string
}

// NewSessionTokenProvider returns a provider signing with the given shared secret.
func NewSessionTokenProvider(secret []byte, issuer string) *SessionTokenProvider {
	return &SessionTokenProvider{secret: secret, issuer: issuer}
}

// Issue signs a token carrying the session and user identity, expiring together
// with the session.
func (p *SessionTokenProvider) Issue(sessionID, userID string, expiresAt time.Time) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID: sessionID,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(p.secret)
}

// Parse validates the token and returns the bound session and user identifiers.
func (p *SessionTokenProvider) Parse(tokenString string) (sessionID, userID string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil {
		return "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return "", "", ErrInvalidToken
	}
	if p.issuer != "" && claims.Issuer != p.issuer {
		return "", "", ErrInvalidToken
	}
	if claims.SessionID == "" {
		return "", "", ErrInvalidToken
	}
	return claims.SessionID, claims.Subject, nil
}

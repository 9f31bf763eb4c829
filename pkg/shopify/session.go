package shopify

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSessionToken is returned when an embedded app session token
// fails validation.
var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims are the claims of an embedded app session token.
type SessionClaims struct {
	jwt.RegisteredClaims

	Dest string `json:"dest,omitempty"` // https://{shop}
}

// Session is a verified embedded app session.
type Session struct {
	Shop      string    `json:"shop"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifySessionToken validates an HS256 session token issued by Shopify
// App Bridge, signed with the app secret and addressed to the app's key.
func (c *Client) VerifySessionToken(token string, now time.Time) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSessionToken, ErrSignatureMissing)
	}
	if c.cfg.Secret == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSessionToken, ErrSecretNotConfigured)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)

	claims := &SessionClaims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(c.cfg.Secret), nil
	}); err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSessionToken, ErrSignatureMismatch)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidSessionToken, err)
	}

	if !slices.Contains(claims.Audience, c.cfg.Key) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidSessionToken)
	}

	shop := hostOf(claims.Dest)
	if shop == "" {
		shop = hostOf(claims.Issuer)
	}
	if shop == "" {
		return nil, fmt.Errorf("%w: missing shop", ErrInvalidSessionToken)
	}

	return &Session{
		Shop:      shop,
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// hostOf strips scheme and path from a dest or iss claim.
func hostOf(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	host, _, _ := strings.Cut(s, "/")
	return host
}

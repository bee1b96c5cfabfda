package auth

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// TOKEN ISSUER - HS256 bearer tokens carrying the owner identity
// =============================================================================

// TokenIssuer issues and verifies HMAC-signed JWTs. The subject claim is
// the member id, which doubles as the leave owner identity.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue creates a signed token for the owner.
func (t *TokenIssuer) Issue(owner leave.OwnerID) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   string(owner),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates a token, returning the owner identity.
func (t *TokenIssuer) Verify(raw string) (leave.OwnerID, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(tk *jwt.Token) (any, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return leave.OwnerID(claims.Subject), nil
}

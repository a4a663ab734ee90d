package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a session token is malformed or fails validation.
var ErrInvalidToken = errors.New("invalid token")

// SessionClaims holds the JWT claims of a session token. The token carries
// only the opaque session id (plus the owning account as subject); the session
// row is authoritative for expiry and revocation, evaluated lazily on access.
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// TokenProvider issues and validates signed session tokens using RS256 or
// ES256. The token's exp claim is an outer bound well beyond the sliding
// inactivity timeout; it exists so leaked tokens eventually die even if the
// session store is wiped.
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	maxLife    time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the given private key
// (RSA or ECDSA). maxLife caps token lifetime regardless of session activity.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, maxLife time.Duration) *TokenProvider {
	if maxLife <= 0 {
		maxLife = 30 * 24 * time.Hour
	}
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		maxLife:    maxLife,
	}
}

// Issue signs a session token for the given session and account.
func (p *TokenProvider) Issue(sessionID, accountID string) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.maxLife)),
		},
		SessionID: sessionID,
	}
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	return jwt.NewWithClaims(method, claims).SignedString(p.privateKey)
}

// Validate parses and validates a session token (signature, exp, iss, aud) and
// returns the session id and account id it names. Any failure is ErrInvalidToken.
func (p *TokenProvider) Validate(tokenString string) (sessionID, accountID string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			return p.publicKey, nil
		}
		return nil, ErrInvalidToken
	}, jwt.WithIssuer(p.issuer), jwt.WithAudience(p.audience))
	if err != nil {
		return "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", "", ErrInvalidToken
	}
	return claims.SessionID, claims.Subject, nil
}

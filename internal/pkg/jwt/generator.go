// internal/pkg/jwt/generator.go
package jwt

import (
	"crypto/rsa"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

const passwordResetTTL = 30 * time.Minute

// IssuedToken is a signed token plus the identifiers needed to track it.
type IssuedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

type Generator struct {
	priv       *rsa.PrivateKey
	issuer     string
	audience   string
	kid        string // key id for rotation
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewGenerator(priv *rsa.PrivateKey, issuer, audience, kid string, accessTTL, refreshTTL time.Duration) *Generator {
	return &Generator{
		priv:       priv,
		issuer:     issuer,
		audience:   audience,
		kid:        kid,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (g *Generator) generate(userID int64, role, device, purpose string, ttl time.Duration) (*IssuedToken, error) {
	if g.priv == nil {
		return nil, fmt.Errorf("jwt generator has nil private key")
	}

	now := time.Now()
	jti := ulid.Make().String()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		UserID:  userID,
		Role:    role,
		Device:  device,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			Audience:  []string{g.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if g.kid != "" {
		tok.Header["kid"] = g.kid
	}

	signed, err := tok.SignedString(g.priv)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &IssuedToken{Token: signed, JTI: jti, ExpiresAt: expiresAt}, nil
}

// GenerateAccessToken generates a short-lived access token carrying the user's role
func (g *Generator) GenerateAccessToken(userID int64, role, device string) (*IssuedToken, error) {
	return g.generate(userID, role, device, PurposeAccess, g.accessTTL)
}

// GenerateRefreshToken generates a refresh token. Refresh tokens carry no role;
// the role is re-read from the user row on rotation.
func (g *Generator) GenerateRefreshToken(userID int64, device string) (*IssuedToken, error) {
	return g.generate(userID, "", device, PurposeRefresh, g.refreshTTL)
}

// GeneratePasswordResetToken generates the token handed out after a verified OTP
func (g *Generator) GeneratePasswordResetToken(userID int64) (*IssuedToken, error) {
	return g.generate(userID, "", "", PurposePasswordReset, passwordResetTTL)
}

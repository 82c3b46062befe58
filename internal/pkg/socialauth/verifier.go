// Package socialauth verifies session tokens issued by the external identity
// provider against its published JWKS.
package socialauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// ErrProvider marks failures attributable to the identity provider or its token.
var ErrProvider = errors.New("identity provider rejected the session")

// Identity is the subset of provider claims used to find or create a local user.
type Identity struct {
	ExternalID    string
	Email         string
	EmailVerified bool
	Phone         string
	FirstName     string
	LastName      string
	AvatarURL     string
}

type providerClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Phone         string `json:"phone_number"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// KeySource yields the provider's current key set.
type KeySource interface {
	Keys(ctx context.Context) (jwk.Set, error)
	// Refresh forces a refetch, used when a token names an unknown kid.
	Refresh(ctx context.Context) (jwk.Set, error)
}

type Config struct {
	JWKSURL  string
	Issuer   string
	Audience string
}

type Verifier struct {
	keys     KeySource
	issuer   string
	audience string
}

func NewVerifier(keys KeySource, issuer, audience string) *Verifier {
	return &Verifier{keys: keys, issuer: issuer, audience: audience}
}

// Verify validates the token signature and standard claims and extracts the identity.
func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if v == nil || v.keys == nil {
		return nil, fmt.Errorf("%w: social login is not configured", ErrProvider)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256", "ES256"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims providerClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.lookupKey(ctx, t)
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrProvider)
	}

	id := &Identity{
		ExternalID:    claims.Subject,
		Email:         strings.ToLower(strings.TrimSpace(claims.Email)),
		EmailVerified: claims.EmailVerified,
		Phone:         strings.TrimSpace(claims.Phone),
		FirstName:     claims.GivenName,
		LastName:      claims.FamilyName,
		AvatarURL:     claims.Picture,
	}
	if id.FirstName == "" && claims.Name != "" {
		parts := strings.SplitN(claims.Name, " ", 2)
		id.FirstName = parts[0]
		if len(parts) == 2 && id.LastName == "" {
			id.LastName = parts[1]
		}
	}
	return id, nil
}

func (v *Verifier) lookupKey(ctx context.Context, t *jwt.Token) (interface{}, error) {
	kid, _ := t.Header["kid"].(string)

	set, err := v.keys.Keys(ctx)
	if err != nil {
		return nil, err
	}
	key, ok := set.LookupKeyID(kid)
	if !ok {
		if set, err = v.keys.Refresh(ctx); err != nil {
			return nil, err
		}
		if key, ok = set.LookupKeyID(kid); !ok {
			return nil, fmt.Errorf("no jwk for kid: %s", kid)
		}
	}

	var pub interface{}
	if err := key.Raw(&pub); err != nil {
		return nil, fmt.Errorf("failed to extract public key: %w", err)
	}
	return pub, nil
}

// JWKSSource fetches the key set over HTTP and caches it for refreshEvery.
type JWKSSource struct {
	url          string
	httpClient   *http.Client
	refreshEvery time.Duration

	mu        sync.Mutex
	set       jwk.Set
	fetchedAt time.Time
}

func NewJWKSSource(url string) *JWKSSource {
	return &JWKSSource{
		url:          url,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		refreshEvery: 10 * time.Minute,
	}
}

func (s *JWKSSource) Keys(ctx context.Context) (jwk.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set != nil && time.Since(s.fetchedAt) < s.refreshEvery {
		return s.set, nil
	}
	return s.fetchLocked(ctx)
}

func (s *JWKSSource) Refresh(ctx context.Context) (jwk.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Unknown kids are common for forged tokens; do not hammer the provider.
	if s.set != nil && time.Since(s.fetchedAt) < time.Minute {
		return s.set, nil
	}
	return s.fetchLocked(ctx)
}

func (s *JWKSSource) fetchLocked(ctx context.Context) (jwk.Set, error) {
	set, err := jwk.Fetch(ctx, s.url, jwk.WithHTTPClient(s.httpClient))
	if err != nil {
		if s.set != nil {
			return s.set, nil
		}
		return nil, fmt.Errorf("failed to fetch jwks: %w", err)
	}
	s.set = set
	s.fetchedAt = time.Now()
	return set, nil
}

// StaticSource serves a fixed key set.
type StaticSource struct {
	Set jwk.Set
}

func (s StaticSource) Keys(context.Context) (jwk.Set, error)    { return s.Set, nil }
func (s StaticSource) Refresh(context.Context) (jwk.Set, error) { return s.Set, nil }

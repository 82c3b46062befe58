package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"motormart-service/internal/domain/auth"
	xerrors "motormart-service/internal/pkg/errors"
	"motormart-service/internal/pkg/jwt"
	"motormart-service/internal/pkg/otp"
	"motormart-service/internal/pkg/session"
	"motormart-service/internal/pkg/socialauth"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[int64]*auth.User
	next  int64
	unban []int64
}

func newMemUsers() *memUsers { return &memUsers{byID: map[int64]*auth.User{}} }

func (m *memUsers) Create(_ context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	u.ID = m.next
	u.CreatedAt = time.Now()
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) find(match func(*auth.User) bool) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if match(u) {
			return u, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func eq(p *string, v string) bool { return p != nil && *p == v }

func (m *memUsers) FindByID(_ context.Context, id int64) (*auth.User, error) {
	return m.find(func(u *auth.User) bool { return u.ID == id })
}
func (m *memUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	return m.find(func(u *auth.User) bool { return eq(u.Email, email) })
}
func (m *memUsers) FindByPhone(_ context.Context, phone string) (*auth.User, error) {
	return m.find(func(u *auth.User) bool { return eq(u.Phone, phone) })
}
func (m *memUsers) FindByExternalID(_ context.Context, ext string) (*auth.User, error) {
	return m.find(func(u *auth.User) bool { return eq(u.ExternalID, ext) })
}
func (m *memUsers) UpdateProfile(context.Context, *auth.User) error { return nil }
func (m *memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, err := m.FindByID(context.Background(), id)
	if err != nil {
		return err
	}
	u.PasswordHash = &hash
	return nil
}
func (m *memUsers) UpdateLastLogin(_ context.Context, id int64, at time.Time) error { return nil }
func (m *memUsers) UpdateRole(_ context.Context, id int64, role auth.Role) error {
	u, err := m.FindByID(context.Background(), id)
	if err != nil {
		return err
	}
	u.Role = role
	return nil
}
func (m *memUsers) Ban(context.Context, int64, string, *time.Time, int64, time.Time) error { return nil }
func (m *memUsers) Unban(_ context.Context, id int64) error {
	m.unban = append(m.unban, id)
	return nil
}
func (m *memUsers) LiftExpiredBans(context.Context, time.Time) (int64, error) { return 0, nil }
func (m *memUsers) List(context.Context, *auth.UserListFilters) ([]*auth.User, int64, error) {
	return nil, 0, nil
}

type memTokens struct {
	mu     sync.Mutex
	byHash map[string]*auth.RefreshToken
	next   int64

	// storeErr fails the insert half of Rotate, leaving the old token untouched.
	storeErr error
}

func newMemTokens() *memTokens { return &memTokens{byHash: map[string]*auth.RefreshToken{}} }

func (m *memTokens) Create(_ context.Context, t *auth.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	t.ID = m.next
	m.byHash[t.TokenHash] = t
	return nil
}
func (m *memTokens) FindByHash(_ context.Context, hash string) (*auth.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.byHash[hash]; ok {
		return t, nil
	}
	return nil, xerrors.ErrNotFound
}
func (m *memTokens) each(fn func(*auth.RefreshToken)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byHash {
		fn(t)
	}
}
func (m *memTokens) Rotate(_ context.Context, oldID int64, next *auth.RefreshToken, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var old *auth.RefreshToken
	for _, t := range m.byHash {
		if t.ID == oldID && t.RevokedAt == nil {
			old = t
		}
	}
	if old == nil {
		return xerrors.ErrNotFound
	}
	if m.storeErr != nil {
		return m.storeErr
	}
	jti := next.JTI
	old.RevokedAt, old.ReplacedBy = &at, &jti
	m.next++
	next.ID = m.next
	m.byHash[next.TokenHash] = next
	return nil
}
func (m *memTokens) Revoke(_ context.Context, id int64, at time.Time) error {
	m.each(func(t *auth.RefreshToken) {
		if t.ID == id && t.RevokedAt == nil {
			t.RevokedAt = &at
		}
	})
	return nil
}
func (m *memTokens) RevokeAllForUser(_ context.Context, userID int64, at time.Time) error {
	m.each(func(t *auth.RefreshToken) {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &at
		}
	})
	return nil
}
func (m *memTokens) RevokeAllExcept(_ context.Context, userID, keepID int64, at time.Time) error {
	m.each(func(t *auth.RefreshToken) {
		if t.UserID == userID && t.ID != keepID && t.RevokedAt == nil {
			t.RevokedAt = &at
		}
	})
	return nil
}
func (m *memTokens) active(userID int64) int {
	n := 0
	m.each(func(t *auth.RefreshToken) {
		if t.UserID == userID && t.RevokedAt == nil {
			n++
		}
	})
	return n
}

type fakeMailer struct {
	codes   map[string]string
	welcome []string
	err     error
}

func (f *fakeMailer) SendOTP(to, _ string, code string, _ time.Duration) error {
	if f.err != nil {
		return f.err
	}
	if f.codes == nil {
		f.codes = map[string]string{}
	}
	f.codes[to] = code
	return nil
}
func (f *fakeMailer) SendWelcome(to, _ string) { f.welcome = append(f.welcome, to) }

type fakeSocial struct {
	id  *socialauth.Identity
	err error
}

func (f *fakeSocial) Verify(context.Context, string) (*socialauth.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.id
	return &cp, nil
}

type fixture struct {
	svc    *AuthService
	users  *memUsers
	tokens *memTokens
	mailer *fakeMailer
	social *fakeSocial
	redis  *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	manager := &jwt.Manager{
		Generator: jwt.NewGenerator(key, "motormart", "motormart-users", "k1", 15*time.Minute, 24*time.Hour),
		Verifier:  jwt.NewVerifier(&key.PublicKey, "motormart", "motormart-users"),
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		users:  newMemUsers(),
		tokens: newMemTokens(),
		mailer: &fakeMailer{},
		social: &fakeSocial{},
		redis:  mr,
	}
	f.svc = NewAuthService(
		f.users, f.tokens, manager,
		session.NewRateLimiter(client), session.NewBlacklist(client),
		otp.NewMemoryStore(), 10*time.Minute,
		f.social, f.mailer, zap.NewNop(),
	)
	return f
}

package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"dsadmin/apperror"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-signing-secret")

func newTestTokenService(t *testing.T) (*TokenService, *MemoryRevocationStore) {
	t.Helper()
	store := NewMemoryRevocationStore()
	svc, err := NewTokenService(TokenConfig{
		Secret:    testSecret,
		Algorithm: "HS256",
		Issuer:    "dsadmin-test",
		TTL:       30 * time.Minute,
	}, store)
	require.NoError(t, err)
	return svc, store
}

func TestNewTokenServiceRejectsBadConfig(t *testing.T) {
	store := NewMemoryRevocationStore()

	_, err := NewTokenService(TokenConfig{Algorithm: "HS256"}, store)
	assert.Error(t, err, "empty secret")

	_, err = NewTokenService(TokenConfig{Secret: testSecret, Algorithm: "RS256"}, store)
	assert.Error(t, err, "asymmetric algorithm")

	_, err = NewTokenService(TokenConfig{Secret: testSecret, Algorithm: "HS256"}, nil)
	assert.Error(t, err, "missing revocation store")
}

func TestIssueThenValidate(t *testing.T) {
	svc, _ := newTestTokenService(t)
	ctx := context.Background()

	for _, handle := range []string{"a@x.com", "admin@example.com", "ünïcode@example.org"} {
		token, expiresAt, err := svc.Issue(handle, 30*time.Minute)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 2*time.Second)

		got, err := svc.Validate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, handle, got)

		// idempotent
		again, err := svc.Validate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, got, again)
	}
}

func TestIssueProducesDistinctTokens(t *testing.T) {
	svc, _ := newTestTokenService(t)
	t1, _, err := svc.Issue("a@x.com", time.Minute)
	require.NoError(t, err)
	t2, _, err := svc.Issue("a@x.com", time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

func TestValidateExpired(t *testing.T) {
	svc, _ := newTestTokenService(t)
	ctx := context.Background()

	for _, ttl := range []time.Duration{0, -time.Second, -time.Hour} {
		token, _, err := svc.Issue("a@x.com", ttl)
		require.NoError(t, err)
		_, err = svc.Validate(ctx, token)
		assert.ErrorIs(t, err, ErrTokenExpired, "ttl %s", ttl)
	}

	// A token valid now becomes expired once the clock passes its expiry.
	token, expiresAt, err := svc.Issue("a@x.com", time.Minute)
	require.NoError(t, err)
	svc.now = func() time.Time { return expiresAt.Add(time.Second) }
	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateMalformed(t *testing.T) {
	svc, _ := newTestTokenService(t)
	ctx := context.Background()

	other, err := NewTokenService(TokenConfig{Secret: []byte("another-secret"), Algorithm: "HS256", TTL: time.Minute}, NewMemoryRevocationStore())
	require.NoError(t, err)
	foreign, _, err := other.Issue("a@x.com", time.Minute)
	require.NoError(t, err)

	hs512, err := NewTokenService(TokenConfig{Secret: testSecret, Algorithm: "HS512", TTL: time.Minute}, NewMemoryRevocationStore())
	require.NoError(t, err)
	wrongAlg, _, err := hs512.Issue("a@x.com", time.Minute)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "a@x.com"}).SignedString(testSecret)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "a@x.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":         "not-a-token",
		"empty":           "",
		"two segments":    "abc.def",
		"wrong secret":    foreign,
		"wrong algorithm": wrongAlg,
		"missing exp":     noExp,
		"alg none":        unsigned,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Validate(ctx, token)
			assert.ErrorIs(t, err, ErrMalformedToken)
			assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
		})
	}
}

func TestValidateMalformedBeforeExpired(t *testing.T) {
	svc, _ := newTestTokenService(t)
	other, err := NewTokenService(TokenConfig{Secret: []byte("another-secret"), Algorithm: "HS256"}, NewMemoryRevocationStore())
	require.NoError(t, err)

	expiredForeign, _, err := other.Issue("a@x.com", -time.Hour)
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), expiredForeign)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestValidateMissingSubject(t *testing.T) {
	svc, _ := newTestTokenService(t)
	token, _, err := svc.Issue("", time.Minute)
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrMissingSubject)
}

func TestRevokeIsPermanent(t *testing.T) {
	svc, store := newTestTokenService(t)
	ctx := context.Background()

	token, _, err := svc.Issue("a@x.com", time.Hour)
	require.NoError(t, err)
	_, err = svc.Validate(ctx, token)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token))
	require.NoError(t, svc.Revoke(ctx, token), "revoking twice is a no-op")
	assert.Equal(t, 1, store.Len())

	for i := 0; i < 3; i++ {
		_, err = svc.Validate(ctx, token)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	}

	// Other tokens for the same handle are unaffected.
	other, _, err := svc.Issue("a@x.com", time.Hour)
	require.NoError(t, err)
	_, err = svc.Validate(ctx, other)
	assert.NoError(t, err)
}

func TestRevokeAcceptsUnparseableToken(t *testing.T) {
	svc, store := newTestTokenService(t)
	require.NoError(t, svc.Revoke(context.Background(), "garbage"))
	assert.Equal(t, 1, store.Len())
}

func TestRevokedTokenReportsExpiredAfterExpiry(t *testing.T) {
	svc, _ := newTestTokenService(t)
	ctx := context.Background()

	token, expiresAt, err := svc.Issue("a@x.com", time.Minute)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, token))

	svc.now = func() time.Time { return expiresAt.Add(time.Minute) }
	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestConcurrentRevokeAndValidate(t *testing.T) {
	svc, _ := newTestTokenService(t)
	ctx := context.Background()

	tokens := make([]string, 50)
	for i := range tokens {
		tok, _, err := svc.Issue("a@x.com", time.Hour)
		require.NoError(t, err)
		tokens[i] = tok
	}

	var wg sync.WaitGroup
	for _, tok := range tokens {
		wg.Add(2)
		go func(tok string) {
			defer wg.Done()
			_ = svc.Revoke(ctx, tok)
		}(tok)
		go func(tok string) {
			defer wg.Done()
			_, _ = svc.Validate(ctx, tok)
		}(tok)
	}
	wg.Wait()

	for _, tok := range tokens {
		_, err := svc.Validate(ctx, tok)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	}
}

package jwt_test

import (
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mofumofu/authcore/pkg/jwt"
)

const secret = "0123456789abcdef0123456789abcdef"

func testConfig() jwt.Config {
	return jwt.Config{
		Secret:               secret,
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      24 * time.Hour,
		EmailVerificationTTL: time.Hour,
		PasswordResetTTL:     time.Hour,
	}
}

func newCodec(t *testing.T, opts ...jwt.Option) *jwt.Codec {
	t.Helper()
	c, err := jwt.New(testConfig(), opts...)
	require.NoError(t, err)
	return c
}

// signRaw signs arbitrary claims with the test secret, bypassing the codec.
func signRaw(t *testing.T, claims gojwt.MapClaims) string {
	t.Helper()
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("missing secret", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.Secret = ""
		_, err := jwt.New(cfg)
		assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)
	})

	t.Run("short secret", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.Secret = "short"
		_, err := jwt.New(cfg)
		assert.ErrorIs(t, err, jwt.ErrInvalidSigningKey)
	})

	t.Run("non-positive lifetime", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.PasswordResetTTL = 0
		_, err := jwt.New(cfg)
		assert.ErrorIs(t, err, jwt.ErrInvalidLifetime)
	})

	t.Run("config hides secret", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, newCodec(t).Config().Secret)
	})
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	c := newCodec(t, jwt.WithClock(func() time.Time { return now }))
	userID := uuid.New()

	t.Run("access", func(t *testing.T) {
		t.Parallel()

		tok, err := c.MintAccess(userID)
		require.NoError(t, err)

		claims, err := c.DecodeAccess(tok)
		require.NoError(t, err)
		assert.Equal(t, jwt.KindAccess, claims.Kind)
		assert.Equal(t, userID, claims.Subject)
		assert.Equal(t, now.Unix(), claims.IssuedAt)
		assert.Equal(t, now.Add(15*time.Minute).Unix(), claims.ExpiresAt)
	})

	t.Run("refresh", func(t *testing.T) {
		t.Parallel()

		rt, err := c.MintRefresh(userID)
		require.NoError(t, err)
		_, err = uuid.Parse(rt.JTI)
		require.NoError(t, err)
		assert.Equal(t, now.Add(24*time.Hour), rt.ExpiresAt)
		assert.Equal(t, now, rt.IssuedAt)

		claims, err := jwt.Decode[jwt.RefreshClaims](c, rt.Token)
		require.NoError(t, err)
		assert.Equal(t, rt.JTI, claims.ID)
		assert.Equal(t, userID, claims.Subject)

		other, err := c.MintRefresh(userID)
		require.NoError(t, err)
		assert.NotEqual(t, rt.JTI, other.JTI)
	})

	t.Run("email verification", func(t *testing.T) {
		t.Parallel()

		tok, err := c.MintEmailVerification(userID, "ann@x.com")
		require.NoError(t, err)
		claims, err := c.DecodeEmailVerification(tok)
		require.NoError(t, err)
		assert.Equal(t, "ann@x.com", claims.Email)
		assert.Equal(t, userID, claims.Subject)
	})

	t.Run("password reset", func(t *testing.T) {
		t.Parallel()

		tok, err := c.MintPasswordReset(userID, "ann@x.com", "abcd")
		require.NoError(t, err)
		claims, err := c.DecodePasswordReset(tok)
		require.NoError(t, err)
		assert.Equal(t, "ann@x.com", claims.Email)
		assert.Equal(t, "abcd", claims.Stamp)
	})
}

func TestDecode_KindConfusion(t *testing.T) {
	t.Parallel()

	c := newCodec(t)
	userID := uuid.New()

	access, err := c.MintAccess(userID)
	require.NoError(t, err)
	refresh, err := c.MintRefresh(userID)
	require.NoError(t, err)
	verify, err := c.MintEmailVerification(userID, "a@b.c")
	require.NoError(t, err)

	_, err = c.DecodeRefresh(access)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	_, err = c.DecodeAccess(refresh.Token)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	_, err = c.DecodePasswordReset(verify)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	_, err = c.DecodeAccess(verify)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestDecode_BitFlip(t *testing.T) {
	t.Parallel()

	c := newCodec(t)
	rt, err := c.MintRefresh(uuid.New())
	require.NoError(t, err)

	raw := []byte(rt.Token)
	for i := range raw {
		for bit := range 8 {
			mutated := make([]byte, len(raw))
			copy(mutated, raw)
			mutated[i] ^= 1 << bit

			_, err := c.DecodeRefresh(string(mutated))
			require.ErrorIs(t, err, jwt.ErrInvalidToken, "byte %d bit %d accepted", i, bit)
		}
	}
}

func TestDecode_Rejects(t *testing.T) {
	t.Parallel()

	c := newCodec(t)
	now := time.Now().Unix()
	sub := uuid.NewString()

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"empty", func(*testing.T) string { return "" }},
		{"garbage", func(*testing.T) string { return "a.b.c" }},
		{"wrong secret", func(t *testing.T) string {
			cfg := testConfig()
			cfg.Secret = strings.Repeat("z", 32)
			other, err := jwt.New(cfg)
			require.NoError(t, err)
			tok, err := other.MintAccess(uuid.New())
			require.NoError(t, err)
			return tok
		}},
		{"alg none", func(t *testing.T) string {
			tok, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, gojwt.MapClaims{
				"typ": "access", "sub": sub, "iat": now, "exp": now + 60,
			}).SignedString(gojwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)
			return tok
		}},
		{"unknown claim", func(t *testing.T) string {
			return signRaw(t, gojwt.MapClaims{"typ": "access", "sub": sub, "iat": now, "exp": now + 60, "admin": true})
		}},
		{"missing kind", func(t *testing.T) string {
			return signRaw(t, gojwt.MapClaims{"sub": sub, "iat": now, "exp": now + 60})
		}},
		{"non-uuid subject", func(t *testing.T) string {
			return signRaw(t, gojwt.MapClaims{"typ": "access", "sub": "42", "iat": now, "exp": now + 60})
		}},
		{"nil subject", func(t *testing.T) string {
			return signRaw(t, gojwt.MapClaims{"typ": "access", "sub": uuid.Nil.String(), "iat": now, "exp": now + 60})
		}},
		{"missing iat", func(t *testing.T) string {
			return signRaw(t, gojwt.MapClaims{"typ": "access", "sub": sub, "exp": now + 60})
		}},
		{"exp before iat", func(t *testing.T) string {
			return signRaw(t, gojwt.MapClaims{"typ": "access", "sub": sub, "iat": now, "exp": now - 1})
		}},
		{"string exp", func(t *testing.T) string {
			return signRaw(t, gojwt.MapClaims{"typ": "access", "sub": sub, "iat": now, "exp": "soon"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := c.DecodeAccess(tt.token(t))
			assert.ErrorIs(t, err, jwt.ErrInvalidToken)
		})
	}

	t.Run("refresh without jti", func(t *testing.T) {
		t.Parallel()

		tok := signRaw(t, gojwt.MapClaims{"typ": "refresh", "sub": sub, "iat": now, "exp": now + 60})
		_, err := c.DecodeRefresh(tok)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("verification without email", func(t *testing.T) {
		t.Parallel()

		tok := signRaw(t, gojwt.MapClaims{"typ": "email_verification", "sub": sub, "iat": now, "exp": now + 60})
		_, err := c.DecodeEmailVerification(tok)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}

func TestDecode_DoesNotCheckExpiry(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-48 * time.Hour)
	c := newCodec(t, jwt.WithClock(func() time.Time { return past }))

	rt, err := c.MintRefresh(uuid.New())
	require.NoError(t, err)

	claims, err := c.DecodeRefresh(rt.Token)
	require.NoError(t, err)
	assert.True(t, claims.Expired(time.Now()))
	assert.False(t, claims.Expired(past))
}

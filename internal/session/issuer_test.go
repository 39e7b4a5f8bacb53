package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdsaddlery/storefront/internal/model"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssuer_IssueAndVerify(t *testing.T) {
	now := time.Now()
	issuer := NewIssuerWithClock("secret", fixedClock(now))
	id := uuid.New()

	token, expiresAt, err := issuer.Issue(id, "a@b.com", model.RoleUser, 7*24*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, now.Add(7*24*time.Hour), expiresAt)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.AccountID)
	assert.Equal(t, id, claims.AccountUUID())
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, model.RoleUser, claims.Role)
	assert.Equal(t, id.String(), claims.Subject)
}

func TestIssuer_Verify_Expired(t *testing.T) {
	now := time.Now()
	issuer := NewIssuerWithClock("secret", fixedClock(now))

	token, _, err := issuer.Issue(uuid.New(), "admin@b.com", model.RoleAdmin, 2*time.Hour)
	require.NoError(t, err)

	later := NewIssuerWithClock("secret", fixedClock(now.Add(2*time.Hour+time.Minute)))
	_, err = later.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestIssuer_Verify_WrongSecret(t *testing.T) {
	token, _, err := NewIssuer("secret").Issue(uuid.New(), "a@b.com", model.RoleUser, time.Hour)
	require.NoError(t, err)

	_, err = NewIssuer("other").Verify(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestIssuer_Verify_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{
		AccountID: uuid.NewString(),
		Role:      model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer("secret").Verify(signed)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestIssuer_Verify_Garbage(t *testing.T) {
	issuer := NewIssuer("secret")

	for _, tok := range []string{"", "abc", "a.b.c"} {
		_, err := issuer.Verify(tok)
		assert.ErrorIs(t, err, ErrUnauthenticated, "token %q", tok)
	}
}

func TestIssuer_Authorize(t *testing.T) {
	issuer := NewIssuer("secret")
	token, _, err := issuer.Issue(uuid.New(), "a@b.com", model.RoleUser, time.Hour)
	require.NoError(t, err)

	_, err = issuer.Authorize(token, model.RoleUser)
	assert.NoError(t, err)

	_, err = issuer.Authorize(token, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)
}

package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "profast/pkg/domain-errors"
)

var svc = New("test-signing-key", "test-issuer")

func Test_IssueAndVerify(t *testing.T) {
	token, err := svc.Issue("uid-1", "alice@x.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", subject.UID)
	assert.Equal(t, "alice@x.com", subject.Email)
}

func Test_Verify_InvalidToken(t *testing.T) {
	_, err := svc.Verify(context.Background(), "invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeForbidden, "invalid token"))
}

func Test_Verify_ExpiredToken(t *testing.T) {
	token, err := svc.Issue("uid-1", "alice@x.com", -time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeForbidden, "token has expired"))
}

func Test_Verify_WrongKey(t *testing.T) {
	other := New("another-key", "test-issuer")
	token, err := other.Issue("uid-1", "alice@x.com", time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func Test_Verify_WrongIssuer(t *testing.T) {
	other := New("test-signing-key", "someone-else")
	token, err := other.Issue("uid-1", "alice@x.com", time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func Test_Verify_RejectsNoneAlg(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Email:            "alice@x.com",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "test-issuer"},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func Test_Verify_MissingEmail(t *testing.T) {
	token, err := svc.Issue("uid-1", "", time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeForbidden, "token carries no email"))
}

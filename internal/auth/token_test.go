package auth_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpass/internal/auth"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestSubjectFromToken(t *testing.T) {
	tokenString := signedToken(t, jwt.MapClaims{"sub": "user-123"})

	sub, err := auth.SubjectFromToken(tokenString)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", sub)
}

func TestSubjectFromTokenMissingSubject(t *testing.T) {
	tokenString := signedToken(t, jwt.MapClaims{"email": "a@b.com"})

	_, err := auth.SubjectFromToken(tokenString)
	assert.Error(t, err)
}

func TestSubjectFromTokenInvalid(t *testing.T) {
	_, err := auth.SubjectFromToken("")
	assert.Error(t, err)

	_, err = auth.SubjectFromToken("not.a.token")
	assert.Error(t, err)
}

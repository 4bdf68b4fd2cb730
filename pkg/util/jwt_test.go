package util

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("u-42", "Ayşe", "site_chief", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u-42", claims.UserID)
	assert.Equal(t, "site_chief", claims.Role)
	assert.Equal(t, "Ayşe", claims.Name)
}

func TestParseJWTRejectsWrongSecretAndExpired(t *testing.T) {
	token, err := GenerateJWT("u-1", "", "field_engineer", "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(token, "other")
	assert.Error(t, err)

	expired, err := GenerateJWT("u-1", "", "field_engineer", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseJWTRequiresUserID(t *testing.T) {
	token, err := GenerateJWT("", "", "field_engineer", "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(token, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenMalformed)
}

func TestExtractToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, err := ExtractToken(r)
	assert.ErrorIs(t, err, ErrNoBearerToken)

	r.Header.Set("Authorization", "Basic abc")
	_, err = ExtractToken(r)
	assert.ErrorIs(t, err, ErrNoBearerToken)

	r.Header.Set("Authorization", "Bearer abc.def")
	tok, err := ExtractToken(r)
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)
}

package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/fitness-reminders/internal/lib/jwt"
)

func TestMaker_GenerateAndParse(t *testing.T) {
	maker := jwt.NewMaker("test_secret_key", time.Hour)

	token, err := maker.GenerateToken("testuser")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims.Username)
}

func TestMaker_ParseToken_WrongSecret(t *testing.T) {
	maker := jwt.NewMaker("test_secret_key", time.Hour)
	other := jwt.NewMaker("another_secret", time.Hour)

	token, err := maker.GenerateToken("testuser")
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestMaker_ParseToken_Expired(t *testing.T) {
	maker := jwt.NewMaker("test_secret_key", -time.Minute)

	token, err := maker.GenerateToken("testuser")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.Error(t, err)
}

func TestMaker_ParseToken_Garbage(t *testing.T) {
	maker := jwt.NewMaker("test_secret_key", time.Hour)

	_, err := maker.ParseToken("not-a-token")
	assert.Error(t, err)
}

package util

import (
	"testing"
	"time"

	"course_gen_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *model.User {
	return &model.User{
		BaseModel: model.BaseModel{ID: 42},
		Name:      "alice",
		Email:     "alice@example.com",
		Role:      model.Student,
	}
}

func TestJWT_RoundTrip(t *testing.T) {
	token, err := GenerateJWT(testUser(), "secret", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, model.Student, claims.Role)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT(testUser(), "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestJWT_Expired(t *testing.T) {
	token, err := GenerateJWT(testUser(), "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, "secret")
	assert.Error(t, err)
}

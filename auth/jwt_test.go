package auth

import (
	"testing"
	"time"

	"dockflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *models.User {
	return &models.User{
		UserID:   "user-test",
		Username: "tester",
		Role:     models.RoleShiftLead,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := NewJWTManager("unit-test-secret", time.Minute, time.Hour)

	token, err := m.GenerateToken(testUser())
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-test", claims.UserID)
	assert.Equal(t, "tester", claims.Username)
	assert.Equal(t, models.RoleShiftLead, claims.Role)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	m := NewJWTManager("secret-a", time.Minute, time.Hour)
	token, err := m.GenerateToken(testUser())
	require.NoError(t, err)

	other := NewJWTManager("secret-b", time.Minute, time.Hour)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	token, err := ExtractToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ExtractToken("")
	assert.Error(t, err)

	_, err = ExtractToken("Token abc")
	assert.Error(t, err)
}

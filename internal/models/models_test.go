package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleAndStatusValidation(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("organizer").Valid())

	assert.True(t, EventCompleted.Valid())
	assert.False(t, EventStatus("postponed").Valid())
}

func TestUserProfileHidesSecrets(t *testing.T) {
	user := &User{Name: "Alice", Email: "alice@example.com", Password: "hash", Role: RoleUser, ResetOTP: "123456"}

	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hash")
	assert.NotContains(t, string(data), "123456")

	profile := user.Profile()
	assert.Equal(t, []string{}, profile.Interests)
	assert.Equal(t, "alice@example.com", profile.Email)
}

func TestEventPriceEncodesAsNumber(t *testing.T) {
	data, err := json.Marshal(Event{Price: decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":12.5`)
}

func TestProfileEnumerations(t *testing.T) {
	assert.True(t, ValidAgeBracket("45+"))
	assert.False(t, ValidAgeBracket("60+"))
	assert.True(t, ValidLocation("Sharm El Sheikh"))
	assert.False(t, ValidGender("male"))
	assert.True(t, ValidInterest("EDM Music"))
}

package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/eventstudio/eventstudio-api/internal/apperr"
	"github.com/eventstudio/eventstudio-api/internal/models"
)

func TestRequireAdmin(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	user := &models.User{ID: uuid.New(), Role: models.RoleUser}

	assert.NoError(t, RequireAdmin(admin))
	assert.True(t, apperr.Is(RequireAdmin(user), apperr.KindAccessDenied))
	assert.True(t, apperr.Is(RequireAdmin(nil), apperr.KindAuth))
}

func TestRequireUserRoleAcceptsAdmin(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}

	assert.NoError(t, Require(admin, models.RoleUser))
}

func TestOwnerOrAdmin(t *testing.T) {
	owner := &models.User{ID: uuid.New(), Role: models.RoleUser}
	other := &models.User{ID: uuid.New(), Role: models.RoleUser}
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}

	assert.NoError(t, OwnerOrAdmin(owner, owner.ID, "nope"))
	assert.NoError(t, OwnerOrAdmin(admin, owner.ID, "nope"))

	err := OwnerOrAdmin(other, owner.ID, "Not authorized to update this event")
	assert.True(t, apperr.Is(err, apperr.KindAccessDenied))
	assert.Contains(t, err.Error(), "Not authorized to update this event")
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/eventstudio/eventstudio-api/internal/apperr"
	"github.com/eventstudio/eventstudio-api/internal/helpers"
	"github.com/eventstudio/eventstudio-api/internal/models"
	"github.com/eventstudio/eventstudio-api/internal/testutil"
)

type fixture struct {
	db        *gorm.DB
	auth      *AuthService
	events    *EventService
	tickets   *TicketService
	analytics *AnalyticsService
	admin     *models.User
	alice     *models.User
	bob       *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	uploads := helpers.DefaultImageUploadConfig
	uploads.UploadBasePath = t.TempDir()

	auth := NewAuthService(db, []byte("test-secret"), helpers.DefaultSessionTTL)
	auth.HashCost = bcrypt.MinCost

	return &fixture{
		db:        db,
		auth:      auth,
		events:    NewEventService(db, uploads),
		tickets:   NewTicketService(db),
		analytics: NewAnalyticsService(db),
		admin:     testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin),
		alice:     testutil.CreateUser(t, db, "alice@example.com", models.RoleUser),
		bob:       testutil.CreateUser(t, db, "bob@example.com", models.RoleUser),
	}
}

func assertKind(t *testing.T, err error, kind apperr.Kind, msg ...string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), "unexpected error: %v", err)
	if len(msg) > 0 {
		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, msg[0], appErr.Message)
	}
}

func ptr[T any](v T) *T {
	return &v
}

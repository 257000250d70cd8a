package review

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_platform/internal/apperr"
	"github.com/Skotchmaster/shop_platform/internal/auth"
	"github.com/Skotchmaster/shop_platform/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	require.NoError(t, db.Create(&models.User{Name: "alice", Email: "alice@example.com", PasswordHash: "x"}).Error)
	require.NoError(t, db.Create(&models.Product{Name: "widget", Price: 100, AdminID: 1}).Error)
	return &Service{DB: db}
}

func TestCreate(t *testing.T) {
	svc := newTestService(t)

	r, err := svc.Create(t.Context(), CreateInput{ProductID: 1, UserID: 1, Rating: 4, Comment: "solid"})
	require.NoError(t, err)
	assert.Equal(t, 4, r.Rating)
}

func TestCreate_OnePerUserPerProduct(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(t.Context(), CreateInput{ProductID: 1, UserID: 1, Rating: 4})
	require.NoError(t, err)

	_, err = svc.Create(t.Context(), CreateInput{ProductID: 1, UserID: 1, Rating: 5})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(t.Context(), CreateInput{ProductID: 1, UserID: 1, Rating: 0})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(t.Context(), CreateInput{ProductID: 1, UserID: 1, Rating: 6})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(t.Context(), CreateInput{ProductID: 99, UserID: 1, Rating: 3})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDelete_AuthorOrAdmin(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.DB.Create(&models.User{Name: "mallory", Email: "mallory@example.com", PasswordHash: "x"}).Error)

	r, err := svc.Create(t.Context(), CreateInput{ProductID: 1, UserID: 1, Rating: 3})
	require.NoError(t, err)

	err = svc.Delete(t.Context(), r.ID, auth.Principal{ID: 2, Role: auth.RoleUser})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	err = svc.Delete(t.Context(), r.ID, auth.Principal{ID: 1, Role: auth.RoleUser})
	require.NoError(t, err)

	err = svc.Delete(t.Context(), r.ID, auth.Principal{ID: 1, Role: auth.RoleAdmin})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

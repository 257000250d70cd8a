package discount

import (
	"context"
	"testing"
	"time"

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

	return &Service{DB: db}
}

func validInput() CreateInput {
	return CreateInput{
		Code:       "save10",
		Percentage: 10,
		ValidTill:  time.Now().Add(48 * time.Hour),
		AdminID:    1,
	}
}

func TestCreate_NormalizesCode(t *testing.T) {
	svc := newTestService(t)

	d, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", d.Code)
}

func TestCreate_DuplicateCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Create(ctx, validInput())
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{name: "empty code", mutate: func(in *CreateInput) { in.Code = "  " }},
		{name: "percentage zero", mutate: func(in *CreateInput) { in.Percentage = 0 }},
		{name: "percentage above 100", mutate: func(in *CreateInput) { in.Percentage = 101 }},
		{name: "expired valid_till", mutate: func(in *CreateInput) { in.ValidTill = time.Now().Add(-time.Hour) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.Create(ctx, in)
			require.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestGet_ReportsUsage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.DB.Create(&models.Order{
		UserID:      1,
		DiscountID:  &d.ID,
		TotalAmount: 900,
		Status:      models.OrderStatusPending,
	}).Error)

	view, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.UsageCount)
}

func TestAttachProduct_Ownership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	p := models.Product{Name: "widget", Price: 100, AdminID: 7}
	require.NoError(t, svc.DB.Create(&p).Error)

	t.Run("foreign admin rejected", func(t *testing.T) {
		err := svc.AttachProduct(ctx, d.ID, p.ID, auth.Principal{ID: 8, Role: auth.RoleAdmin})
		require.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("owner allowed", func(t *testing.T) {
		err := svc.AttachProduct(ctx, d.ID, p.ID, auth.Principal{ID: 7, Role: auth.RoleAdmin})
		require.NoError(t, err)

		bound, err := svc.ListForProduct(ctx, p.ID, false)
		require.NoError(t, err)
		require.Len(t, bound, 1)
	})

	t.Run("superadmin allowed to detach", func(t *testing.T) {
		err := svc.DetachProduct(ctx, d.ID, p.ID, auth.Principal{ID: 99, Role: auth.RoleSuperAdmin})
		require.NoError(t, err)

		bound, err := svc.ListForProduct(ctx, p.ID, false)
		require.NoError(t, err)
		assert.Empty(t, bound)
	})
}

func TestListForProduct_ValidOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := models.Product{Name: "widget", Price: 100, AdminID: 1}
	require.NoError(t, svc.DB.Create(&p).Error)

	fresh, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	stale := models.Discount{Code: "STALE", Percentage: 20, ValidTill: time.Now().Add(-time.Hour), AdminID: 1}
	require.NoError(t, svc.DB.Create(&stale).Error)

	owner := auth.Principal{ID: 1, Role: auth.RoleAdmin}
	require.NoError(t, svc.AttachProduct(ctx, fresh.ID, p.ID, owner))
	require.NoError(t, svc.AttachProduct(ctx, stale.ID, p.ID, owner))

	all, err := svc.ListForProduct(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	valid, err := svc.ListForProduct(ctx, p.ID, true)
	require.NoError(t, err)
	require.Len(t, valid, 1)
	assert.Equal(t, "SAVE10", valid[0].Code)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	pct := int64(25)
	updated, err := svc.Update(ctx, d.ID, UpdateInput{Percentage: &pct})
	require.NoError(t, err)
	assert.Equal(t, int64(25), updated.Percentage)

	_, err = svc.Update(ctx, d.ID, UpdateInput{})
	require.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, svc.Delete(ctx, d.ID))
	err = svc.Delete(ctx, d.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

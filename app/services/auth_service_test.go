package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betterdrive/betterdrive/app/models"
	"github.com/betterdrive/betterdrive/app/services"
	"github.com/betterdrive/betterdrive/pkg/auth"
)

func TestRegisterCreatesHomeFolder(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewAuthService(db)

	user, token, err := svc.Register(context.Background(), "Alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "s3cret-pass", user.Password, "password is stored hashed")

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	var home models.Folder
	require.NoError(t, db.Where("user_id = ? AND parent_id IS NULL", user.ID).First(&home).Error)
	assert.Equal(t, models.HomeFolderName, home.Name)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewAuthService(db)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Alice", "dup@example.com", "password-1")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "Mallory", "dup@example.com", "password-2")
	assert.ErrorIs(t, err, services.ErrConflict)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "dup@example.com").Count(&users).Error)
	assert.EqualValues(t, 1, users)
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewAuthService(db)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, "Bob", "bob@example.com", "correct-horse")
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, "bob@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)

	// Wrong password and unknown email fail the same way.
	_, _, badPass := svc.Login(ctx, "bob@example.com", "wrong")
	_, _, badMail := svc.Login(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, badPass, services.ErrNotFound)
	assert.ErrorIs(t, badMail, services.ErrNotFound)
}

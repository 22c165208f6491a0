package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/betterdrive/betterdrive/app/models"
	"github.com/betterdrive/betterdrive/app/repositories"
	"github.com/betterdrive/betterdrive/pkg/auth"
	"gorm.io/gorm"
)

// AuthService handles registration and login. Registration creates the user
// and their Home root folder in one transaction — every account starts with
// exactly one root.
type AuthService struct {
	db      *gorm.DB
	users   *repositories.UserRepository
	folders *repositories.FolderRepository
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{
		db:      db,
		users:   repositories.NewUserRepository(),
		folders: repositories.NewFolderRepository(),
	}
}

// Register creates an account plus its Home folder and returns a signed JWT.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (models.User, string, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, "", fmt.Errorf("%w: hash password", ErrInternal)
	}

	var user models.User

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.users.FindByEmail(tx, email); err == nil {
			return fmt.Errorf("%w: email already registered", ErrConflict)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		user = models.User{Name: name, Email: email, Password: hash}
		if err := s.users.Create(tx, &user); err != nil {
			return err
		}

		home := models.Folder{Name: models.HomeFolderName, UserID: user.ID}
		return s.folders.Create(tx, &home)
	})
	if err != nil {
		return models.User{}, "", internalUnless(err)
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		return models.User{}, "", fmt.Errorf("%w: sign token", ErrInternal)
	}

	return user, token, nil
}

// Login verifies credentials and returns a signed JWT. Wrong email and wrong
// password are reported identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	user, err := s.users.FindByEmail(s.db, email)
	if err != nil {
		return models.User{}, "", notFoundOr(err, "user")
	}

	if !auth.CheckPassword(user.Password, password) {
		return models.User{}, "", fmt.Errorf("%w: invalid credentials", ErrNotFound)
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		return models.User{}, "", fmt.Errorf("%w: sign token", ErrInternal)
	}

	return user, token, nil
}

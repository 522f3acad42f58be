package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"clarita-backend/internal/apperrors"
	"clarita-backend/internal/model"
	"clarita-backend/internal/repository"
	"clarita-backend/utilities"
)

// AuthService mirrors user profiles and issues the bearer tokens the
// protected routes require.
type AuthService interface {
	Register(user *model.User) error
	Login(email, password string) (*model.User, string, string, error)
	Refresh(refreshToken string) (string, string, error)
	GetProfile(userID uint) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Register(user *model.User) error {
	if user.Email == "" {
		return apperrors.Validation("email is required")
	}
	if user.Password == "" {
		return apperrors.Validation("password cannot be empty")
	}

	existing, err := s.userRepo.GetUserByEmail(user.Email)
	if err == nil && existing != nil {
		return apperrors.Validation("email already in use")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)

	if err := s.userRepo.CreateUser(user); err != nil {
		return apperrors.Persistence("create user", err)
	}
	user.Password = ""
	return nil
}

func (s *authService) Login(email, password string) (*model.User, string, string, error) {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", apperrors.Auth("invalid credentials")
		}
		return nil, "", "", apperrors.Persistence("load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", "", apperrors.Auth("invalid credentials")
	}

	access, refresh, err := utilities.GenerateTokens(user)
	if err != nil {
		return nil, "", "", err
	}

	user.Password = ""
	return user, access, refresh, nil
}

func (s *authService) Refresh(refreshToken string) (string, string, error) {
	access, refresh, err := utilities.RefreshTokens(refreshToken)
	if err != nil {
		return "", "", apperrors.Auth(err.Error())
	}
	return access, refresh, nil
}

func (s *authService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.Persistence("load user", err)
	}
	user.Password = ""
	return user, nil
}

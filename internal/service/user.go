package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/relive/relive/internal/model"
	"github.com/relive/relive/internal/repository"
	"github.com/relive/relive/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
)

// ProfileUpdate holds optional account changes; nil fields are left alone.
type ProfileUpdate struct {
	Name            *string `json:"name"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     *string `json:"new_password"`
}

type UserService struct {
	userRepository repository.UserRepository
	fileService    *FileService
}

func NewUserService(userRepository repository.UserRepository, fileService *FileService) *UserService {
	return &UserService{
		userRepository: userRepository,
		fileService:    fileService,
	}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	return s.userRepository.ByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		err = validation.ValidateName(name)
		if err != nil {
			return nil, invalid(err)
		}
		user.Name = name
	}

	if update.NewPassword != nil {
		// OAuth-only accounts may set a first password without a current one.
		if user.HasPassword() {
			err = bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(update.CurrentPassword))
			if err != nil {
				return nil, invalid(ErrInvalidCurrentPassword)
			}
		}

		err = validation.ValidatePassword(*update.NewPassword, user.Email)
		if err != nil {
			return nil, invalid(err)
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(*update.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hash := string(hashed)
		user.PasswordHash = &hash
	}

	err = s.userRepository.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteAccount removes stored uploads then the user; rows cascade.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	err := s.fileService.DeleteAllUserFilesFromStorage(ctx, userID)
	if err != nil {
		slog.Warn("failed to delete user files from storage", "user_id", userID, "error", err)
	}

	err = s.userRepository.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("account deleted", "user_id", userID)
	return nil
}

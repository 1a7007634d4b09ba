// Package account manages user credentials, profiles and saved property
// analyses.
package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"deediq/internal/apperror"
	"deediq/internal/auth"
	"deediq/internal/models"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
	// BcryptCost is the work factor for stored password hashes.
	BcryptCost = 10
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Profile is what other users may see about a user.
type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Name        string    `json:"name"`
	Bio         string    `json:"bio"`
	CreatedAt   time.Time `json:"created_at"`
	ThreadCount int64     `json:"thread_count"`
	PostCount   int64     `json:"post_count"`
}

// ProfileUpdate carries a partial profile change. Nil fields are left
// unchanged.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Bio      *string `json:"bio"`
	Username *string `json:"username"`
}

// CreateUser registers a new account with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, username, email, password string) (*models.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, apperror.Invalid("Username, email, and password are required")
	}
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return nil, apperror.Invalid(fmt.Sprintf("Username must be at least %d characters", MinUsernameLength))
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, apperror.Invalid(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if !emailPattern.MatchString(email) {
		return nil, apperror.Invalid("Invalid email format")
	}

	db := s.db.WithContext(ctx)

	var count int64
	err := db.Model(&models.User{}).Where("username = ? OR email = ?", username, email).Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if count > 0 {
		return nil, apperror.Duplicate("Username or email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Duplicate("Username or email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate checks an email and password pair and records the login.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperror.Invalid("Email and password are required")
	}

	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !user.IsActive {
		return nil, apperror.Unauthorized("Account is disabled")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperror.Unauthorized("Invalid email or password")
	}

	now := time.Now()
	if err := db.Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now
	return &user, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Missing("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// PublicProfile returns a user's public fields with forum activity counts.
func (s *Service) PublicProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.Name,
		Bio:       user.Bio,
		CreatedAt: user.CreatedAt,
	}

	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Thread{}).Where("user_id = ?", userID).Count(&profile.ThreadCount).Error; err != nil {
		return nil, fmt.Errorf("count threads: %w", err)
	}
	if err := db.Model(&models.Post{}).Where("user_id = ?", userID).Count(&profile.PostCount).Error; err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	return profile, nil
}

// UpdateProfile applies the non-nil fields of update.
func (s *Service) UpdateProfile(ctx context.Context, caller auth.Caller, update ProfileUpdate) error {
	if err := caller.Require(); err != nil {
		return err
	}
	userID := caller.UserID
	db := s.db.WithContext(ctx)

	changes := map[string]interface{}{}
	if update.Name != nil {
		changes["name"] = *update.Name
	}
	if update.Bio != nil {
		changes["bio"] = *update.Bio
	}
	if update.Username != nil && *update.Username != "" {
		username := *update.Username
		if utf8.RuneCountInString(username) < MinUsernameLength {
			return apperror.Invalid(fmt.Sprintf("Username must be at least %d characters", MinUsernameLength))
		}
		var taken int64
		err := db.Model(&models.User{}).Where("username = ? AND id <> ?", username, userID).Count(&taken).Error
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if taken > 0 {
			return apperror.Duplicate("Username already taken")
		}
		changes["username"] = username
	}
	if len(changes) == 0 {
		return nil
	}

	res := db.Model(&models.User{}).Where("id = ?", userID).Updates(changes)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperror.Duplicate("Username already taken")
		}
		return fmt.Errorf("update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.Missing("User not found")
	}
	return nil
}

// ChangePassword replaces the stored hash after verifying currentPassword.
func (s *Service) ChangePassword(ctx context.Context, caller auth.Caller, currentPassword, newPassword string) error {
	if err := caller.Require(); err != nil {
		return err
	}
	if currentPassword == "" || newPassword == "" {
		return apperror.Invalid("Current and new password required")
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return apperror.Invalid(fmt.Sprintf("New password must be at least %d characters", MinPasswordLength))
	}

	user, err := s.GetUser(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return apperror.Unauthorized("Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.db.WithContext(ctx).Model(user).Update("password_hash", string(hash)).Error
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// SaveProperty stores a calculator snapshot for the caller exactly as given
// and returns its id.
func (s *Service) SaveProperty(ctx context.Context, caller auth.Caller, snapshot models.SavedProperty) (string, error) {
	if err := caller.Require(); err != nil {
		return "", err
	}
	if snapshot.Address == "" {
		return "", apperror.Invalid("Address is required")
	}

	snapshot.ID = ""
	snapshot.UserID = caller.UserID
	snapshot.CreatedAt = time.Time{}
	if err := s.db.WithContext(ctx).Create(&snapshot).Error; err != nil {
		return "", fmt.Errorf("save property: %w", err)
	}
	return snapshot.ID, nil
}

// ListProperties returns the caller's saved properties, newest first.
func (s *Service) ListProperties(ctx context.Context, caller auth.Caller) ([]models.SavedProperty, error) {
	if err := caller.Require(); err != nil {
		return nil, err
	}
	properties := []models.SavedProperty{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", caller.UserID).
		Order("created_at DESC").
		Find(&properties).Error
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return properties, nil
}

func (s *Service) DeleteProperty(ctx context.Context, caller auth.Caller, propertyID string) error {
	if err := caller.Require(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var property models.SavedProperty
		err := tx.Select("id, user_id").Where("id = ?", propertyID).Take(&property).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Missing("Property not found")
		}
		if err != nil {
			return fmt.Errorf("find property: %w", err)
		}
		if property.UserID != caller.UserID {
			return apperror.Denied("Not authorized")
		}
		if err := tx.Delete(&property).Error; err != nil {
			return fmt.Errorf("delete property: %w", err)
		}
		return nil
	})
}

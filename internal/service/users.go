package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rongwang/cgtracker/internal/models"
	"github.com/rongwang/cgtracker/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdmin seeds the configured admin account when it does not exist
func (s *DefaultService) EnsureAdmin(ctx context.Context) error {
	existing, err := s.repo.GetUserByUsername(ctx, s.auth.AdminUsername)
	if err != nil {
		return storageError("look up admin user", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := s.hashPassword(s.auth.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:     s.auth.AdminUsername,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateUser(ctx, admin); err != nil {
		return storageError("create admin user", err)
	}

	s.logger.Info("seeded admin user", zap.String("username", admin.Username))
	return nil
}

// Login checks the credentials and returns a signed token. The first
// successful login of a period also takes any scheduled backup that is due.
func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, validationError("please enter both username and password")
	}

	// Get the user
	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, storageError("get user", err)
	}

	if user == nil {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	// Generate JWT token
	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	actor := models.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}
	s.logActivity(ctx, actor, models.ActionLogin, fmt.Sprintf("User %s logged in", user.Username))
	s.runScheduledBackups(ctx, actor)

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Token:     token,
		ExpiresIn: int(s.tokenDuration().Seconds()),
	}, nil
}

// ResolveActor loads the current identity of a token subject. Accounts
// deleted after the token was issued are rejected as unauthorized.
func (s *DefaultService) ResolveActor(ctx context.Context, userID int64) (models.Actor, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return models.Actor{}, storageError("get user", err)
	}
	if user == nil {
		return models.Actor{}, fmt.Errorf("%w: user %d no longer exists", ErrUnauthorized, userID)
	}
	return models.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func (s *DefaultService) ListUsers(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, storageError("list users", err)
	}
	return users, nil
}

func (s *DefaultService) AddUser(ctx context.Context, actor models.Actor, req models.CreateUserRequest) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, validationError("please fill in all fields")
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, validationError("unknown role %q", role)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	}
	err = s.repo.WithTx(ctx, func(tx repository.Repository) error {
		existing, err := tx.GetUserByUsername(ctx, username)
		if err != nil {
			return storageError("look up user", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: username '%s' already exists", ErrDuplicateName, username)
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			return storageError("create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageError("add user", err)
	}

	s.logActivity(ctx, actor, models.ActionUserAdded, fmt.Sprintf("Added new %s user: %s", role, username))
	return user, nil
}

// UpdateUser changes the username and, when given, the password
func (s *DefaultService) UpdateUser(
	ctx context.Context,
	actor models.Actor,
	userID int64,
	req models.UpdateUserRequest,
) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, validationError("username cannot be empty")
	}

	var hash string
	if req.Password != "" {
		var err error
		if hash, err = s.hashPassword(req.Password); err != nil {
			return nil, err
		}
	}

	var user *models.User
	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		var err error
		user, err = tx.GetUserByID(ctx, userID)
		if err != nil {
			return storageError("get user", err)
		}
		if user == nil {
			return notFoundError("user %d not found", userID)
		}

		other, err := tx.GetUserByUsername(ctx, username)
		if err != nil {
			return storageError("look up user", err)
		}
		if other != nil && other.ID != userID {
			return fmt.Errorf("%w: username '%s' already exists", ErrDuplicateName, username)
		}

		user.Username = username
		if hash != "" {
			user.PasswordHash = hash
		}
		if err := tx.UpdateUser(ctx, user); err != nil {
			return storageError("update user", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageError("update user", err)
	}

	s.logActivity(ctx, actor, models.ActionUserUpdated, fmt.Sprintf("Updated user ID %d: %s", userID, username))
	return user, nil
}

// DeleteUser removes a user. Admins cannot delete themselves and the last
// admin account always remains.
func (s *DefaultService) DeleteUser(ctx context.Context, actor models.Actor, userID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if userID == actor.UserID {
		return invalidStateError("you cannot delete your own account")
	}

	var user *models.User
	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		var err error
		user, err = tx.GetUserByID(ctx, userID)
		if err != nil {
			return storageError("get user", err)
		}
		if user == nil {
			return notFoundError("user %d not found", userID)
		}

		if user.Role == models.RoleAdmin {
			admins, err := tx.CountAdmins(ctx)
			if err != nil {
				return storageError("count admins", err)
			}
			if admins <= 1 {
				return invalidStateError("cannot delete the last admin user, at least one admin must remain")
			}
		}

		if err := tx.DeleteUser(ctx, userID); err != nil {
			return storageError("delete user", err)
		}
		return nil
	})
	if err != nil {
		return storageError("delete user", err)
	}

	s.logActivity(ctx, actor, models.ActionUserDeleted, fmt.Sprintf("Deleted user: %s", user.Username))
	return nil
}

func requireAdmin(actor models.Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}

// Helper methods
func (s *DefaultService) hashPassword(password string) (string, error) {
	cost := s.auth.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hashed), nil
}

func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(user.ID, 10), // subject
		"username": user.Username,
		"role":     string(user.Role),
		"exp":      now.Add(s.tokenDuration()).Unix(),
		"iat":      now.Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.auth.JWTSecret))
}

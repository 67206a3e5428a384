package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tollgate-labs/tollgate/internal/identity/domain"
	"github.com/tollgate-labs/tollgate/internal/identity/store"
	"github.com/tollgate-labs/tollgate/pkg/cryptox"
	"github.com/tollgate-labs/tollgate/pkg/idx"
)

// ErrUserNotFound is returned when a subject from a valid token no longer
// maps to a user row.
var ErrUserNotFound = errors.New("service: user not found")

// UserService covers the userinfo endpoint and account management used by
// seeding.
type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

// GetUserByID returns the user record, roles included.
func (s *UserService) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	user, err := s.store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("look up user: %w", err)
	}
	return user, nil
}

// CreateUser hashes the password and inserts the user plus its role
// assignments. Roles are resolved by name.
func (s *UserService) CreateUser(ctx context.Context, email, name, password string, roleNames []string) (domain.User, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Roles:        roleNames,
	}

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		for _, roleName := range roleNames {
			role, err := tx.Roles().GetRoleByName(ctx, roleName)
			if err != nil {
				return fmt.Errorf("resolve role %q: %w", roleName, err)
			}
			if err := tx.Users().AssignRole(ctx, user.ID, role.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// UpdatePassword replaces the password hash and revokes every refresh
// token the user holds with the given client, forcing re-login.
func (s *UserService) UpdatePassword(ctx context.Context, userID, clientID, newPassword string) error {
	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return tx.RefreshTokens().RevokeAllUserClientRefreshTokens(ctx, userID, clientID)
	})
}

package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tollgate-labs/tollgate/internal/identity/domain"
	"github.com/tollgate-labs/tollgate/internal/identity/service"
	"github.com/tollgate-labs/tollgate/internal/identity/store"
	"github.com/tollgate-labs/tollgate/pkg/cryptox"
	"github.com/tollgate-labs/tollgate/pkg/idx"
)

// Demo credentials seeded on first run. Matches the sample apps shipped
// alongside this service; never enable SeedDemoData in production.
var seedUsers = []struct {
	Email    string
	Name     string
	Password string
	Role     string
}{
	{"admin@test.com", "Admin", "Admin123$", domain.RoleAdmin},
	{"manager@test.com", "Manager", "Manager123$", domain.RoleManager},
	{"user@test.com", "User", "User123$", domain.RoleUser},
}

var seedClients = []struct {
	ClientID string
	Name     string
	Secret   string
}{
	{"transport_client_app", "Transport Client App", "transport_client_app_secret"},
	{"sports_client_app", "Sports Client App", "sports_client_app_secret"},
}

const seedRedirectURI = "http://localhost:3000/callback"

// Seed populates roles, demo users and demo clients. Each table is only
// seeded when empty, so restarts are harmless.
func Seed(ctx context.Context, st store.Store, logger *slog.Logger) error {
	if err := seedRoles(ctx, st, logger); err != nil {
		return err
	}
	if err := seedDemoUsers(ctx, st, logger); err != nil {
		return err
	}
	return seedDemoClients(ctx, st, logger)
}

func seedRoles(ctx context.Context, st store.Store, logger *slog.Logger) error {
	empty, err := st.Roles().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("check roles: %w", err)
	}
	if !empty {
		return nil
	}

	for _, name := range []string{domain.RoleAdmin, domain.RoleManager, domain.RoleUser} {
		role := domain.Role{ID: idx.New().String(), Name: name}
		if err := st.Roles().CreateRole(ctx, role); err != nil {
			return fmt.Errorf("create role %q: %w", name, err)
		}
	}
	logger.Info("seeded roles", "count", 3)
	return nil
}

func seedDemoUsers(ctx context.Context, st store.Store, logger *slog.Logger) error {
	empty, err := st.Users().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("check users: %w", err)
	}
	if !empty {
		return nil
	}

	users := service.NewUserService(st)
	for _, u := range seedUsers {
		if _, err := users.CreateUser(ctx, u.Email, u.Name, u.Password, []string{u.Role}); err != nil {
			return fmt.Errorf("create user %q: %w", u.Email, err)
		}
	}
	logger.Info("seeded demo users", "count", len(seedUsers))
	return nil
}

func seedDemoClients(ctx context.Context, st store.Store, logger *slog.Logger) error {
	empty, err := st.Clients().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("check clients: %w", err)
	}
	if !empty {
		return nil
	}

	for _, c := range seedClients {
		secretHash, err := cryptox.HashPassword(c.Secret)
		if err != nil {
			return fmt.Errorf("hash secret for %q: %w", c.ClientID, err)
		}
		client := domain.Client{
			ID:           idx.New().String(),
			ClientID:     c.ClientID,
			Name:         c.Name,
			SecretHash:   secretHash,
			RedirectURIs: []string{seedRedirectURI},
			GrantTypes: []string{
				service.GrantPassword,
				service.GrantRefreshToken,
				service.GrantAuthorizationCode,
			},
			Protected: true,
		}
		if err := st.Clients().CreateClient(ctx, client); err != nil {
			return fmt.Errorf("create client %q: %w", c.ClientID, err)
		}
	}
	logger.Info("seeded demo clients", "count", len(seedClients))
	return nil
}

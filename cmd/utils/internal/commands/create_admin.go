package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"golang.org/x/crypto/bcrypt"

	"github.com/appetiteclub/pantry/internal/pantry"
	"github.com/appetiteclub/pantry/internal/sqlite"
	"github.com/appetiteclub/pantry/pkg/enums/role"
)

// CreateAdmin creates an administrator account. Registration never offers
// the admin role, so this is the only way to bootstrap one.
func CreateAdmin(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	username, _ := config.GetString("admin.username")
	password, _ := config.GetString("admin.password")
	establishmentID, err := configUint(config, "admin.establishment")
	if err != nil {
		return err
	}

	baseRepo, db, err := openDB(ctx, config, logger)
	if err != nil {
		return err
	}
	defer baseRepo.Stop(ctx)

	repos := pantry.Repos{
		EstablishmentRepo: sqlite.NewEstablishmentRepo(db),
		UserRepo:          sqlite.NewUserRepo(db),
	}

	user, err := createAdmin(ctx, repos, username, password, establishmentID)
	if err != nil {
		return err
	}
	logger.Info("Admin created", "user_id", user.ID, "username", user.Username, "establishment_id", establishmentID)
	return nil
}

func createAdmin(ctx context.Context, repos pantry.Repos, username, password string, establishmentID uint) (*pantry.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("admin.username and admin.password are required")
	}

	if _, err := repos.EstablishmentRepo.Get(ctx, establishmentID); err != nil {
		return nil, fmt.Errorf("establishment %d: %w", establishmentID, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &pantry.User{
		Username:        username,
		PasswordHash:    string(hash),
		Role:            role.Roles.Admin,
		EstablishmentID: establishmentID,
	}
	if err := repos.UserRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create admin %q: %w", username, err)
	}
	return user, nil
}

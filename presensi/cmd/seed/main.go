package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"presensi.app/presensi/config"
	"presensi.app/presensi/core"
	"presensi.app/presensi/security"
)

type seedFile struct {
	Users []struct {
		ID    uint   `yaml:"id"`
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
		Role  string `yaml:"role"`
	} `yaml:"users"`
}

// loadUsers reads the users section of a seed file.
func loadUsers(r io.Reader) ([]core.User, error) {
	var file seedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	seen := make(map[uint]bool)
	users := make([]core.User, 0, len(file.Users))
	for i, u := range file.Users {
		if u.ID == 0 {
			return nil, fmt.Errorf("user %d: id is required", i+1)
		}
		if seen[u.ID] {
			return nil, fmt.Errorf("user %d: duplicate id %d", i+1, u.ID)
		}
		name := strings.TrimSpace(u.Name)
		if name == "" {
			return nil, fmt.Errorf("user %d: name is required", i+1)
		}
		seen[u.ID] = true

		user := core.User{ID: u.ID, Name: name, Role: string(security.ParseRole(u.Role))}
		if email := strings.TrimSpace(u.Email); email != "" {
			user.Email = &email
		}
		users = append(users, user)
	}
	return users, nil
}

func main() {
	file := flag.String("file", "users.yaml", "YAML file with a users list")
	migrateOnly := flag.Bool("migrate-only", false, "create tables without seeding users")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	ctx := context.Background()
	cfg, err := config.Load(ctx, config.Path(), nil)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Database.Driver == "memory" {
		slog.Error("seeding needs a database driver, not memory")
		os.Exit(1)
	}

	dm, err := core.New(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxConnections, core.LogLevelInfo)
	if err != nil {
		slog.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer dm.Close()

	if err := dm.Migrate(); err != nil {
		slog.Error("failed to migrate", "error", err)
		os.Exit(1)
	}
	slog.Info("migrated")
	if *migrateOnly {
		return
	}

	f, err := os.Open(*file)
	if err != nil {
		slog.Error("failed to open seed file", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	users, err := loadUsers(f)
	if err != nil {
		slog.Error("invalid seed file", "file", *file, "error", err)
		os.Exit(1)
	}

	if err := dm.Transaction(ctx, func(tx *gorm.DB) error {
		return core.UpsertUsers(tx, users)
	}); err != nil {
		slog.Error("failed to seed users", "error", err)
		os.Exit(1)
	}
	slog.Info("seeded users", "count", len(users))
}
